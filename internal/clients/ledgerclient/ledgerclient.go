package ledgerclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/crocodiledundalk/fomolt3d/internal/config"
	"github.com/crocodiledundalk/fomolt3d/internal/game"
	"github.com/crocodiledundalk/fomolt3d/internal/observability/metrics"
	"github.com/crocodiledundalk/fomolt3d/internal/types"
)

type Client struct {
	client    *rpc.Client
	cfg       *config.SolanaConfig
	programID solana.PublicKey
	// scanLimiter throttles getProgramAccounts, which public RPC providers
	// rate limit far more aggressively than single account reads.
	scanLimiter *rate.Limiter
}

var _ LedgerClient = (*Client)(nil)

func NewLedgerClient(cfg *config.SolanaConfig) (*Client, error) {
	programID := game.DefaultProgramID
	if cfg.ProgramID != "" {
		pk, err := solana.PublicKeyFromBase58(cfg.ProgramID)
		if err != nil {
			return nil, fmt.Errorf("invalid program id: %w", err)
		}
		programID = pk
	}

	return &Client{
		client:      rpc.New(cfg.Endpoint),
		cfg:         cfg,
		programID:   programID,
		scanLimiter: rate.NewLimiter(rate.Limit(cfg.ScanRatePerSec), 1),
	}, nil
}

func (c *Client) ProgramID() solana.PublicKey {
	return c.programID
}

func (c *Client) commitment() rpc.CommitmentType {
	return rpc.CommitmentType(c.cfg.Commitment)
}

func (c *Client) GetRoundState(ctx context.Context, round uint64) (*game.RoundState, error) {
	addr, err := game.RoundStateAddress(c.programID, round)
	if err != nil {
		return nil, err
	}
	data, err := c.fetchAccountData(ctx, "GetRoundState", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get round %d state: %w", round, err)
	}
	return game.DecodeRoundState(data)
}

func (c *Client) GetParticipant(ctx context.Context, wallet solana.PublicKey) (*game.ParticipantRecord, error) {
	addr, err := game.ParticipantAddress(c.programID, wallet)
	if err != nil {
		return nil, err
	}
	data, err := c.fetchAccountData(ctx, "GetParticipant", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant %s: %w", wallet, err)
	}
	return game.DecodeParticipantRecord(data)
}

func (c *Client) GetGlobalConfig(ctx context.Context) (*game.GlobalConfig, error) {
	addr, err := game.ConfigAddress(c.programID)
	if err != nil {
		return nil, err
	}
	data, err := c.fetchAccountData(ctx, "GetGlobalConfig", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get global config: %w", err)
	}
	return game.DecodeGlobalConfig(data)
}

func (c *Client) fetchAccountData(ctx context.Context, method string, addr solana.PublicKey) ([]byte, error) {
	result, err := callWithMetrics(method, c.cfg, func() ([]byte, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		res, err := c.client.GetAccountInfoWithOpts(callCtx, addr, &rpc.GetAccountInfoOpts{
			Commitment: c.commitment(),
			Encoding:   solana.EncodingBase64,
		})
		if err != nil {
			if errors.Is(err, rpc.ErrNotFound) {
				return nil, types.ErrAccountNotFound
			}
			return nil, err
		}
		if res.Value == nil {
			return nil, types.ErrAccountNotFound
		}
		return res.Value.Data.GetBinary(), nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ScanRounds(ctx context.Context) ([]*game.RoundState, error) {
	if err := c.scanLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	accounts, err := callWithMetrics("ScanRounds", c.cfg, func() (rpc.GetProgramAccountsResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		return c.client.GetProgramAccountsWithOpts(callCtx, c.programID, &rpc.GetProgramAccountsOpts{
			Commitment: c.commitment(),
			Encoding:   solana.EncodingBase64,
			Filters: []rpc.RPCFilter{
				{DataSize: game.RoundStateSize},
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan rounds: %w", err)
	}

	rounds := make([]*game.RoundState, 0, len(accounts))
	for _, acc := range accounts {
		rs, err := game.DecodeRoundState(acc.Account.Data.GetBinary())
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Stringer("account", acc.Pubkey).
				Msg("skipping undecodable round account")
			continue
		}
		rounds = append(rounds, rs)
	}
	return rounds, nil
}

func (c *Client) ScanParticipantsByRound(ctx context.Context, round uint64) ([]*game.ParticipantRecord, error) {
	if err := c.scanLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	accounts, err := callWithMetrics("ScanParticipantsByRound", c.cfg, func() (rpc.GetProgramAccountsResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		return c.client.GetProgramAccountsWithOpts(callCtx, c.programID, &rpc.GetProgramAccountsOpts{
			Commitment: c.commitment(),
			Encoding:   solana.EncodingBase64,
			Filters: []rpc.RPCFilter{
				{DataSize: game.ParticipantRecordSize},
				{Memcmp: &rpc.RPCFilterMemcmp{
					Offset: game.ParticipantRoundOffset,
					Bytes:  solana.Base58(game.RoundLEBytes(round)),
				}},
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan participants of round %d: %w", round, err)
	}

	records := make([]*game.ParticipantRecord, 0, len(accounts))
	for _, acc := range accounts {
		rec, err := game.DecodeParticipantRecord(acc.Account.Data.GetBinary())
		if err != nil {
			// one corrupt account must not sink the whole scan
			log.Ctx(ctx).Warn().Err(err).
				Stringer("account", acc.Pubkey).
				Msg("skipping undecodable participant account")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Client) GetSignaturesForProgram(ctx context.Context, before solana.Signature, limit int) ([]*rpc.TransactionSignature, error) {
	sigs, err := callWithMetrics("GetSignaturesForProgram", c.cfg, func() ([]*rpc.TransactionSignature, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		opts := &rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: c.commitment(),
		}
		if !before.IsZero() {
			opts.Before = before
		}
		return c.client.GetSignaturesForAddressWithOpts(callCtx, c.programID, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get program signatures: %w", err)
	}
	return sigs, nil
}

func (c *Client) GetTransactionLogs(ctx context.Context, sig solana.Signature) ([]string, error) {
	maxTxVersion := uint64(0)
	result, err := callWithMetrics("GetTransactionLogs", c.cfg, func() (*rpc.GetTransactionResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		return c.client.GetTransaction(callCtx, sig, &rpc.GetTransactionOpts{
			Commitment:                     c.commitment(),
			Encoding:                       solana.EncodingBase64,
			MaxSupportedTransactionVersion: &maxTxVersion,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", sig, err)
	}
	if result.Meta == nil {
		return nil, fmt.Errorf("transaction %s has no meta", sig)
	}
	return result.Meta.LogMessages, nil
}

func callWithMetrics[T any](method string, cfg *config.SolanaConfig, call retry.RetryableFuncWithData[T]) (T, error) {
	start := time.Now()
	result, err := clientCallWithRetry(call, cfg)

	outcome := metrics.Success
	if err != nil {
		outcome = metrics.Error
	}
	metrics.RecordLedgerClientLatency(method, time.Since(start), outcome)
	return result, err
}

func clientCallWithRetry[T any](call retry.RetryableFuncWithData[T], cfg *config.SolanaConfig) (T, error) {
	return retry.DoWithData(call,
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			// absent accounts are an expected state, not a transient fault
			return !errors.Is(err, types.ErrAccountNotFound)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("failed to call the ledger RPC node")
		}))
}
