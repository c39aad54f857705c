package ledgerclient

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/crocodiledundalk/fomolt3d/internal/game"
)

//go:generate mockery --name=LedgerClient --output=../../../tests/mocks --outpkg=mocks --filename=mock_ledger_client.go
type LedgerClient interface {
	// GetRoundState fetches and decodes one round account. Returns
	// types.ErrAccountNotFound when the round was never created.
	GetRoundState(ctx context.Context, round uint64) (*game.RoundState, error)

	// GetParticipant fetches a wallet's participant account. Returns
	// types.ErrAccountNotFound for wallets that never registered.
	GetParticipant(ctx context.Context, wallet solana.PublicKey) (*game.ParticipantRecord, error)

	// GetGlobalConfig fetches the admin configuration account.
	GetGlobalConfig(ctx context.Context) (*game.GlobalConfig, error)

	// ScanRounds bulk-fetches every round account the program has created.
	// There is one per round, so the result stays small for the lifetime of
	// the deployment; the highest round number is the current round.
	ScanRounds(ctx context.Context) ([]*game.RoundState, error)

	// ScanParticipantsByRound bulk-fetches every participant account whose
	// current round matches. Rate limited; meant for leaderboards, not for
	// the per-wallet read path.
	ScanParticipantsByRound(ctx context.Context, round uint64) ([]*game.ParticipantRecord, error)

	// GetSignaturesForProgram pages backwards through the program's
	// transaction history, newest first. A zero `before` starts at the tip.
	GetSignaturesForProgram(ctx context.Context, before solana.Signature, limit int) ([]*rpc.TransactionSignature, error)

	// GetTransactionLogs fetches the log messages of one confirmed
	// transaction, the carrier of the program's emitted events.
	GetTransactionLogs(ctx context.Context, sig solana.Signature) ([]string, error)

	// ProgramID is the program this client is bound to.
	ProgramID() solana.PublicKey
}
