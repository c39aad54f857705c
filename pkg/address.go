package pkg

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ValidateWalletAddress parses a base58 wallet address and rejects derived
// (off-curve) addresses, which can never sign a purchase or claim.
func ValidateWalletAddress(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !pk.IsOnCurve() {
		return solana.PublicKey{}, fmt.Errorf("address %s is not a wallet", address)
	}
	return pk, nil
}
