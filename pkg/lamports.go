package pkg

import (
	"fmt"
	"strings"
)

const lamportsPerSol = 1_000_000_000

// FormatSol renders a lamport amount as a SOL string with trailing zeros
// trimmed, e.g. 1_500_000_000 -> "1.5".
func FormatSol(lamports uint64) string {
	whole := lamports / lamportsPerSol
	frac := lamports % lamportsPerSol
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	s := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return fmt.Sprintf("%d.%s", whole, s)
}
