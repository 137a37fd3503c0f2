package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// generateCode returns a zero-padded numeric code of the given length drawn
// from crypto/rand. "012345" is as likely as any other value.
func generateCode(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
