package booking

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet excludes lookalike characters (I, L, O, 0, 1) so booking
// codes survive being read over the phone at the box office.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 6

// newBookingCode generates a human-readable booking code such as
// "BK-7GK2QD" from cryptographically secure random bytes.
func newBookingCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return fmt.Sprintf("BK-%s", out), nil
}
