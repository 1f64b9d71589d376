// Package id generates the identifiers of fake identity service items.
package id

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Length is the length of every ID returned by New.
const Length = 22

const base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// New returns a random 22-character base62 ID, the shape the service uses
// in hrefs such as accounts/3apenYvL0Z9v9spdzpFfey. It carries the 122
// random bits of a UUID v4.
func New() string {
	u := uuid.New()
	n := new(big.Int).SetBytes(u[:])
	s := n.Text(62)
	return strings.Repeat("0", Length-len(s)) + s
}

// Valid reports whether s has the shape of an ID returned by New.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(base62, s[i]) < 0 {
			return false
		}
	}
	return true
}

// Alphanumeric generates a random alphanumeric string of the specified length.
// Uses uppercase, lowercase letters and digits.
func Alphanumeric(length int) string {
	b := make([]byte, length)
	limit := big.NewInt(int64(len(base62)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}
		b[i] = base62[n.Int64()]
	}
	return string(b)
}
