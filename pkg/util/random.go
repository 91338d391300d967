package util

import (
	"crypto/rand"
	"math/big"
)

const upperAlphaNum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomCode returns n characters drawn from A-Z and 0-9.
func RandomCode(n int) string {
	out := make([]byte, n)
	limit := big.NewInt(int64(len(upperAlphaNum)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			out[i] = upperAlphaNum[i%len(upperAlphaNum)]
			continue
		}
		out[i] = upperAlphaNum[idx.Int64()]
	}
	return string(out)
}

// RandomIntBetween returns a value in [lo, hi].
func RandomIntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(hi-lo+1)))
	if err != nil {
		return lo
	}
	return lo + int(n.Int64())
}
