package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateOrderID returns an order reference like ESM-20260116-1A2B3C4D.
func GenerateOrderID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("ESM-%s-%s", time.Now().UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(b))), nil
}

// SecretEqual compares two secrets in constant time.
func SecretEqual(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
