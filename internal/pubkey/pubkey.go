// Package pubkey validates and manipulates Solana public keys.
package pubkey

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Size is the length of a Solana public key in bytes.
const Size = 32

// Decode decodes a base58 public key string and verifies it is 32 bytes.
func Decode(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty public key")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode public key %q: %w", s, err)
	}
	if len(raw) != Size {
		return nil, fmt.Errorf("public key %q: expected %d bytes, got %d", s, Size, len(raw))
	}
	return raw, nil
}

// Valid reports whether s is a well-formed base58 32-byte public key.
func Valid(s string) bool {
	_, err := Decode(s)
	return err == nil
}

// OnCurve reports whether the key lies on the ed25519 curve. Wallet
// addresses are on-curve; program derived addresses are not.
func OnCurve(s string) bool {
	raw, err := Decode(s)
	if err != nil {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
