// Package walletpkg validates wallet addresses and builds simulated transfer signatures.
package walletpkg

import (
	"crypto/rand"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const (
	publicKeySize = 32
	signatureSize = 64
)

// Network is the provider tag stored along simulated transfers.
const Network = "solana-devnet-sim"

// ValidAddress reports whether address is a base58 encoded 32 byte public key.
func ValidAddress(address string) bool {
	if len(address) < 32 || len(address) > 44 {
		return false
	}

	return len(base58.Decode(address)) == publicKeySize
}

// SimulatedSignature returns a random base58 transfer signature.
func SimulatedSignature() (string, error) {
	b := make([]byte, signatureSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base58.Encode(b), nil
}

// AddressFromKey encodes a 32 byte public key.
func AddressFromKey(key [publicKeySize]byte) string {
	return base58.Encode(key[:])
}
