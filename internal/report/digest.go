package report

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"vlanislands/internal/domain"

	"golang.org/x/crypto/blake2b"
)

// Canonical returns the compact JSON encoding used for fingerprints and storage
func Canonical(rep *domain.Report) ([]byte, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

// Digest returns the hex BLAKE2b-256 of the report's canonical encoding
func Digest(rep *domain.Report) (string, error) {
	data, err := Canonical(rep)
	if err != nil {
		return "", err
	}
	return DigestBytes(data), nil
}

// DigestBytes returns the hex BLAKE2b-256 of raw bytes
func DigestBytes(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
