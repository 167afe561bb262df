package entry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"

	"lukechampine.com/blake3"
)

// fingerprintHexLen is the truncated fingerprint length in hex characters.
const fingerprintHexLen = 16

type fingerprintAlgorithm uint32

const (
	algoSHA256 fingerprintAlgorithm = iota
	algoBLAKE3
)

var activeAlgorithm atomic.Uint32

// SetFingerprintAlgorithm selects the content digest used for new
// fingerprints. Existing hashes are never rewritten.
func SetFingerprintAlgorithm(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sha256":
		activeAlgorithm.Store(uint32(algoSHA256))
	case "blake3":
		activeAlgorithm.Store(uint32(algoBLAKE3))
	default:
		return fmt.Errorf("unsupported fingerprint algorithm: %s", name)
	}
	return nil
}

// Fingerprint digests content and truncates the hex form to 16 characters.
// Empty content yields an empty fingerprint.
func Fingerprint(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	var digest [32]byte
	switch fingerprintAlgorithm(activeAlgorithm.Load()) {
	case algoBLAKE3:
		digest = blake3.Sum256(content)
	default:
		digest = sha256.Sum256(content)
	}
	return hex.EncodeToString(digest[:])[:fingerprintHexLen]
}
