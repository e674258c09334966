package domain

import "encoding/hex"

// FingerprintLen is the length of a fingerprint in hex characters.
const FingerprintLen = 64

// Fingerprint is the hex encoded identity of a compilation unit.
type Fingerprint string

func (f Fingerprint) String() string {
	return string(f)
}

// Short returns an abbreviated form suitable for log output.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// IsValid reports whether f looks like a fingerprint produced by this tool.
// Cache directories that fail this check are never touched.
func (f Fingerprint) IsValid() bool {
	if len(f) != FingerprintLen {
		return false
	}
	_, err := hex.DecodeString(string(f))
	return err == nil
}
