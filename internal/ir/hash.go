package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainMapping = "flatbind/mapping/v1"
	DomainDecl    = "flatbind/decl/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content hash of a run's mapping table. Two runs
// over the same model and target have the same fingerprint.
func Fingerprint(o *Output) (string, error) {
	canonical, err := MarshalCanonical(o.MappingTable())
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainMapping, canonical), nil
}

// DeclID computes a stable identity for a declaration from its C++ path and
// version. Used as the primary key of stored mapping rows.
func DeclID(path string, v Version) string {
	return hashWithDomain(DomainDecl, []byte(path+"@"+v.String()))
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the output is known to be valid.
func MustFingerprint(o *Output) string {
	fp, err := Fingerprint(o)
	if err != nil {
		panic(err)
	}
	return fp
}
