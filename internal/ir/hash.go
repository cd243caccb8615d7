package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainConstraint = "rulecc/constraint/v1"
	DomainIndex      = "rulecc/index/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalConstraint returns the canonical JSON bytes of a descriptor.
// Equal descriptors always produce identical bytes.
func CanonicalConstraint(c Constraint) ([]byte, error) {
	obj, err := ConstraintToIR(c)
	if err != nil {
		return nil, fmt.Errorf("CanonicalConstraint: %w", err)
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return nil, fmt.Errorf("CanonicalConstraint: failed to marshal: %w", err)
	}
	return canonical, nil
}

// DescriptorHash computes the content-addressed identity of a descriptor.
func DescriptorHash(c Constraint) (string, error) {
	canonical, err := CanonicalConstraint(c)
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainConstraint, canonical), nil
}

// IndexKey computes the identity the matching network uses to share index
// nodes across rules: same key type, constraint type, field, extractor and
// narrowing yield the same key.
//
// A named field is keyed by pattern type and field name rather than by its
// id, since ids are assigned per session and collide across them.
func IndexKey(idx *IndexDescriptor) (string, error) {
	obj, err := IndexToIR(idx)
	if err != nil {
		return "", fmt.Errorf("IndexKey: %w", err)
	}
	if idx.PatternType != "" && idx.FieldName != "" {
		delete(obj, "field_id")
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("IndexKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainIndex, canonical), nil
}

// MustDescriptorHash is like DescriptorHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDescriptorHash(c Constraint) string {
	h, err := DescriptorHash(c)
	if err != nil {
		panic(err)
	}
	return h
}
