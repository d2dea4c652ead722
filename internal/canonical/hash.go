package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	// shortHashLength is the number of base32 characters kept in key-shaped
	// digests. 12 characters carry 60 bits, enough to make collisions between
	// live cache entries negligible.
	shortHashLength = 12

	keyPrefix = "pc"
)

// base32Alphabet matches the lowercase alphabet the original key scheme used;
// keys stay shell- and Redis-friendly.
const base32Alphabet = "abcdefghijklmnopqrstuvwxyz234567"

// HashInput canonicalizes value and returns the hex SHA-256 of its canonical
// JSON. Both the orchestrator cache key and transport idempotency keys are
// built from this digest.
func HashInput(value any) (string, error) {
	doc, err := MarshalCanonical(value)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(doc))
	return hex.EncodeToString(sum[:]), nil
}

// ShortHash returns the truncated base32 form of the canonical digest,
// suitable for embedding in keys.
func ShortHash(value any) (string, error) {
	doc, err := MarshalCanonical(value)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(doc))
	return toBase32(sum[:])[:shortHashLength], nil
}

// CacheKey builds the orchestrator cache key for a request hash under a
// namespace, e.g. "pricing:orchestrator:v1:<hash>".
func CacheKey(namespace, hash string) string {
	return namespace + ":" + hash
}

// IdempotencyKey derives the job-queue idempotency key for a logical pricing
// request: pc:<org>:<version>:<short-hash>. Producers and the engine share
// the same canonicalization, so a duplicate enqueue maps to the same key as
// the engine's own cache entry for that payload.
func IdempotencyKey(orgID, version string, payload any) (string, error) {
	short, err := ShortHash(payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, orgID, version, short), nil
}

func toBase32(buf []byte) string {
	var (
		bits  uint
		value uint32
		out   []byte
	)

	for _, b := range buf {
		value = value<<8 | uint32(b)
		bits += 8

		for bits >= 5 {
			idx := (value >> (bits - 5)) & 0x1f
			out = append(out, base32Alphabet[idx])
			bits -= 5
		}
	}

	if bits > 0 {
		idx := (value << (5 - bits)) & 0x1f
		out = append(out, base32Alphabet[idx])
	}

	return string(out)
}
