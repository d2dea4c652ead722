// Package canonical produces a deterministic representation of structured
// values. It is the single source of truth for cache-key and idempotency-key
// equality: two logically identical inputs canonicalize to the same JSON
// string regardless of map insertion order or the ordering of code lists.
package canonical

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// numberScale bounds float precision so platform-level formatting noise
// cannot change a digest.
const numberScale = 1e6

// Options controls key-sensitive normalization during canonicalization.
type Options struct {
	// LowercaseKeys names object keys whose string values are case-folded.
	LowercaseKeys map[string]struct{}

	// SortedArrayKeys names object keys whose primitive-array values carry
	// no semantic ordering and are sorted before hashing. Every other array
	// keeps caller order: list position stays significant unless a key is
	// designated here, so any new set-like field must be added to this list
	// on every producer that hashes it.
	SortedArrayKeys map[string]struct{}
}

// DefaultOptions returns the normalization rules used by the pricing engine.
// Codes are case-insensitive identifiers; finish and operation lists are
// treated as sets for hashing purposes.
func DefaultOptions() Options {
	return Options{
		LowercaseKeys: keySet(
			"material_code",
			"machine_group",
			"process",
			"currency",
			"region",
			"catalog_version",
		),
		SortedArrayKeys: keySet(
			"finishes",
			"tolerances",
			"secondary_operations",
		),
	}
}

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// MarshalCanonical renders value as canonical JSON using DefaultOptions.
func MarshalCanonical(value any) (string, error) {
	return MarshalCanonicalWith(value, DefaultOptions())
}

// MarshalCanonicalWith renders value as canonical JSON with explicit options.
// The value is first round-tripped through encoding/json so arbitrary structs
// are reduced to their wire shape, then normalized: object keys sorted,
// numbers rounded, nulls dropped, designated keys case-folded and sorted.
func MarshalCanonicalWith(value any, opts Options) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("canonical: value is not serializable: %w", err)
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return "", fmt.Errorf("canonical: failed to decode intermediate form: %w", err)
	}

	normalized := normalize(tree, "", opts)

	// encoding/json writes map keys in sorted order, which gives the stable
	// key ordering the digest depends on.
	out, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("canonical: failed to encode canonical form: %w", err)
	}

	return string(out), nil
}

func normalize(value any, key string, opts Options) any {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		return v
	case string:
		if _, fold := opts.LowercaseKeys[key]; fold {
			return strings.ToLower(v)
		}
		return v
	case float64:
		return roundNumber(v)
	case []any:
		return normalizeArray(v, key, opts)
	case map[string]any:
		return normalizeObject(v, opts)
	default:
		return v
	}
}

func normalizeObject(value map[string]any, opts Options) map[string]any {
	result := make(map[string]any, len(value))
	for k, v := range value {
		if v == nil {
			continue
		}
		result[k] = normalize(v, k, opts)
	}
	return result
}

func normalizeArray(value []any, key string, opts Options) []any {
	items := make([]any, 0, len(value))
	for _, item := range value {
		if item == nil {
			continue
		}
		next := normalize(item, key, opts)
		if _, sorted := opts.SortedArrayKeys[key]; sorted {
			if s, ok := next.(string); ok {
				next = strings.ToLower(s)
			}
		}
		items = append(items, next)
	}

	if _, ok := opts.SortedArrayKeys[key]; ok && isPrimitiveArray(items) {
		sort.Slice(items, func(i, j int) bool {
			return primitiveKey(items[i]) < primitiveKey(items[j])
		})
	}

	return items
}

func roundNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	rounded := math.Round(v*numberScale) / numberScale
	if rounded == 0 {
		// Normalize -0 so it cannot split the keyspace.
		return 0
	}
	return rounded
}

func isPrimitiveArray(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case string, float64, bool:
		default:
			return false
		}
	}
	return true
}

func primitiveKey(v any) string {
	switch t := v.(type) {
	case string:
		return "s:" + t
	case float64:
		return fmt.Sprintf("n:%021.6f", t)
	case bool:
		if t {
			return "b:1"
		}
		return "b:0"
	default:
		return fmt.Sprintf("x:%v", t)
	}
}
