package evaluator

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// canonicalKey derives a stable dedup key for v by CBOR-encoding it in
// canonical form and hashing the result, grounded on the teacher's
// CanonicalPlan.MarshalBinary/Hash pair (core/planfmt/canonical.go):
// cbor.CanonicalEncOptions().EncMode() sorts map keys and fixes integer/
// float widths deterministically, so two structurally equal values always
// encode to the same bytes regardless of map iteration order, and the
// digest of those bytes (blake2b, as the teacher's writer.go also uses for
// its plan hash) becomes the dedup key.
func canonicalKey(v interface{}) string {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("canonicalKey: building CBOR encoder: %v", err))
	}
	data, err := encMode.Marshal(v)
	if err != nil {
		// Every value reaching dedup is either one of this package's
		// primitive Value types or a JSON-shaped map/slice/scalar; both
		// always encode, so a failure here means a caller passed dedup
		// something that isn't a FHIRPath value at all.
		panic(fmt.Sprintf("canonicalKey: %v", err))
	}
	h, _ := blake2b.New256(nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// orderedDedup preserves first-seen order while removing later duplicates
// (by canonicalKey), per spec.md §5's ordering guarantee for distinct/
// union/exclude/intersect.
func orderedDedup(s Sequence) Sequence {
	seen := make(map[string]bool, len(s))
	out := make(Sequence, 0, len(s))
	for _, v := range s {
		k := canonicalKey(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

func containsValue(s Sequence, v interface{}) bool {
	k := canonicalKey(v)
	for _, e := range s {
		if canonicalKey(e) == k {
			return true
		}
	}
	return false
}
