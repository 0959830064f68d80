package visitor

import "github.com/cespare/xxhash/v2"

// contentHash hashes a definition's source text; the index visitor stores it
// as each entry's ContentHash. Nothing reads it back: a re-index re-emits
// every entry and reference of the file whatever the hash.
func contentHash(s string) uint64 {
	return xxhash.Sum64String(s)
}
