// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"
)

// MinHash parameters. 16 slots over 3-word shingles gives a signature that
// separates rewrites from republications well enough for diagnostics; the
// exact-hash check in the Store remains the only gate (R2.1-R2.3).
const (
	minhashSlots = 16
	shingleWords = 3
)

// Signature computes a MinHash signature of text over lowercase word
// shingles, hex-encoded as minhashSlots 8-character groups. Texts shorter
// than one shingle use the whole text as a single shingle. Empty or
// whitespace-only text yields "".
func Signature(text string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return ""
	}

	var mins [minhashSlots]uint32
	for i := range mins {
		mins[i] = ^uint32(0)
	}

	update := func(shingle string) {
		for s := 0; s < minhashSlots; s++ {
			if h := slotHash(shingle, slotSeed(s)); h < mins[s] {
				mins[s] = h
			}
		}
	}

	if len(words) < shingleWords {
		update(strings.Join(words, " "))
	} else {
		for i := 0; i+shingleWords <= len(words); i++ {
			update(strings.Join(words[i:i+shingleWords], " "))
		}
	}

	var b strings.Builder
	for _, m := range mins {
		fmt.Fprintf(&b, "%08x", m)
	}
	return b.String()
}

// Similarity estimates the Jaccard similarity of the texts behind two
// signatures as the fraction of matching slots. Malformed or empty
// signatures compare as 0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" || len(a) != len(b) || len(a) != minhashSlots*8 {
		return 0
	}
	match := 0
	for i := 0; i < minhashSlots; i++ {
		if a[i*8:(i+1)*8] == b[i*8:(i+1)*8] {
			match++
		}
	}
	return float64(match) / minhashSlots
}

// slotSeed derives the per-slot hash seed. Multiples of the golden-ratio
// constant spread well under FNV mixing.
func slotSeed(slot int) uint32 {
	return 0x9e3779b9 * uint32(slot+1)
}

func slotHash(shingle string, seed uint32) uint32 {
	h := fnv.New32a()
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], seed)
	h.Write(b[:])
	h.Write([]byte(shingle))
	return h.Sum32()
}
