// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package topology implements the progress engine's CPU affinity
// negotiation (spec §4.A): CPU-set discovery, a collective bitmap exchange
// over co-located processes, offset computation, and core selection.
package topology

import "errors"

const wordBits = 64

// ErrInfiniteBitmap reports an attempt to serialize an unbounded bitmap,
// the way the source's get_bitmap_len does. No function in this package
// returns it: Bitmap is backed by a []uint64 and is always finite, so
// ToWords cannot fail.
var ErrInfiniteBitmap = errors.New("topology: bitmap is infinite")

// Bitmap is a finite set of logical CPU indices, represented as a vector of
// 64-bit words (spec GLOSSARY "CPU set / bitmap").
type Bitmap struct {
	words []uint64
}

// NewBitmap creates an empty bitmap.
func NewBitmap() Bitmap {
	return Bitmap{}
}

// FromCPUs creates a bitmap containing exactly the given CPU indices.
func FromCPUs(cpus ...int) Bitmap {
	var b Bitmap
	for _, c := range cpus {
		b.Set(c)
	}
	return b
}

func (b *Bitmap) ensure(word int) {
	if word >= len(b.words) {
		grown := make([]uint64, word+1)
		copy(grown, b.words)
		b.words = grown
	}
}

// Set adds cpu to the bitmap.
func (b *Bitmap) Set(cpu int) {
	if cpu < 0 {
		return
	}
	b.ensure(cpu / wordBits)
	b.words[cpu/wordBits] |= 1 << uint(cpu%wordBits)
}

// Clear removes cpu from the bitmap.
func (b *Bitmap) Clear(cpu int) {
	if cpu < 0 || cpu/wordBits >= len(b.words) {
		return
	}
	b.words[cpu/wordBits] &^= 1 << uint(cpu%wordBits)
}

// IsSet reports whether cpu is a member of the bitmap.
func (b Bitmap) IsSet(cpu int) bool {
	if cpu < 0 || cpu/wordBits >= len(b.words) {
		return false
	}
	return b.words[cpu/wordBits]&(1<<uint(cpu%wordBits)) != 0
}

// IsZero reports whether the bitmap has no members.
func (b Bitmap) IsZero() bool {
	for _, w := range b.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether two bitmaps have the same members, ignoring
// trailing all-zero words.
func (b Bitmap) Equal(other Bitmap) bool {
	a := trim(b.words)
	c := trim(other.words)
	if len(a) != len(c) {
		return false
	}
	for i := range a {
		if a[i] != c[i] {
			return false
		}
	}
	return true
}

// Cores enumerates the set CPU indices in ascending order. This stands in
// for "the topology's natural ordering" from spec §4.A step 4: this
// package has no hwloc-style core/PU hierarchy, so a flat CPU index list
// is the natural order.
func (b Bitmap) Cores() []int {
	var cores []int
	for i, w := range b.words {
		if w == 0 {
			continue
		}
		for bit := 0; bit < wordBits; bit++ {
			if w&(1<<uint(bit)) != 0 {
				cores = append(cores, i*wordBits+bit)
			}
		}
	}
	return cores
}

// trim drops trailing all-zero words.
func trim(words []uint64) []uint64 {
	n := len(words)
	for n > 0 && words[n-1] == 0 {
		n--
	}
	return words[:n]
}

// ToWords serializes the bitmap to a vector of 64-bit words, excluding
// trailing all-zero words (spec §4.A step 2: ℓ = ⌈(last_set_bit+1)/W⌉, W=64
// here). An empty bitmap serializes to a zero-length slice.
func (b Bitmap) ToWords() []uint64 {
	trimmed := trim(b.words)
	out := make([]uint64, len(trimmed))
	copy(out, trimmed)
	return out
}

// FromWords deserializes a bitmap previously produced by ToWords.
func FromWords(words []uint64) Bitmap {
	return Bitmap{words: trim(append([]uint64(nil), words...))}
}
