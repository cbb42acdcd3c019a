// Package quickxorhash computes the QuickXorHash content digest that
// SharePoint and OneDrive report for every file in a document library.
//
// Each input byte is XORed into a 160-bit circular register at a bit offset
// that advances by 11 per byte. The final 20-byte digest has the total input
// length XORed into its last eight bytes.
//
// Based on the rclone implementation (BSD-0 license).
// Original source: github.com/rclone/rclone/backend/onedrive/quickxorhash
// Copyright (c) rclone contributors.
//
// Algorithm reference:
// https://learn.microsoft.com/en-us/onedrive/developer/code-snippets/quickxorhash
package quickxorhash

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"hash"
)

const (
	// Size is the length, in bytes, of a QuickXorHash digest.
	Size = 20

	// BlockSize is the preferred write size. The hash has no real block
	// structure; this matches what callers of hash.Hash expect.
	BlockSize = 64

	step     = 11  // bits the insertion offset advances per byte
	width    = 160 // register width in bits
	lastBits = 32  // valid bits in the final cell (160 - 2*64)
	cells    = 3
)

// Hash is a running QuickXorHash. The zero value is ready to use.
type Hash struct {
	reg    [cells]uint64
	offset int // bit position for the next byte, in [0, width)
	length uint64
}

// New returns a hash.Hash computing QuickXorHash.
func New() hash.Hash {
	return &Hash{}
}

// Write absorbs p. It never fails.
func (h *Hash) Write(p []byte) (int, error) {
	// Bytes that land on the same offset XOR together first. The offset
	// cycles every width bytes, so fold p into at most width columns.
	if len(p) >= width {
		var cols [width]byte

		for i, b := range p {
			cols[i%width] ^= b
		}

		start := h.offset
		for i := range cols {
			h.mix(cols[i], (start+i*step)%width)
		}
	} else {
		off := h.offset
		for _, b := range p {
			h.mix(b, off)

			off += step
			if off >= width {
				off -= width
			}
		}
	}

	h.offset = (h.offset + step*(len(p)%width)) % width
	h.length += uint64(len(p))

	return len(p), nil
}

// mix XORs b into the register at bit offset off, spilling into the next
// cell when the byte straddles a cell boundary.
func (h *Hash) mix(b byte, off int) {
	if b == 0 {
		return
	}

	idx := off / 64
	bit := off % 64

	cellBits := 64
	if idx == cells-1 {
		cellBits = lastBits
	}

	h.reg[idx] ^= uint64(b) << bit

	if bit > cellBits-8 {
		h.reg[(idx+1)%cells] ^= uint64(b) >> (cellBits - bit)
	}
}

// Sum appends the digest to b without changing the running state.
func (h *Hash) Sum(b []byte) []byte {
	var out [Size]byte

	binary.LittleEndian.PutUint64(out[0:8], h.reg[0])
	binary.LittleEndian.PutUint64(out[8:16], h.reg[1])
	binary.LittleEndian.PutUint32(out[16:20], uint32(h.reg[2])) //nolint:gosec // high bits are outside the register

	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], h.length)

	for i := range n {
		out[Size-8+i] ^= n[i]
	}

	return append(b, out[:]...)
}

// Reset clears the running state.
func (h *Hash) Reset() {
	*h = Hash{}
}

// Size returns Size.
func (h *Hash) Size() int { return Size }

// BlockSize returns BlockSize.
func (h *Hash) BlockSize() int { return BlockSize }

// Encode renders a digest the way the drive API reports it: standard base64.
func Encode(sum []byte) string {
	return base64.StdEncoding.EncodeToString(sum)
}

// Matches reports whether sum equals the base64 digest want. A malformed
// want never matches.
func Matches(sum []byte, want string) bool {
	decoded, err := base64.StdEncoding.DecodeString(want)
	if err != nil || len(decoded) != Size {
		return false
	}

	return subtle.ConstantTimeCompare(sum, decoded) == 1
}

var _ hash.Hash = (*Hash)(nil)
