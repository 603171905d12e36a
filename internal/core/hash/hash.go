// Package hash provides the fixed-seed 64-bit hash used for map keys.
//
// Digests are deterministic within a process. They are not stable across
// versions and must not be persisted.
package hash

import (
	"encoding/binary"
	"math/bits"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Func hashes a key of type K.
type Func[K any] func(K) uint64

var defaultSecrets = [4]uint64{
	0xa0761d6478bd642f,
	0xe7037ed1a0b428db,
	0x8ebc6af09c88c6e3,
	0x589965cc75374cc3,
}

// DefaultSecrets are the mixing constants used by Bytes, String and Value.
var DefaultSecrets = defaultSecrets

// Reset restores DefaultSecrets to the built-in constants.
func Reset() {
	DefaultSecrets = defaultSecrets
}

// Bytes hashes b with seed 0.
func Bytes(b []byte) uint64 {
	return WyHash(b, 0, &DefaultSecrets)
}

// String hashes the bytes of s with seed 0.
func String(s string) uint64 {
	return WyHash(unsafe.Slice(unsafe.StringData(s), len(s)), 0, &DefaultSecrets)
}

// Value hashes the in-memory representation of v. T must be a fixed-size,
// pointer-free type without padding; anything else hashes addresses or
// uninitialised padding bytes.
func Value[T any](v T) uint64 {
	return WyHash(raw(&v), 0, &DefaultSecrets)
}

// XXValue is Value backed by xxhash instead of wyhash.
func XXValue[T any](v T) uint64 {
	return xxhash.Sum64(raw(&v))
}

func raw[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// WyHash is the wyhash mix over key. Reads are big-endian, so digests of
// the same bytes match across platforms.
func WyHash(key []byte, seed uint64, secret *[4]uint64) uint64 {
	n := uint64(len(key))
	seed ^= wyMix(seed^secret[0], secret[1])

	var a, b uint64
	if n <= 16 {
		if n >= 4 {
			q := (n >> 3) << 2
			a = wyR4(key)<<32 | wyR4(key[q:])
			b = wyR4(key[n-4:])<<32 | wyR4(key[n-4-q:])
		} else if n > 0 {
			a = wyR3(key, n)
		}
	} else {
		off := uint64(0)
		i := n
		if i > 48 {
			see1, see2 := seed, seed
			for i > 48 {
				seed = wyMix(wyR8(key[off:])^secret[1], wyR8(key[off+8:])^seed)
				see1 = wyMix(wyR8(key[off+16:])^secret[2], wyR8(key[off+24:])^see1)
				see2 = wyMix(wyR8(key[off+32:])^secret[3], wyR8(key[off+40:])^see2)
				off += 48
				i -= 48
			}
			seed ^= see1 ^ see2
		}
		for i > 16 {
			seed = wyMix(wyR8(key[off:])^secret[1], wyR8(key[off+8:])^seed)
			off += 16
			i -= 16
		}
		// the final 16 bytes may overlap the ones already consumed
		a = wyR8(key[off+i-16:])
		b = wyR8(key[off+i-8:])
	}

	a ^= secret[1]
	b ^= seed
	a, b = wyMum(a, b)
	return wyMix(a^secret[0]^n, b^secret[1])
}

func wyMum(a, b uint64) (uint64, uint64) {
	hi, lo := bits.Mul64(a, b)
	return a ^ lo, b ^ hi
}

func wyMix(a, b uint64) uint64 {
	a, b = wyMum(a, b)
	return a ^ b
}

func wyR8(p []byte) uint64 { return binary.BigEndian.Uint64(p) }

func wyR4(p []byte) uint64 { return uint64(binary.BigEndian.Uint32(p)) }

func wyR3(p []byte, k uint64) uint64 {
	return uint64(p[0])<<16 | uint64(p[k>>1])<<8 | uint64(p[k-1])
}
