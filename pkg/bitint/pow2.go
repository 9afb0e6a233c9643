/*
Package bitint provides power-of-two helpers for FFT and buffer sizing.

Design principles:
- Zero allocations, stack memory only
- O(1) constant time operations
- Real-time safe: no locks, syscalls, or blocking operations
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Exact powers of 2
// are preserved; zero and negative inputs return 1.
//
// The (size-1) subtraction keeps exact powers of 2 from doubling:
// bits.Len of 7 is 3 so 8 stays 8, while bits.Len of 8 would give 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}

	// 64-bit platforms (where int is 64-bit)
	if ^uint(0)>>63 == 0 {
		return int(1 << (bits.Len64(uint64(size - 1))))
	}

	// 32-bit platforms
	return int(1 << (bits.Len32(uint32(size - 1))))
}

// IsPowerOfTwo checks if n is a power of 2. Powers of 2 have exactly one
// bit set, so n&(n-1) is zero only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
