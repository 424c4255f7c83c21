// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-2 helpers used to size PortAudio
buffers for tone playback and microphone capture.

Usage:

	// Round a requested buffer size up to the next power of 2
	frames := bitint.NextPowerOfTwo(1000) // Returns 1024

	// Validate a configured buffer size
	ok := bitint.IsPowerOfTwo(frames)

NextPowerOfTwo subtracts 1 before taking the bit length so that inputs
which already are a power of 2 are preserved instead of doubled:

	size = 8, size-1 = 7 (0111), bits.Len(7) = 3, 1 << 3 = 8
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
//
// Examples:
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of 2 have
// exactly one bit set, so n&(n-1) clears it to zero.
//
// Examples:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// ClampPowerOfTwo rounds size up to a power of 2 and limits it to
// [1, max]. max itself is expected to be a power of 2.
func ClampPowerOfTwo(size, max int) int {
	p := NextPowerOfTwo(size)
	if p > max {
		return max
	}
	return p
}
