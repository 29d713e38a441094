// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import (
	"io"
	"math"
)

// MaxUint32Size is the largest length addressable by the 32-bit offset and
// size fields used throughout cache files and resource maps.
const MaxUint32Size = math.MaxUint32

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// MulUint64 multiplies two uint64 values, returning (result, false) on overflow.
func MulUint64(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	product := a * b
	if product/b != a {
		return 0, false
	}
	return product, true
}

// InBounds reports whether [offset, offset+size) lies within a buffer of
// length n. Overflowing ranges are never in bounds.
func InBounds(offset, size uint64, n int) bool {
	end, ok := AddUint64(offset, size)
	if !ok {
		return false
	}
	return end <= uint64(n) //nolint:gosec // len is always non-negative
}

// ReadAllWithLimit reads up to maxSize bytes from r.
// Returns overflowErr if more than maxSize bytes are available.
func ReadAllWithLimit(r io.Reader, maxSize uint64, overflowErr error) ([]byte, error) {
	if maxSize > uint64(math.MaxInt-1) {
		return nil, overflowErr
	}
	limit := int64(maxSize) + 1 //nolint:gosec // checked above
	lr := &io.LimitedReader{R: r, N: limit}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) > maxSize { //nolint:gosec // len is always non-negative
		return nil, overflowErr
	}
	return data, nil
}
