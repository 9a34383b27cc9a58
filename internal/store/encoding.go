package store

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/listenupapp/tagcatalog/internal/normalize"
)

// Index values are compared bytewise by both engines. Numbers and times are
// encoded as fixed-width lowercase hex so that byte order equals numeric
// order.

var (
	minIndexTime = time.Unix(0, math.MinInt64)
	maxIndexTime = time.Unix(0, math.MaxInt64)
)

// EncodeString is the index value for an exact string index.
func EncodeString(s string) string {
	return normalize.IndexValue(s)
}

// EncodeFolded is the index value for a case-insensitive string index.
func EncodeFolded(s string) string {
	return normalize.IndexValue(normalize.Fold(s))
}

// EncodeNumber maps a float64 to a sortable 16-character hex string.
// Positive numbers get the sign bit set; negative numbers are inverted so
// that larger magnitudes sort first.
func EncodeNumber(f float64) string {
	if f == 0 {
		f = 0 // collapse -0 onto +0
	}
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	return fmt.Sprintf("%016x", bits)
}

// DecodeNumber reverses EncodeNumber.
func DecodeNumber(s string) (float64, error) {
	bits, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("decode number index value %q: %w", s, err)
	}
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits), nil
}

// EncodeTime maps a time to a sortable 16-character hex string of its
// UnixNano with the sign bit flipped. Times outside the int64 nanosecond
// range are clamped.
func EncodeTime(t time.Time) string {
	var n int64
	switch {
	case t.Before(minIndexTime):
		n = math.MinInt64
	case t.After(maxIndexTime):
		n = math.MaxInt64
	default:
		n = t.UnixNano()
	}
	return fmt.Sprintf("%016x", uint64(n)^(1<<63)) //nolint:gosec // Bit reinterpretation is the point
}

// DecodeTime reverses EncodeTime, returning a UTC time.
func DecodeTime(s string) (time.Time, error) {
	bits, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode time index value %q: %w", s, err)
	}
	return time.Unix(0, int64(bits^(1<<63))).UTC(), nil //nolint:gosec // Bit reinterpretation is the point
}
