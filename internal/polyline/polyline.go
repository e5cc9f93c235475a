// Package polyline implements Google's Encoded Polyline Algorithm Format.
//
// Each coordinate is scaled by 10^precision (5 by default), rounded, and
// stored as the delta from the previous coordinate. Deltas are zig-zag
// encoded and emitted as 5-bit groups, low bits first, with 0x20 marking
// continuation and 63 added to land in printable ASCII.
//
// Decoding is strict: a string that stops in the middle of a value, or that
// carries a latitude with no matching longitude, is rejected rather than
// silently truncated.
package polyline

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pkordes/stridelog/internal/geo"
)

// DefaultPrecision is the number of decimal places used by Google Maps and
// Strava summary polylines.
const DefaultPrecision = 5

const (
	asciiOffset  = 63
	chunkMask    = 0x1f
	continuation = 0x20
	maxShift     = 60
)

var (
	// ErrTruncated is returned when the input ends before a complete
	// latitude/longitude pair has been read.
	ErrTruncated = errors.New("polyline truncated")

	// ErrInvalidChar is returned for bytes outside the encoding alphabet
	// ('?' through '~').
	ErrInvalidChar = errors.New("polyline contains invalid character")

	// ErrOverflow is returned when a single value needs more than 64 bits.
	ErrOverflow = errors.New("polyline value overflows int64")

	// ErrPrecision is returned for precisions outside 1..8.
	ErrPrecision = errors.New("polyline precision out of range")
)

// DecodeError records where decoding failed.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode encodes points at DefaultPrecision. An empty slice encodes to "".
func Encode(points []geo.Point) string {
	s, _ := EncodeWithPrecision(points, DefaultPrecision)
	return s
}

// Decode decodes s at DefaultPrecision. The empty string decodes to an
// empty, non-nil slice.
func Decode(s string) ([]geo.Point, error) {
	return DecodeWithPrecision(s, DefaultPrecision)
}

// EncodeWithPrecision encodes points using 10^precision as the scale factor.
func EncodeWithPrecision(points []geo.Point, precision int) (string, error) {
	factor, err := scaleFactor(precision)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(points) * 8)

	var prevLat, prevLng int64
	for _, p := range points {
		lat := round(p.Lat * factor)
		lng := round(p.Lng * factor)

		writeValue(&b, lat-prevLat)
		writeValue(&b, lng-prevLng)

		prevLat, prevLng = lat, lng
	}
	return b.String(), nil
}

// DecodeWithPrecision decodes s using 10^precision as the scale factor.
func DecodeWithPrecision(s string, precision int) ([]geo.Point, error) {
	factor, err := scaleFactor(precision)
	if err != nil {
		return nil, err
	}

	points := make([]geo.Point, 0, len(s)/4)
	var lat, lng int64
	i := 0
	for i < len(s) {
		dLat, next, err := readValue(s, i)
		if err != nil {
			return nil, err
		}
		if next == len(s) {
			return nil, &DecodeError{Offset: next, Err: ErrTruncated}
		}
		dLng, next, err := readValue(s, next)
		if err != nil {
			return nil, err
		}
		i = next

		lat += dLat
		lng += dLng
		points = append(points, geo.Point{
			Lat: float64(lat) / factor,
			Lng: float64(lng) / factor,
		})
	}
	return points, nil
}

// writeValue appends the zig-zag, 5-bit-chunked form of n.
func writeValue(b *strings.Builder, n int64) {
	v := uint64(n) << 1
	if n < 0 {
		v = ^v
	}
	for v >= continuation {
		b.WriteByte(byte((continuation | (v & chunkMask)) + asciiOffset))
		v >>= 5
	}
	b.WriteByte(byte(v + asciiOffset))
}

// readValue reads one signed value starting at offset i and returns it with
// the offset of the next unread byte.
func readValue(s string, i int) (int64, int, error) {
	var result uint64
	shift := 0
	for {
		if i >= len(s) {
			return 0, i, &DecodeError{Offset: i, Err: ErrTruncated}
		}
		c := s[i]
		if c < asciiOffset || c > '~' {
			return 0, i, &DecodeError{Offset: i, Err: ErrInvalidChar}
		}
		chunk := uint64(c - asciiOffset)
		// The chunk at maxShift has only 4 bits of room left.
		if shift > maxShift || (shift == maxShift && chunk&chunkMask > 0x0f) {
			return 0, i, &DecodeError{Offset: i, Err: ErrOverflow}
		}
		i++
		result |= (chunk & chunkMask) << shift
		shift += 5
		if chunk < continuation {
			break
		}
	}

	if result&1 != 0 {
		return int64(^(result >> 1)), i, nil
	}
	return int64(result >> 1), i, nil
}

func scaleFactor(precision int) (float64, error) {
	if precision < 1 || precision > 8 {
		return 0, fmt.Errorf("%w: %d", ErrPrecision, precision)
	}
	return math.Pow10(precision), nil
}

// round rounds half up, like JavaScript's Math.round.
func round(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
