// Package vector holds the portable encodings used to persist embeddings.
//
// The binary form is a little-endian float32 array. The text form maps every
// byte of the binary form to the code point of the same value (latin-1), so
// the vector round-trips through stores that only accept valid UTF-8.
package vector

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

var ErrDimensionMismatch = errors.New("vector dimensions differ")

// Serialize converts a float32 slice to a LittleEndian byte slice.
func Serialize(vec []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(len(vec) * 4)
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("failed to serialize vector: %w", err)
	}
	return buf.Bytes(), nil
}

func Deserialize(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

// EncodeLatin1 returns the text form of vec.
func EncodeLatin1(vec []float32) (string, error) {
	raw, err := Serialize(vec)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Grow(len(raw) * 2)
	for _, b := range raw {
		sb.WriteRune(rune(b))
	}
	return sb.String(), nil
}

// DecodeLatin1 reverses EncodeLatin1.
func DecodeLatin1(s string) ([]float32, error) {
	raw := make([]byte, 0, utf8.RuneCountInString(s))
	for i, r := range s {
		if r == utf8.RuneError || r > 0xFF {
			return nil, fmt.Errorf("invalid code point %U at offset %d", r, i)
		}
		raw = append(raw, byte(r))
	}
	return Deserialize(raw)
}

// Dot is the raw inner product. Vectors are not normalized.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}

// Normalize scales vec to unit length in place. Zero vectors are left as is.
func Normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
