package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/sandevgo/motherbrain/pkg/vector"
)

// Hash is an offline encoder that folds lowercased words into a fixed number
// of signed buckets. Texts sharing words end up with a positive dot product,
// which is enough for local runs and tests without an embeddings endpoint.
type Hash struct {
	dims int
}

func NewHash(dims int) *Hash {
	return &Hash{dims: dims}
}

func (h *Hash) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, h.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		f := fnv.New64a()
		_, _ = f.Write([]byte(w))
		sum := f.Sum64()

		sign := float32(1)
		if sum>>63 == 1 {
			sign = -1
		}
		vec[sum%uint64(h.dims)] += sign
	}
	return vector.Normalize(vec), nil
}

func (h *Hash) Dims() int {
	return h.dims
}
