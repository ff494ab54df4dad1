package memory

import (
	"sort"

	"github.com/sandevgo/motherbrain/internal/core"
	"github.com/sandevgo/motherbrain/pkg/vector"
)

type Scored struct {
	Memory core.Memory
	Score  float64
}

// Rank scores candidates by raw dot product with query and returns the top
// limit, highest first. Equal scores keep candidate order. Candidates whose
// embedding length differs from the query are skipped.
func Rank(query []float32, candidates []core.Memory, limit int) []Scored {
	if limit <= 0 || len(candidates) == 0 {
		return []Scored{}
	}

	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		s, err := vector.Dot(query, c.Embedding)
		if err != nil {
			continue
		}
		scored = append(scored, Scored{Memory: c, Score: s})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
