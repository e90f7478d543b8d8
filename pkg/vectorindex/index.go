// Package vectorindex provides a flat in-memory nearest-neighbor index over
// dense float32 vectors under squared Euclidean distance.
//
// The index is brute-force on purpose: the corpus is a few dozen records and
// lives entirely in memory, so a scan beats any approximate structure. No
// normalization is applied to the vectors, which makes the metric sensitive
// to vector magnitude.
package vectorindex

import (
	"sort"

	"github.com/m-mizutani/goerr/v2"

	"staffrag/pkg/model"
)

// Hit is a single search result: a document position and its squared
// Euclidean distance to the query. Lower distance means higher similarity.
type Hit struct {
	Index    int
	Distance float32
}

// Index holds one vector per document, addressed by document position.
// After Build it is read-only and safe for concurrent searches.
type Index struct {
	dimension int
	vectors   [][]float32
}

// New creates an empty index. Search fails with model.ErrIndexNotBuilt until
// Build has been called with at least one vector.
func New() *Index {
	return &Index{}
}

// Build consumes the full corpus embedding batch. All vectors must share the
// same dimension; the index is built for exactly that dimension. Build
// replaces any previously built state.
func (x *Index) Build(vectors [][]float32) error {
	if len(vectors) == 0 {
		x.dimension = 0
		x.vectors = nil
		return nil
	}

	dim := len(vectors[0])
	if dim == 0 {
		return goerr.New("empty embedding vector", goerr.V("index", 0))
	}
	for i, v := range vectors {
		if len(v) != dim {
			return goerr.New("embedding dimension mismatch",
				goerr.V("index", i),
				goerr.V("expected", dim),
				goerr.V("actual", len(v)))
		}
	}

	x.dimension = dim
	x.vectors = vectors
	return nil
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	return len(x.vectors)
}

// Dimension returns the vector dimension the index was built for, or 0 if
// the index is empty.
func (x *Index) Dimension() int {
	return x.dimension
}

// Search returns up to min(k, Len()) hits sorted by ascending distance,
// nearest first. Ties are broken by ascending document index so results are
// deterministic. Requesting more neighbors than exist is not an error.
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(x.vectors) == 0 {
		return nil, goerr.New("vector index is not built", goerr.T(model.ErrIndexNotBuilt))
	}
	if len(query) != x.dimension {
		return nil, goerr.New("query dimension mismatch",
			goerr.V("expected", x.dimension),
			goerr.V("actual", len(query)))
	}
	if k <= 0 {
		return nil, nil
	}
	if k > len(x.vectors) {
		k = len(x.vectors)
	}

	hits := make([]Hit, len(x.vectors))
	for i, v := range x.vectors {
		hits[i] = Hit{Index: i, Distance: squaredL2(query, v)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Index < hits[j].Index
	})

	return hits[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
