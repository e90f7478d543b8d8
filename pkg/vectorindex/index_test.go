package vectorindex_test

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"staffrag/pkg/model"
	"staffrag/pkg/vectorindex"
)

func TestSearch(t *testing.T) {
	idx := vectorindex.New()
	gt.NoError(t, idx.Build([][]float32{
		{0, 0},
		{1, 0},
		{0, 2},
		{3, 3},
	}))

	t.Run("sorted by ascending distance", func(t *testing.T) {
		hits, err := idx.Search([]float32{0, 0}, 4)
		gt.NoError(t, err)
		gt.A(t, hits).Length(4)

		gt.V(t, hits[0].Index).Equal(0)
		gt.V(t, hits[1].Index).Equal(1)
		gt.V(t, hits[2].Index).Equal(2)
		gt.V(t, hits[3].Index).Equal(3)
		for i := 1; i < len(hits); i++ {
			gt.True(t, hits[i-1].Distance <= hits[i].Distance)
		}
	})

	t.Run("k clamped to index size", func(t *testing.T) {
		hits, err := idx.Search([]float32{0, 0}, 30)
		gt.NoError(t, err)
		gt.A(t, hits).Length(4)
	})

	t.Run("k smaller than index size", func(t *testing.T) {
		hits, err := idx.Search([]float32{1, 0}, 2)
		gt.NoError(t, err)
		gt.A(t, hits).Length(2)
		gt.V(t, hits[0].Index).Equal(1)
		gt.V(t, hits[0].Distance).Equal(0)
	})

	t.Run("non-positive k", func(t *testing.T) {
		hits, err := idx.Search([]float32{0, 0}, 0)
		gt.NoError(t, err)
		gt.A(t, hits).Length(0)
	})

	t.Run("query dimension mismatch", func(t *testing.T) {
		_, err := idx.Search([]float32{0, 0, 0}, 1)
		gt.Error(t, err)
	})
}

func TestSearchTieBreak(t *testing.T) {
	idx := vectorindex.New()
	// Documents 1 and 2 are equidistant from the query.
	gt.NoError(t, idx.Build([][]float32{
		{5, 5},
		{1, 0},
		{0, 1},
	}))

	hits, err := idx.Search([]float32{0, 0}, 3)
	gt.NoError(t, err)
	gt.A(t, hits).Length(3)
	gt.V(t, hits[0].Index).Equal(1)
	gt.V(t, hits[1].Index).Equal(2)
	gt.V(t, hits[0].Distance).Equal(hits[1].Distance)
	gt.V(t, hits[2].Index).Equal(0)
}

func TestSearchNotBuilt(t *testing.T) {
	t.Run("before build", func(t *testing.T) {
		idx := vectorindex.New()
		_, err := idx.Search([]float32{1, 2}, 3)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.ErrIndexNotBuilt))
	})

	t.Run("built with empty batch", func(t *testing.T) {
		idx := vectorindex.New()
		gt.NoError(t, idx.Build(nil))
		gt.V(t, idx.Len()).Equal(0)

		_, err := idx.Search([]float32{1, 2}, 3)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.ErrIndexNotBuilt))
	})
}

func TestBuild(t *testing.T) {
	t.Run("dimension recorded", func(t *testing.T) {
		idx := vectorindex.New()
		gt.NoError(t, idx.Build([][]float32{{1, 2, 3}}))
		gt.V(t, idx.Dimension()).Equal(3)
		gt.V(t, idx.Len()).Equal(1)
	})

	t.Run("mixed dimensions rejected", func(t *testing.T) {
		idx := vectorindex.New()
		err := idx.Build([][]float32{{1, 2}, {1, 2, 3}})
		gt.Error(t, err)
	})

	t.Run("zero-length vector rejected", func(t *testing.T) {
		idx := vectorindex.New()
		err := idx.Build([][]float32{{}})
		gt.Error(t, err)
	})
}
