package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginator(t *testing.T) {
	t.Parallel()

	t.Run("Defaults", func(t *testing.T) {
		pg := NewPaginator(0, 0)
		assert.Equal(t, defaultLimit, pg.Limit())
		assert.Equal(t, 0, pg.Offset())
	})

	t.Run("ClampsLimit", func(t *testing.T) {
		pg := NewPaginator(10000, 0)
		assert.Equal(t, maxLimit, pg.Limit())
	})

	t.Run("NegativeOffset", func(t *testing.T) {
		pg := NewPaginator(10, -5)
		assert.Equal(t, 0, pg.Offset())
	})

	t.Run("NegativeLimit", func(t *testing.T) {
		pg := NewPaginator(-1, 0)
		assert.Equal(t, defaultLimit, pg.Limit())
	})
}

func TestNewPaginatedResult(t *testing.T) {
	t.Parallel()

	t.Run("NilItems", func(t *testing.T) {
		result := NewPaginatedResult[string](nil, 0, NewPaginator(10, 0))
		assert.NotNil(t, result.Items)
		assert.Empty(t, result.Items)
		assert.Equal(t, 0, result.TotalCount)
	})

	t.Run("UninitializedPaginator", func(t *testing.T) {
		result := NewPaginatedResult([]string{"a"}, 1, Paginator{})
		assert.Equal(t, defaultLimit, result.Limit)
	})

	t.Run("TotalIndependentOfPage", func(t *testing.T) {
		result := NewPaginatedResult([]string{"a", "b"}, 42, NewPaginator(2, 4))
		assert.Equal(t, 42, result.TotalCount)
		assert.Equal(t, 4, result.Offset)
		assert.Len(t, result.Items, 2)
	})
}
