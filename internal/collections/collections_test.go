package collections_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kylenessen/monarch-phenology-go/internal/collections"
)

func TestChunk_SplitsIntoEvenGroups(t *testing.T) {
	chunks := collections.Chunk([]int{1, 2, 3, 4, 5, 6}, 2)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5, 6}}, chunks)
}

func TestChunk_LastGroupIsPartial(t *testing.T) {
	chunks := collections.Chunk([]int{1, 2, 3, 4, 5}, 2)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunks)
}

func TestChunk_EmptyInputReturnsNil(t *testing.T) {
	assert.Nil(t, collections.Chunk[int](nil, 3))
}

func TestChunk_NonPositiveSizeReturnsNil(t *testing.T) {
	assert.Nil(t, collections.Chunk([]int{1, 2, 3}, 0))
}
