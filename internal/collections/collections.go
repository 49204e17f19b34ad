// Package collections holds small generic helpers shared across engines.
package collections

import "github.com/Gobusters/ectolinq"

// Chunk splits items into consecutive slices of at most size elements each,
// the batching shape the classification CLI uses to run a large --max-items
// request as several bounded engine.Run calls instead of one.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || ectolinq.IsEmpty(items) {
		return nil
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
