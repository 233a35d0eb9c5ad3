// Package ranker orders documents for a search word by the word's frequency in
// each document's frequency store, using an in-place binary heap sort.
package ranker

// HeapSort sorts items in place into ascending order under less. It builds a
// max-heap in the slice (children of i at 2i+1 and 2i+2) and repeatedly swaps
// the root to the end of the shrinking heap. The sort is not stable.
func HeapSort[T any](items []T, less func(a, b T) bool) {
	n := len(items)
	for i := n/2 - 1; i >= 0; i-- {
		siftDown(items, i, n, less)
	}
	for end := n - 1; end > 0; end-- {
		items[0], items[end] = items[end], items[0]
		siftDown(items, 0, end, less)
	}
}

func siftDown[T any](items []T, root, n int, less func(a, b T) bool) {
	for {
		largest := root
		left, right := 2*root+1, 2*root+2
		if left < n && less(items[largest], items[left]) {
			largest = left
		}
		if right < n && less(items[largest], items[right]) {
			largest = right
		}
		if largest == root {
			return
		}
		items[root], items[largest] = items[largest], items[root]
		root = largest
	}
}
