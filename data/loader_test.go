package data

import (
	"slices"
	"testing"

	"go.viam.com/test"
)

func TestSliceLoader(t *testing.T) {
	loader := NewSliceLoader([]string{"a", "b", "c"})
	test.That(t, loader.Len(), test.ShouldEqual, 3)
	test.That(t, slices.Collect(loader.All()), test.ShouldResemble, []string{"a", "b", "c"})

	// early exit stops the iteration
	var seen []string
	for s := range loader.All() {
		seen = append(seen, s)
		if s == "b" {
			break
		}
	}
	test.That(t, seen, test.ShouldResemble, []string{"a", "b"})

	test.That(t, NumItems(loader), test.ShouldEqual, 3)

	empty := NewSliceLoader[int](nil)
	test.That(t, empty.Len(), test.ShouldEqual, 0)
	test.That(t, slices.Collect(empty.All()), test.ShouldBeEmpty)
}

func TestBatchLoader(t *testing.T) {
	loader, err := NewBatchLoader([]int{1, 2, 3, 4, 5}, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loader.Len(), test.ShouldEqual, 3)
	test.That(t, NumItems(loader), test.ShouldEqual, 5)
	test.That(t, slices.Collect(loader.All()), test.ShouldResemble, [][]int{{1, 2}, {3, 4}, {5}})

	loader, err = NewBatchLoader([]int{1, 2, 3, 4}, 4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loader.Len(), test.ShouldEqual, 1)

	loader, err = NewBatchLoader([]int{}, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loader.Len(), test.ShouldEqual, 0)

	_, err = NewBatchLoader([]int{1}, 0)
	test.That(t, err.Error(), test.ShouldContainSubstring, "batch size must be positive")
}
