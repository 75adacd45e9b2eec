package buffered_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smart-fm/simkernel/buffered"
)

func TestCellGetSetFlip(t *testing.T) {
	c := buffered.NewCell(1.0)
	assert.Equal(t, 1.0, c.Get())

	c.Set(2.0)
	// Not visible until flipped.
	assert.Equal(t, 1.0, c.Get())

	buffered.SubscriptionList{cellFlipper(c)}.Flip()
	assert.Equal(t, 2.0, c.Get())
}

func TestFlipIdempotentWithoutInterveningWrite(t *testing.T) {
	c := buffered.NewCell(5)
	c.Set(9)
	list := buffered.SubscriptionList{cellFlipper(c)}
	list.Flip()
	assert.Equal(t, 9, c.Get())
	// A second flip with no interleaving Set must not change the value.
	list.Flip()
	assert.Equal(t, 9, c.Get())
}

func TestDiffFindsAddedCells(t *testing.T) {
	a := buffered.NewCell(1)
	b := buffered.NewCell(2)
	c := buffered.NewCell(3)
	prev := buffered.SubscriptionList{cellFlipper(a), cellFlipper(b)}
	next := buffered.SubscriptionList{cellFlipper(a), cellFlipper(b), cellFlipper(c)}
	added := buffered.Diff(prev, next)
	assert.Len(t, added, 1)
}

// cellFlipper upcasts a *Cell to buffered.Flippable; Cell already
// implements it via its unexported flip(), so this is a plain identity
// conversion usable from outside the package.
func cellFlipper[T any](c *buffered.Cell[T]) buffered.Flippable {
	return c
}
