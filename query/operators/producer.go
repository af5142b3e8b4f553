package operators

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Producer defers a bitmap computation to evaluation time, e.g. an
// insertion-index search. The produced bitmap is owned by the result.
type Producer struct {
	description string
	produce     func() *roaring.Bitmap
}

// NewProducer creates a deferred bitmap operator.
func NewProducer(description string, produce func() *roaring.Bitmap) *Producer {
	return &Producer{description: description, produce: produce}
}

func (o *Producer) Evaluate() Result { return Owned(o.produce()) }

func (o *Producer) String() string {
	return fmt.Sprintf("Producer(%s)", o.description)
}
