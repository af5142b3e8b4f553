// Package operators implements the bitmap operator algebra the filter
// compiler targets. Every operator evaluates to a Roaring bitmap over the
// partition's local id space [0, sequenceCount).
//
// Results carry an ownership flag: IndexScan hands out borrowed references
// aliasing the store, which must never be mutated; Complement, Union and
// Intersection produce owned bitmaps their single consumer may mutate in
// place.
package operators

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Result is an evaluated bitmap with ownership information.
type Result struct {
	bitmap  *roaring.Bitmap
	mutable bool
}

// Borrowed wraps a shared read-only bitmap aliasing the store.
func Borrowed(b *roaring.Bitmap) Result {
	return Result{bitmap: b}
}

// Owned wraps a freshly allocated bitmap the consumer may mutate.
func Owned(b *roaring.Bitmap) Result {
	return Result{bitmap: b, mutable: true}
}

// Bitmap returns the underlying bitmap. Callers must not mutate it unless
// IsMutable reports true.
func (r Result) Bitmap() *roaring.Bitmap { return r.bitmap }

// IsMutable reports whether the consumer owns the bitmap.
func (r Result) IsMutable() bool { return r.mutable }

// Cardinality returns the number of ids in the result.
func (r Result) Cardinality() uint64 { return r.bitmap.GetCardinality() }

// ToOwned returns a mutable bitmap, cloning when the result is borrowed.
func (r Result) ToOwned() *roaring.Bitmap {
	if r.mutable {
		return r.bitmap
	}
	return r.bitmap.Clone()
}
