package keys

import (
	"cmp"
	"math"

	"github.com/hupe1980/blockselect/model"
	"github.com/x448/float16"
)

// Traits describes a key type.
//
// Lowest and Highest double as sentinels. A candidate whose key equals the
// sentinel of the selection direction never beats the initial threshold, so
// it is not admitted and its value does not appear in results.
type Traits[K any] struct {
	// Compare orders keys ascending.
	Compare model.Compare[K]
	// Lowest is a key that no real key ranks below.
	Lowest K
	// Highest is a key that no real key ranks above.
	Highest K
}

// Sentinel returns the key that fills unfilled slots for the given direction.
func (t Traits[K]) Sentinel(dir model.Direction) K {
	if dir == model.Largest {
		return t.Lowest
	}
	return t.Highest
}

// Order returns the Order for dir.
func (t Traits[K]) Order(dir model.Direction) model.Order[K] {
	return model.NewOrder(t.Compare, dir)
}

// Ordered returns traits for any cmp.Ordered key with explicit bounds.
func Ordered[K cmp.Ordered](lowest, highest K) Traits[K] {
	return Traits[K]{
		Compare: cmp.Compare[K],
		Lowest:  lowest,
		Highest: highest,
	}
}

// Float32 returns traits for float32 keys with ±Inf sentinels.
func Float32() Traits[float32] {
	return Ordered(float32(math.Inf(-1)), float32(math.Inf(1)))
}

// Float64 returns traits for float64 keys with ±Inf sentinels.
func Float64() Traits[float64] {
	return Ordered(math.Inf(-1), math.Inf(1))
}

// Int returns traits for int keys.
func Int() Traits[int] {
	return Ordered(math.MinInt, math.MaxInt)
}

// Int32 returns traits for int32 keys.
func Int32() Traits[int32] {
	return Ordered[int32](math.MinInt32, math.MaxInt32)
}

// Int64 returns traits for int64 keys.
func Int64() Traits[int64] {
	return Ordered[int64](math.MinInt64, math.MaxInt64)
}

// Uint32 returns traits for uint32 keys.
func Uint32() Traits[uint32] {
	return Ordered[uint32](0, math.MaxUint32)
}

// Uint64 returns traits for uint64 keys.
func Uint64() Traits[uint64] {
	return Ordered[uint64](0, math.MaxUint64)
}

// Float16 returns traits for half-precision keys with ±Inf sentinels.
func Float16() Traits[float16.Float16] {
	return Traits[float16.Float16]{
		Compare: func(a, b float16.Float16) int {
			return cmp.Compare(a.Float32(), b.Float32())
		},
		Lowest:  float16.Inf(-1),
		Highest: float16.Inf(1),
	}
}
