// Package model defines core types used throughout blockselect.
//
// # Candidate Types
//
//   - Pair: a (key, value) candidate; the key is ranked, the value is opaque
//   - Direction: whether the k smallest or the k largest keys win
//   - Order: a caller comparator bound to a Direction
//
// # Producers
//
//   - Source: indexed candidate producer for one row
//   - RowSource: indexed candidate producer for a batch of rows
//
// Sources are called lazily by the engine, so a candidate list never has to
// be materialized by the caller:
//
//	src := model.Source[float32, int64](func(i int) (float32, int64) {
//	    return distance.SquaredL2(query, base[i]), int64(i)
//	})
package model
