// Package dataset reads and writes vector files in the .fvecs format.
//
// Each record is a little-endian int32 dimension followed by that many
// little-endian float32 values. Files ending in .zst, .lz4 or .gz are
// compressed and decompressed transparently:
//
//	base.fvecs       plain
//	base.fvecs.zst   zstd
//	base.fvecs.lz4   lz4 frame
//	base.fvecs.gz    gzip
package dataset
