package dataset

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionFor(t *testing.T) {
	tests := map[string]Compression{
		"base.fvecs":      CompressionNone,
		"base.fvecs.zst":  CompressionZstd,
		"base.fvecs.ZSTD": CompressionZstd,
		"base.fvecs.lz4":  CompressionLZ4,
		"base.fvecs.gz":   CompressionGzip,
		"noext":           CompressionNone,
	}
	for path, want := range tests {
		assert.Equal(t, want, CompressionFor(path), path)
	}
	assert.Equal(t, "zstd", CompressionZstd.String())
	assert.Equal(t, "Unknown(9)", Compression(9).String())
}

func TestReadWrite(t *testing.T) {
	vectors := [][]float32{{1, 2, 3}, {-1.5, 0, 4.25}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, vectors))
	assert.Equal(t, 2*(4+3*4), buf.Len())

	got, err := Read(bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)
	assert.Equal(t, vectors, got)

	got, err = Read(bytes.NewReader(buf.Bytes()), 1)
	require.NoError(t, err)
	assert.Equal(t, vectors[:1], got)
}

func TestRead_Empty(t *testing.T) {
	got, err := Read(bytes.NewReader(nil), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRead_Errors(t *testing.T) {
	t.Run("mixed dimensions", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, [][]float32{{1, 2}}))
		require.NoError(t, Write(&buf, [][]float32{{1, 2, 3}}))
		_, err := Read(&buf, 0)
		assert.ErrorIs(t, err, ErrMixedDimensions)
	})

	t.Run("invalid dimension", func(t *testing.T) {
		var buf bytes.Buffer
		neg := int32(-4)
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, neg))
		_, err := Read(&buf, 0)
		assert.ErrorIs(t, err, ErrInvalidDimension)
	})

	t.Run("truncated", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, [][]float32{{1, 2, 3}}))
		_, err := Read(bytes.NewReader(buf.Bytes()[:buf.Len()-2]), 0)
		assert.Error(t, err)
	})
}

func TestWrite_EmptyVector(t *testing.T) {
	err := Write(&bytes.Buffer{}, [][]float32{{}})
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestFileRoundTrip(t *testing.T) {
	vectors := NewGenerator(1).Uniform(50, 8)
	dir := t.TempDir()

	for _, name := range []string{"v.fvecs", "v.fvecs.zst", "v.fvecs.lz4", "v.fvecs.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, vectors))

			got, err := ReadFile(path, 0)
			require.NoError(t, err)
			assert.Equal(t, vectors, got)
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.fvecs"), 0)
	assert.Error(t, err)
}

func TestGenerator(t *testing.T) {
	a := NewGenerator(7).Uniform(10, 4)
	b := NewGenerator(7).Uniform(10, 4)
	assert.Equal(t, a, b)
	for _, v := range a {
		require.Len(t, v, 4)
		for _, x := range v {
			assert.GreaterOrEqual(t, x, float32(0))
			assert.Less(t, x, float32(1))
		}
	}

	n := NewGenerator(7).Normal(3, 5)
	require.Len(t, n, 3)
	assert.Len(t, n[0], 5)
	assert.NotEqual(t, a, NewGenerator(8).Uniform(10, 4))
}
