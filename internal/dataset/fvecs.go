package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// MaxDimension bounds the dimension accepted in a record header.
const MaxDimension = 1 << 16

var (
	// ErrInvalidDimension is returned for a record with a non-positive or
	// oversized dimension.
	ErrInvalidDimension = errors.New("invalid vector dimension")
	// ErrMixedDimensions is returned when records disagree on the dimension.
	ErrMixedDimensions = errors.New("mixed vector dimensions")
)

// Read decodes all .fvecs records from r. limit > 0 stops after limit vectors.
func Read(r io.Reader, limit int) ([][]float32, error) {
	br := bufio.NewReaderSize(r, 1<<16)

	var (
		out  [][]float32
		dim  int
		head [4]byte
	)
	for limit <= 0 || len(out) < limit {
		if _, err := io.ReadFull(br, head[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("record %d: %w", len(out), err)
		}

		d := int(int32(binary.LittleEndian.Uint32(head[:])))
		if d <= 0 || d > MaxDimension {
			return nil, fmt.Errorf("record %d: %w: %d", len(out), ErrInvalidDimension, d)
		}
		if dim == 0 {
			dim = d
		} else if d != dim {
			return nil, fmt.Errorf("record %d: %w: %d != %d", len(out), ErrMixedDimensions, d, dim)
		}

		buf := make([]byte, 4*d)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out), err)
		}
		v := make([]float32, d)
		for i := range v {
			v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
		}
		out = append(out, v)
	}
	return out, nil
}

// Write encodes vectors as .fvecs records.
func Write(w io.Writer, vectors [][]float32) error {
	bw := bufio.NewWriterSize(w, 1<<16)
	var buf []byte
	for i, v := range vectors {
		if len(v) == 0 || len(v) > MaxDimension {
			return fmt.Errorf("record %d: %w: %d", i, ErrInvalidDimension, len(v))
		}
		buf = binary.LittleEndian.AppendUint32(buf[:0], uint32(len(v)))
		for _, x := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFile reads an .fvecs file, decompressing by extension.
func ReadFile(path string, limit int) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := NewReader(f, CompressionFor(path))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	vectors, err := Read(r, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vectors, nil
}

// WriteFile writes an .fvecs file, compressing by extension.
func WriteFile(path string, vectors [][]float32) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w, err := NewWriter(f, CompressionFor(path))
	if err != nil {
		return err
	}
	if err := Write(w, vectors); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
