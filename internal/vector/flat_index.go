package vector

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// flatIndexMagic identifies the binary index format on disk.
const flatIndexMagic = uint32(0x464c5831) // "FLX1"

// FlatIndex is an exact nearest-neighbor index over fixed-dimension float32
// vectors using squared Euclidean distance. Rows are assigned sequentially
// in insertion order; there is no in-place delete — removing a row means
// building a fresh index from the surviving vectors.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// Match is a single search hit: the index row and its squared L2 distance
// from the query.
type Match struct {
	Row      int
	Distance float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("invalid index dimension %d", dim)}
	}
	return &FlatIndex{dim: dim}, nil
}

// Dimensions returns the fixed vector dimension of the index.
func (idx *FlatIndex) Dimensions() int {
	return idx.dim
}

// Count returns the number of vectors currently held.
func (idx *FlatIndex) Count() int {
	return len(idx.vectors)
}

// Add appends a vector and returns its assigned row, which equals the
// count before the add.
func (idx *FlatIndex) Add(v []float32) (int, error) {
	if len(v) != idx.dim {
		return 0, &ConfigError{Reason: fmt.Sprintf("vector dimension %d does not match index dimension %d", len(v), idx.dim)}
	}
	row := len(idx.vectors)
	stored := make([]float32, idx.dim)
	copy(stored, v)
	idx.vectors = append(idx.vectors, stored)
	return row, nil
}

// Vector returns the stored vector at the given row. The returned slice is
// the internal storage and must not be mutated.
func (idx *FlatIndex) Vector(row int) ([]float32, error) {
	if row < 0 || row >= len(idx.vectors) {
		return nil, ErrNotFound
	}
	return idx.vectors[row], nil
}

// Search returns up to min(k, Count()) matches ordered by ascending
// distance, ties broken by lower row. An empty index yields an empty slice.
func (idx *FlatIndex) Search(query []float32, k int) ([]Match, error) {
	if len(query) != idx.dim {
		return nil, &ConfigError{Reason: fmt.Sprintf("query dimension %d does not match index dimension %d", len(query), idx.dim)}
	}
	if k <= 0 || len(idx.vectors) == 0 {
		return []Match{}, nil
	}

	matches := make([]Match, len(idx.vectors))
	for row, v := range idx.vectors {
		matches[row] = Match{Row: row, Distance: squaredL2(query, v)}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Row < matches[j].Row
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// WriteTo serializes the index as magic, dimension, count, then row-major
// float32 data, all little-endian.
func (idx *FlatIndex) WriteTo(w io.Writer) error {
	header := []uint32{flatIndexMagic, uint32(idx.dim), uint32(len(idx.vectors))}
	for _, h := range header {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return err
		}
	}
	for _, v := range idx.vectors {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadFlatIndex deserializes an index written by WriteTo. The result is
// structurally identical to the source: same vectors in the same row order.
func ReadFlatIndex(r io.Reader) (*FlatIndex, error) {
	var magic, dim, count uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read index header: %w", err)
	}
	if magic != flatIndexMagic {
		return nil, fmt.Errorf("unrecognized index file magic 0x%08x", magic)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("failed to read index dimension: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read index count: %w", err)
	}

	idx, err := NewFlatIndex(int(dim))
	if err != nil {
		return nil, err
	}
	idx.vectors = make([][]float32, 0, count)
	for i := uint32(0); i < count; i++ {
		v := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, fmt.Errorf("failed to read vector row %d: %w", i, err)
		}
		idx.vectors = append(idx.vectors, v)
	}
	return idx, nil
}
