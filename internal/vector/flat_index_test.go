package vector

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewFlatIndexDimension(t *testing.T) {
	testCases := []struct {
		name    string
		dim     int
		wantErr bool
	}{
		{name: "positive dimension", dim: 4, wantErr: false},
		{name: "zero dimension", dim: 0, wantErr: true},
		{name: "negative dimension", dim: -3, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			idx, err := NewFlatIndex(tc.dim)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for dimension %d", tc.dim)
				}
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("expected ConfigError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if idx.Dimensions() != tc.dim {
				t.Errorf("Dimensions() = %d, want %d", idx.Dimensions(), tc.dim)
			}
			if idx.Count() != 0 {
				t.Errorf("Count() = %d, want 0", idx.Count())
			}
		})
	}
}

func TestFlatIndexAdd(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}

	t.Run("rows assigned sequentially", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			row, err := idx.Add([]float32{float32(i), 0, 0})
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			if row != i {
				t.Errorf("Add returned row %d, want %d", row, i)
			}
		}
		if idx.Count() != 5 {
			t.Errorf("Count() = %d, want 5", idx.Count())
		}
	})

	t.Run("dimension mismatch rejected", func(t *testing.T) {
		if _, err := idx.Add([]float32{1, 2}); err == nil {
			t.Error("expected error for short vector")
		}
		if _, err := idx.Add([]float32{1, 2, 3, 4}); err == nil {
			t.Error("expected error for long vector")
		}
	})

	t.Run("stored vector is a copy", func(t *testing.T) {
		v := []float32{9, 9, 9}
		row, err := idx.Add(v)
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		v[0] = -1
		stored, err := idx.Vector(row)
		if err != nil {
			t.Fatalf("Vector: %v", err)
		}
		if stored[0] != 9 {
			t.Errorf("stored vector aliased caller slice: got %v", stored[0])
		}
	})
}

func TestFlatIndexSearch(t *testing.T) {
	idx, err := NewFlatIndex(2)
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}
	// Rows 0..3 at increasing distance from the origin.
	vectors := [][]float32{
		{0, 0},
		{1, 0},
		{2, 0},
		{3, 0},
	}
	for _, v := range vectors {
		if _, err := idx.Add(v); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	t.Run("ordered by ascending distance", func(t *testing.T) {
		matches, err := idx.Search([]float32{0, 0}, 4)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(matches) != 4 {
			t.Fatalf("got %d matches, want 4", len(matches))
		}
		for i, m := range matches {
			if m.Row != i {
				t.Errorf("match %d: row = %d, want %d", i, m.Row, i)
			}
		}
		for i := 1; i < len(matches); i++ {
			if matches[i].Distance < matches[i-1].Distance {
				t.Errorf("distances not ascending at %d: %v then %v", i, matches[i-1].Distance, matches[i].Distance)
			}
		}
	})

	t.Run("ties broken by lower row", func(t *testing.T) {
		// Rows 1 and one equidistant mirror point.
		mirror, err := idx.Add([]float32{-1, 0})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		matches, err := idx.Search([]float32{0, 0}, idx.Count())
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		// Row 1 and the mirror are both at distance 1; row 1 must come first.
		var first, second int = -1, -1
		for i, m := range matches {
			if m.Row == 1 {
				first = i
			}
			if m.Row == mirror {
				second = i
			}
		}
		if first == -1 || second == -1 {
			t.Fatal("expected both tied rows in results")
		}
		if first > second {
			t.Errorf("tie broken wrong way: row 1 at position %d, row %d at position %d", first, mirror, second)
		}
	})

	t.Run("k larger than count clamps", func(t *testing.T) {
		matches, err := idx.Search([]float32{0, 0}, 100)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(matches) != idx.Count() {
			t.Errorf("got %d matches, want %d", len(matches), idx.Count())
		}
	})

	t.Run("empty index yields empty result", func(t *testing.T) {
		empty, err := NewFlatIndex(2)
		if err != nil {
			t.Fatalf("NewFlatIndex: %v", err)
		}
		matches, err := empty.Search([]float32{0, 0}, 3)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("got %d matches from empty index, want 0", len(matches))
		}
	})

	t.Run("query dimension mismatch rejected", func(t *testing.T) {
		if _, err := idx.Search([]float32{0, 0, 0}, 1); err == nil {
			t.Error("expected error for mismatched query dimension")
		}
	})
}

func TestFlatIndexSerializationRoundTrip(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}
	vectors := [][]float32{
		{1, 2, 3},
		{-0.5, 0.25, 4096},
		{0, 0, 0},
	}
	for _, v := range vectors {
		if _, err := idx.Add(v); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := idx.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	loaded, err := ReadFlatIndex(&buf)
	if err != nil {
		t.Fatalf("ReadFlatIndex: %v", err)
	}
	if loaded.Dimensions() != idx.Dimensions() {
		t.Errorf("Dimensions() = %d, want %d", loaded.Dimensions(), idx.Dimensions())
	}
	if loaded.Count() != idx.Count() {
		t.Fatalf("Count() = %d, want %d", loaded.Count(), idx.Count())
	}
	for row := range vectors {
		want, _ := idx.Vector(row)
		got, err := loaded.Vector(row)
		if err != nil {
			t.Fatalf("Vector(%d): %v", row, err)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("row %d component %d: got %v, want %v", row, i, got[i], want[i])
			}
		}
	}
}

func TestReadFlatIndexRejectsBadMagic(t *testing.T) {
	if _, err := ReadFlatIndex(bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0})); err == nil {
		t.Error("expected error for unrecognized magic")
	}
}
