package multiarena

import (
	"testing"

	"chunky/chunk/heap"
	"chunky/ident"
)

func TestSizeToIndexBuckets(t *testing.T) {
	storage := heap.New(heap.Config{})
	m, err := New(ident.New("m"), 256, 8, storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := []struct {
		size int
		want int
	}{
		{size: 1, want: 0},  // rounds to 1 * base_size(8)
		{size: 8, want: 0},  // exactly base_size
		{size: 9, want: 1},  // rounds up to 2 * base_size
		{size: 16, want: 1}, // exactly 2 * base_size
		{size: 17, want: 2}, // rounds up to 4 * base_size
	}
	for _, c := range cases {
		if got := m.SizeToIndex(c.size); got != c.want {
			t.Errorf("SizeToIndex(%d): want %d got %d", c.size, c.want, got)
		}
	}
}

func TestPushRoutesToBin(t *testing.T) {
	storage := heap.New(heap.Config{})
	m, err := New(ident.New("m"), 256, 8, storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, idxSmall, err := m.Push(4)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	_, idxBig, err := m.Push(20)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	if idxSmall.Bin == idxBig.Bin {
		t.Fatalf("expected different bins for sizes 4 and 20, got bin %d for both", idxSmall.Bin)
	}
	if m.BinLen(idxSmall.Bin) != 1 {
		t.Fatalf("BinLen(%d): want 1 got %d", idxSmall.Bin, m.BinLen(idxSmall.Bin))
	}
}

func TestSwapRemoveWithinBin(t *testing.T) {
	storage := heap.New(heap.Config{})
	m, err := New(ident.New("m"), 256, 8, storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, idx0, err := m.Push(4)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	_, idx1, err := m.Push(4)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	_, ok, err := m.SwapRemoveWithinBin(idx0)
	if err != nil {
		t.Fatalf("SwapRemoveWithinBin: %v", err)
	}
	if !ok {
		t.Fatal("SwapRemoveWithinBin: want ok=true when removing non-last item")
	}
	if m.BinLen(idx1.Bin) != 1 {
		t.Fatalf("BinLen after SwapRemoveWithinBin: want 1 got %d", m.BinLen(idx1.Bin))
	}
}

func TestPopulatedBinIndicesAndLens(t *testing.T) {
	storage := heap.New(heap.Config{})
	m, err := New(ident.New("m"), 256, 8, storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.Push(4)
	m.Push(4)
	m.Push(20)

	populated := m.PopulatedBinIndicesAndLens()
	if len(populated) != 2 {
		t.Fatalf("PopulatedBinIndicesAndLens: want 2 entries got %d (%v)", len(populated), populated)
	}
}

func TestReopenReconstructsBins(t *testing.T) {
	dir := t.TempDir()
	storage := newTestFileStorage(t, dir)

	m1, err := New(ident.New("m"), 256, 8, storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	buf, _, err := m1.Push(4)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	copy(buf, []byte{42})

	m2, err := New(ident.New("m"), 256, 8, storage)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(m2.PopulatedBinIndicesAndLens()) != 1 {
		t.Fatalf("expected 1 populated bin after reopen, got %v", m2.PopulatedBinIndicesAndLens())
	}
}
