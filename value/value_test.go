package value

import (
	"testing"

	"chunky/chunk/heap"
	"chunky/ident"
)

func TestLoadOrDefaultCreatesWithDefault(t *testing.T) {
	storage := heap.New(heap.Config{})
	v, err := LoadOrDefault(ident.New("v"), 42, storage)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if got := v.Get(); got != 42 {
		t.Fatalf("Get: want 42 got %d", got)
	}
}

func TestSetThenGet(t *testing.T) {
	storage := heap.New(heap.Config{})
	v, err := LoadOrDefault(ident.New("v"), 0, storage)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	v.Set(99)
	if got := v.Get(); got != 99 {
		t.Fatalf("Get after Set: want 99 got %d", got)
	}
}

func TestPtrAliasesBackingMemory(t *testing.T) {
	storage := heap.New(heap.Config{})
	v, err := LoadOrDefault(ident.New("v"), 0, storage)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	*v.Ptr() = 7
	if got := v.Get(); got != 7 {
		t.Fatalf("Get after Ptr write: want 7 got %d", got)
	}
}

type point struct {
	X, Y int32
}

func TestStructValue(t *testing.T) {
	storage := heap.New(heap.Config{})
	v, err := LoadOrDefault(ident.New("p"), point{X: 1, Y: 2}, storage)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	got := v.Get()
	if got.X != 1 || got.Y != 2 {
		t.Fatalf("Get: want {1 2} got %+v", got)
	}
	v.Set(point{X: 3, Y: 4})
	if got := v.Get(); got.X != 3 || got.Y != 4 {
		t.Fatalf("Get after Set: want {3 4} got %+v", got)
	}
}
