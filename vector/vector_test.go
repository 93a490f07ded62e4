package vector

import (
	"testing"

	"chunky/chunk/heap"
	"chunky/ident"
)

func TestPushAndAt(t *testing.T) {
	storage := heap.New(heap.Config{})
	v, err := New[int64](ident.New("v"), 64, storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := v.Push(10); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := v.Push(20); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if v.Len() != 2 {
		t.Fatalf("Len: want 2 got %d", v.Len())
	}
	if got := *v.At(0); got != 10 {
		t.Fatalf("At(0): want 10 got %d", got)
	}
	if got := *v.At(1); got != 20 {
		t.Fatalf("At(1): want 20 got %d", got)
	}
}

func TestAtOutOfRange(t *testing.T) {
	storage := heap.New(heap.Config{})
	v, err := New[int64](ident.New("v"), 64, storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if v.At(0) != nil {
		t.Fatal("At(0) on empty vector: want nil")
	}
}

func TestPop(t *testing.T) {
	storage := heap.New(heap.Config{})
	v, err := New[int64](ident.New("v"), 64, storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v.Push(1)
	v.Push(2)

	got, ok, err := v.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if !ok || got != 2 {
		t.Fatalf("Pop: want (2, true) got (%d, %v)", got, ok)
	}
	if v.Len() != 1 {
		t.Fatalf("Len after Pop: want 1 got %d", v.Len())
	}
}

func TestPopEmpty(t *testing.T) {
	storage := heap.New(heap.Config{})
	v, err := New[int64](ident.New("v"), 64, storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, ok, err := v.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if ok {
		t.Fatal("Pop on empty vector: want ok=false")
	}
}

type sample struct {
	A int32
	B int32
}

func TestStructItem(t *testing.T) {
	storage := heap.New(heap.Config{})
	v, err := New[sample](ident.New("v"), 64, storage)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := v.Push(sample{A: 1, B: 2}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	got := *v.At(0)
	if got.A != 1 || got.B != 2 {
		t.Fatalf("At(0): want {1 2} got %+v", got)
	}
}
