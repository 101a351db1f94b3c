package common

import (
	"math"
	"slices"
	"testing"
)

func TestRing_EvictsOldestFirst(t *testing.T) {
	r := NewRing[int](3)

	for i := 1; i <= 3; i++ {
		if evicted := r.Push(i); evicted {
			t.Fatalf("Push(%d) evicted before ring was full", i)
		}
	}
	if !r.IsFull() {
		t.Fatal("ring should be full after 3 pushes")
	}
	if evicted := r.Push(4); !evicted {
		t.Fatal("Push(4) should evict the oldest value")
	}

	want := []int{2, 3, 4}
	if got := r.Values(); !slices.Equal(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
	if got, _ := r.At(0); got != 2 {
		t.Errorf("At(0) = %d, want 2", got)
	}
}

func TestRing_NeverExceedsCapacity(t *testing.T) {
	r := NewRing[int](5)
	for i := range 1000 {
		r.Push(i)
		if r.Len() > r.Cap() {
			t.Fatalf("Len() = %d exceeds Cap() = %d after %d pushes", r.Len(), r.Cap(), i+1)
		}
	}
	want := []int{995, 996, 997, 998, 999}
	if got := r.Values(); !slices.Equal(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
}

func TestRing_AtOutOfRange(t *testing.T) {
	r := NewRing[string](2)
	if _, ok := r.At(0); ok {
		t.Error("At(0) on empty ring should fail")
	}
	r.Push("a")
	if _, ok := r.At(1); ok {
		t.Error("At(1) with one value should fail")
	}
	if _, ok := r.At(-1); ok {
		t.Error("At(-1) should fail")
	}
}

func TestRing_Clear(t *testing.T) {
	r := NewRing[int](2)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	r.Clear()

	if !r.IsEmpty() {
		t.Fatalf("Len() = %d after Clear, want 0", r.Len())
	}
	r.Push(9)
	if got := r.Values(); !slices.Equal(got, []int{9}) {
		t.Errorf("Values() = %v, want [9]", got)
	}
}

func TestNewRing_MinimumSize(t *testing.T) {
	r := NewRing[int](0)
	if r.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", r.Cap())
	}
}

func TestWeightedMean(t *testing.T) {
	got := WeightedMean([]float64{100, 200}, LinearWeights(2))
	want := (100.0*1 + 200.0*2) / 3
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("WeightedMean = %f, want %f", got, want)
	}
	if WeightedMean(nil, nil) != 0 {
		t.Error("WeightedMean of empty input should be 0")
	}
}

func TestLinearWeights(t *testing.T) {
	if got := LinearWeights(4); !slices.Equal(got, []float64{1, 2, 3, 4}) {
		t.Errorf("LinearWeights(4) = %v", got)
	}
	if got := LinearWeights(0); len(got) != 0 {
		t.Errorf("LinearWeights(0) = %v, want empty", got)
	}
}

func TestRMS(t *testing.T) {
	if got := RMS([]float64{0.5, -0.5, 0.5, -0.5}); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("RMS = %f, want 0.5", got)
	}
	if RMS(nil) != 0 {
		t.Error("RMS of empty input should be 0")
	}
}
