package queue

import "testing"

func TestPushPopOrder(t *testing.T) {
	q := New(3)
	for _, v := range []int{4, 5, 6} {
		if !q.Push(v) {
			t.Fatalf("Push(%d) = false", v)
		}
	}
	if q.Push(7) {
		t.Fatal("Push on full queue succeeded")
	}
	for _, want := range []int{4, 5, 6} {
		got, ok := q.Pop()
		if !ok || got != want {
			t.Fatalf("Pop() = %d, %v; want %d", got, ok, want)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop on empty queue succeeded")
	}
}

func TestWrapAround(t *testing.T) {
	q := New(2)
	q.Push(1)
	q.Push(2)
	q.Pop()
	q.Push(3)
	if got := q.Items(); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("Items() = %v, want [2 3]", got)
	}
	if !q.Contains(3) || q.Contains(1) {
		t.Fatal("Contains reports wrong membership")
	}
	if v, _ := q.Peek(); v != 2 {
		t.Fatalf("Peek() = %d, want 2", v)
	}
}

func TestZeroCapacity(t *testing.T) {
	q := New(0)
	if q.Push(1) {
		t.Fatal("Push on zero-capacity queue succeeded")
	}
	if q.Len() != 0 || q.Cap() != 0 {
		t.Fatalf("Len/Cap = %d/%d", q.Len(), q.Cap())
	}
}
