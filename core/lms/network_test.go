package lms

import "testing"

func Test_Network(t *testing.T) {
	n := NewNetwork()
	a := NewLMS("a", "https://a.test")
	b := NewLMS("b", "https://b.test")

	n.Add(a)
	n.Add(b)
	if n.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", n.Len())
	}
	if n.Get(0) != a || n.Get(1) != b {
		t.Error("Get() does not preserve insertion order")
	}
	if n.Get(5) != nil {
		t.Error("Get(5) != nil for out-of-range index")
	}

	all := n.All()
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(all))
	}
	all[0] = nil // the copy must not alias the registry
	if n.Get(0) != a {
		t.Error("All() leaks the internal slice")
	}

	n.Remove(0)
	if n.Len() != 1 || n.Get(0) != b {
		t.Error("Remove(0) did not shift the registry")
	}

	n.Clear()
	if n.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", n.Len())
	}
}
