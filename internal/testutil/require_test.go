package testutil

import "testing"

type mockT struct {
	logged []string
}

func (t *mockT) Fatal(args ...interface{}) {
	for _, a := range args {
		t.logged = append(t.logged, a.(string))
	}
}

func TestEqualFailureMessage(t *testing.T) {
	m := &mockT{}
	Equal(m, 1, 2)
	if len(m.logged) != 1 {
		t.Fatalf("expected exactly one Fatal call, got %d", len(m.logged))
	}
}

func TestEqualPassesOnEqual(t *testing.T) {
	m := &mockT{}
	Equal(m, []int{1, 2}, []int{1, 2})
	if len(m.logged) != 0 {
		t.Fatalf("expected no Fatal call, got %v", m.logged)
	}
}

func TestPanicsWithMessageContains(t *testing.T) {
	m := &mockT{}
	PanicsWithMessageContains(m, "boom", func() { panic("it went boom here") })
	if len(m.logged) != 0 {
		t.Fatalf("expected no Fatal call, got %v", m.logged)
	}

	m2 := &mockT{}
	PanicsWithMessageContains(m2, "boom", func() {})
	if len(m2.logged) != 1 {
		t.Fatalf("expected a Fatal call when fn does not panic")
	}
}

func TestContains(t *testing.T) {
	m := &mockT{}
	Contains(m, "hello cat", "cat")
	if len(m.logged) != 0 {
		t.Fatalf("expected no Fatal call, got %v", m.logged)
	}
	m2 := &mockT{}
	Contains(m2, "hello cat", "dog")
	if len(m2.logged) != 1 {
		t.Fatalf("expected a Fatal call")
	}
}
