package api

import "testing"

func TestLimitersPerKey(t *testing.T) {
	l := NewLimiters(0.001, 2)

	if !l.Allow("alice") || !l.Allow("alice") {
		t.Fatal("burst should allow two events")
	}
	if l.Allow("alice") {
		t.Error("third event should be limited")
	}
	if !l.Allow("bruno") {
		t.Error("keys should not share a bucket")
	}
}

func TestLimitersDisabled(t *testing.T) {
	for _, l := range []*Limiters{nil, NewLimiters(0, 1)} {
		for i := 0; i < 100; i++ {
			if !l.Allow("alice") {
				t.Fatal("disabled limiter refused an event")
			}
		}
	}
}
