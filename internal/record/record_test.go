package record

import "testing"

func mustNew(t *testing.T, items ...byte) Record {
	t.Helper()
	r, err := New(items)
	if err != nil {
		t.Fatalf("New(%v): %v", items, err)
	}
	return r
}

func TestLessTruthTableS4(t *testing.T) {
	x := mustNew(t, 1, 2, 3)
	y := mustNew(t, 2, 3)

	if x.Less(y, true) {
		t.Errorf("{1,2,3} < {2,3} should be false")
	}
	if !y.Less(x, true) {
		t.Errorf("{2,3} < {1,2,3} should be true")
	}
}

func TestLessTruthTableS5(t *testing.T) {
	x := mustNew(t, 5)
	y := mustNew(t, 3, 4)

	if x.Less(y, true) {
		t.Errorf("{5} < {3,4} should be false")
	}
	if !y.Less(x, true) {
		t.Errorf("{3,4} < {5} should be true")
	}
}

func TestLessAgainstNilIsTop(t *testing.T) {
	x := mustNew(t, 1)
	if !x.Less(Record{}, false) {
		t.Errorf("x < nil should always be true")
	}
}

func TestLessTieNeitherSide(t *testing.T) {
	// identical records leave both residuals empty -> neither strictly
	// less (merge-equivalent).
	x := mustNew(t, 9)
	y := mustNew(t, 9)
	if x.Less(y, true) || y.Less(x, true) {
		t.Errorf("equal singletons should be merge-equivalent, not strictly ordered")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	cases := [][]byte{
		{0x01},
		{0x01, 0x02, 0x03},
		{255, 254, 253, 1, 0},
	}
	for _, items := range cases {
		r := mustNew(t, items...)
		frame := r.Encode()
		got, err := Decode(frame)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.Len() != r.Len() {
			t.Fatalf("round-trip length mismatch: got %d want %d", got.Len(), r.Len())
		}
		gi, ri := got.Items(), r.Items()
		for i := range gi {
			if gi[i] != ri[i] {
				t.Fatalf("round-trip item %d mismatch: got %d want %d", i, gi[i], ri[i])
			}
		}
	}
}

func TestDecodeRejectsOversizeLength(t *testing.T) {
	var frame [FrameSize]byte
	frame[0] = MaxItems + 1
	if _, err := Decode(frame); err == nil {
		t.Fatalf("expected error decoding oversize length byte")
	}
}

func TestNewRejectsEmptyAndOversize(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for empty item set")
	}
	big := make([]byte, MaxItems+1)
	if _, err := New(big); err == nil {
		t.Fatalf("expected error for oversize item set")
	}
}
