package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	if a != b {
		t.Fatalf("Sum not deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
}

func TestStrings_SeparatesParts(t *testing.T) {
	if Strings("ab", "c") == Strings("a", "bc") {
		t.Error("expected different digests for different part boundaries")
	}
}
