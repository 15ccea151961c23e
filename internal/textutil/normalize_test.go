package textutil

import "testing"

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"A-123", "a123"},
		{"a 123", "a123"},
		{"  IPD/2024.001 ", "ipd2024001"},
		{"Ünïcode-7", "ncode7"},
		{"---", ""},
		{"abcXYZ019", "abcxyz019"},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	inputs := []string{"", "A-123", "x9", "Mixed Case_Name (1)", "ßü-é-42", "\t\n", "ipd.no.55"}
	for _, in := range inputs {
		once := NormalizeKey(in)
		if twice := NormalizeKey(once); twice != once {
			t.Errorf("NormalizeKey not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeFileKeyStripsExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A-123.pdf", "a123"},
		{"A-123.final.PDF", "a123final"},
		{"noext", "noext"},
		{".hidden", "hidden"},
	}
	for _, tt := range tests {
		if got := NormalizeFileKey(tt.in); got != tt.want {
			t.Errorf("NormalizeFileKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitExt(t *testing.T) {
	base, ext := SplitExt("scan 01.Pdf")
	if base != "scan 01" || ext != ".Pdf" {
		t.Fatalf("SplitExt = (%q, %q)", base, ext)
	}
	base, ext = SplitExt("README")
	if base != "README" || ext != "" {
		t.Fatalf("SplitExt = (%q, %q)", base, ext)
	}
}
