package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"B001", "B001"},
		{"  B001  ", "B001"},
		{"../etc/passwd", "..-etc-passwd"},
		{`a\b:c*d`, "a-b-c-d"},
		{`what?"<>|`, "what"},
		{"..", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
