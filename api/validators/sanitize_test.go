package validators

import "testing"

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "trims", input: "  1042  ", maxLen: 64, want: "1042"},
		{name: "collapses whitespace", input: "TRK \t 99\n1", maxLen: 64, want: "TRK 99 1"},
		{name: "caps runes", input: "ñañañaña", maxLen: 3, want: "ñañ"},
		{name: "no cap", input: "abc", maxLen: 0, want: "abc"},
		{name: "empty", input: "   ", maxLen: 10, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeString(tt.input, tt.maxLen); got != tt.want {
				t.Fatalf("SanitizeString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
