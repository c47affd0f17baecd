package domain

import "testing"

func TestShortCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"hi-IN", "hi"},
		{"en-US", "en"},
		{"en", "en"},
		{"zh-Hant-TW", "zh"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ShortCode(tt.code); got != tt.want {
			t.Errorf("ShortCode(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
