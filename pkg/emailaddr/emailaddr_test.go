package emailaddr

import "testing"

func TestValid(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"patient@example.com", true},
		{"first.last+tag@sub.example.co.in", true},
		{"UPPER@EXAMPLE.ORG", true},
		{"not-an-email", false},
		{"", false},
		{"missing-at.example.com", false},
		{"user@", false},
		{"@example.com", false},
		{"user@example", false},
		{"user@example.c", false},
		{"two words@example.com", false},
	}

	for _, tt := range tests {
		if got := Valid(tt.addr); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}
