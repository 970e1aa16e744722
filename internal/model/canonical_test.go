package model

import "testing"

func TestCanonicalEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"ana@x.com", "ana@x.com"},
		{"  Ana@X.COM  ", "ana@x.com"},
		{"joé@x.com", "joé@x.com"}, // combining accent folds to NFC
	}
	for _, tt := range tests {
		if got := CanonicalEmail(tt.in); got != tt.want {
			t.Errorf("CanonicalEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalPhone(t *testing.T) {
	if got := CanonicalPhone("  +55 11 99999-0000 "); got != "+55 11 99999-0000" {
		t.Errorf("CanonicalPhone trimmed to %q", got)
	}
	if got := CanonicalPhone(""); got != "" {
		t.Errorf("CanonicalPhone(\"\") = %q", got)
	}
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Ana Silva ", "Ana Silva"},
		{"José", "José"},
		{"MARIA", "MARIA"}, // case preserved, unlike email
	}
	for _, tt := range tests {
		if got := CanonicalName(tt.in); got != tt.want {
			t.Errorf("CanonicalName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
