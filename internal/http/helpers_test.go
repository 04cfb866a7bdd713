package http

import "testing"

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Alice  ", "Alice"},
		{"a\x00b\x07c", "abc"},
		{"line1\nline2\tend", "line1\nline2\tend"},
		{"<b>bold</b>", "<b>bold</b>"},
		{"del\x7f", "del"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripControlKeepsWhitespace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Alice", "Alice"},
		{"Alice ", "Alice "},
		{" Alice", " Alice"},
		{"Al\x00ice\x1b", "Alice"},
	}
	for _, tt := range tests {
		if got := stripControl(tt.in); got != tt.want {
			t.Errorf("stripControl(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := formatAmount(80); got != "80.00" {
		t.Errorf("formatAmount(80) = %q", got)
	}
	if got := formatAmount(12.5); got != "12.50" {
		t.Errorf("formatAmount(12.5) = %q", got)
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next, want string
	}{
		{"", "/admin/panel"},
		{"/admin/panel", "/admin/panel"},
		{"/delete/3", "/admin/panel"},
		{"/admin/login", "/admin/login"},
		{"//evil.example", "/admin/panel"},
		{"https://evil.example", "/admin/panel"},
		{"/\\evil.example", "/admin/panel"},
	}
	for _, tt := range tests {
		if got := safeNext(tt.next, "/admin/panel"); got != tt.want {
			t.Errorf("safeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}
