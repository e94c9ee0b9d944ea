package util

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "HIKING", "hiking"},
		{"spaces to dashes", "summer hike", "summer-hike"},
		{"underscores to dashes", "summer_hike", "summer-hike"},
		{"dots to dashes", "v1.2", "v1-2"},
		{"trim whitespace", "  hike  ", "hike"},
		{"emoji removal", "🐉 Dragons!", "dragons"},
		{"parentheses removal", "my_photo (1)", "my-photo-1"},
		{"leading and trailing dashes", "--hike--", "hike"},
		{"georgian only", "ლაშქრობა", ""},
		{"mixed scripts", "ლაშქრობა hike 2024", "hike-2024"},
		{"empty string", "", ""},
		{"only special chars", "!@#$%", ""},
		{"truncated", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.input); got != tt.expected {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Summer Hike.PNG", "summer-hike"},
		{"photos/2024/beach.jpeg", "beach"},
		{`C:\Users\me\Desktop\cat.webp`, "cat"},
		{"ფოტო.jpg", "image"},
		{"", "image"},
		{".hidden", "image"},
	}

	for _, tt := range tests {
		if got := FileStem(tt.input, "image"); got != tt.expected {
			t.Errorf("FileStem(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
