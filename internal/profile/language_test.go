package profile

import "testing"

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		preferred, accept, want string
	}{
		{"", "", "en"},
		{"ar", "", "ar"},
		{"ar-EG", "", "ar"},
		{"en-GB", "ar", "en"},
		{"", "ar-SA,ar;q=0.9,en;q=0.8", "ar"},
		{"fr", "", "en"},
		{"not a tag!", "", "en"},
	}
	for _, tt := range tests {
		if got := NormalizeLanguage(tt.preferred, tt.accept); got != tt.want {
			t.Errorf("NormalizeLanguage(%q, %q) = %q, want %q", tt.preferred, tt.accept, got, tt.want)
		}
	}
}

func TestSupportedLanguage(t *testing.T) {
	if lang, ok := SupportedLanguage("ar"); !ok || lang != "ar" {
		t.Errorf("SupportedLanguage(ar) = %q, %v", lang, ok)
	}
	if _, ok := SupportedLanguage("de"); ok {
		t.Error("de is not supported")
	}
	if _, ok := SupportedLanguage(""); ok {
		t.Error("empty preference is not supported")
	}
}
