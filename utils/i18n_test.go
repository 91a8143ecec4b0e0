package utils

import "testing"

func TestSupportedLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want bool
	}{
		{"en", true},
		{"ja", true},
		{"", false},
		{"fr", false},
		{"EN", false},
	}
	for _, tt := range tests {
		if got := SupportedLanguage(tt.lang); got != tt.want {
			t.Errorf("SupportedLanguage(%q) = %v, want %v", tt.lang, got, tt.want)
		}
	}
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   string
	}{
		{"japanese preferred", "ja,en;q=0.8", "ja"},
		{"regional japanese", "ja-JP", "ja"},
		{"english preferred", "en-US,en;q=0.9,ja;q=0.5", "en"},
		{"unsupported falls back", "fr-FR,fr;q=0.9", "en"},
		{"empty header", "", "en"},
		{"garbage header", ";;;", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchLanguage(tt.accept); got != tt.want {
				t.Errorf("MatchLanguage(%q) = %q, want %q", tt.accept, got, tt.want)
			}
		})
	}
}
