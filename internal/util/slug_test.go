package util

import (
	"slices"
	"testing"
)

func TestNormalizeTagSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// Basic normalization
		{"lowercase", "FINTECH", "fintech"},
		{"spaces to dashes", "climate tech", "climate-tech"},
		{"underscores to dashes", "climate_tech", "climate-tech"},
		{"already normalized", "climate-tech", "climate-tech"},

		// Whitespace handling
		{"trim whitespace", "  fintech  ", "fintech"},
		{"multiple spaces", "climate   tech", "climate-tech"},
		{"tabs and spaces", "climate\t tech", "climate-tech"},

		// Special characters
		{"emoji removal", "🚀 Startups!", "startups"},
		{"slash separator", "b2b/saas", "b2b-saas"},
		{"apostrophe removal", "founder's picks", "founders-picks"},
		{"accents folded", "Café Zürich", "cafe-zurich"},
		{"plus kept", "C++", "c++"},
		{"hash kept", "C#", "c#"},
		{"emoji only", "🚀", ""},
		{"non-latin letters kept", "日本 Startups", "日本-startups"},

		// Dash handling
		{"multiple dashes", "climate--tech", "climate-tech"},
		{"leading dashes", "--fintech", "fintech"},
		{"trailing dashes", "fintech--", "fintech"},

		// Edge cases
		{"empty string", "", ""},
		{"only spaces", "   ", ""},
		{"only special chars", "!@$%", ""},
		{"numbers allowed", "top10", "top10"},
		{"mixed case with numbers", "Top 10 Investors", "top-10-investors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeTagSlug(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeTagSlug(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"Fintech", "fintech", " ", "AI", "climate tech", "!!"})
	want := []string{"ai", "climate-tech", "fintech"}
	if !slices.Equal(got, want) {
		t.Errorf("NormalizeTags() = %v, want %v", got, want)
	}

	if got := NormalizeTags(nil); len(got) != 0 {
		t.Errorf("NormalizeTags(nil) = %v, want empty", got)
	}
}

func TestNormalizeTags_LanguageNamesStayDistinct(t *testing.T) {
	got := NormalizeTags([]string{"C++", "c#", "C", "c++"})
	want := []string{"c", "c#", "c++"}
	if !slices.Equal(got, want) {
		t.Errorf("NormalizeTags() = %v, want %v", got, want)
	}
}

func TestSlugify_StaysURLSafe(t *testing.T) {
	tests := map[string]string{
		"C++ Ventures": "c-ventures",
		"C# Labs":      "c-labs",
		"Café Zürich":  "cafe-zurich",
	}
	for input, want := range tests {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSanitizePlain(t *testing.T) {
	got := SanitizePlain(`  <script>alert(1)</script><b>Great</b> team  `)
	if got != "Great team" {
		t.Errorf("SanitizePlain() = %q", got)
	}
}

func TestSanitizeRich(t *testing.T) {
	got := SanitizeRich(`<p onclick="x()">Hello <em>there</em></p><script>bad()</script>`)
	if got != "<p>Hello <em>there</em></p>" {
		t.Errorf("SanitizeRich() = %q", got)
	}
}

func TestSanitizePlain_KeepsPunctuation(t *testing.T) {
	got := SanitizePlain(`Don't miss "Series A" & more`)
	if got != `Don't miss "Series A" & more` {
		t.Errorf("SanitizePlain() = %q", got)
	}
}
