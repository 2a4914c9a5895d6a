package technology

import (
	"regexp"
	"testing"
)

var slugCharset = regexp.MustCompile(`^[a-z0-9-]*$`)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"React", "react"},
		{"Node.js", "nodejs"},
		{"  Spring   Boot  ", "spring-boot"},
		{"C++", "cplusplus"},
		{"C#", "csharp"},
		{"Vue 3 -- Composition_API", "vue-3-composition-api"},
		{"Ünïcödé Tools", "ncd-tools"},
		{"---", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := Slugify(tc.in); got != tc.want {
				t.Fatalf("Slugify(%q): got=%q want=%q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSlugifyIsIdempotentAndRestricted(t *testing.T) {
	names := []string{
		"Kubernetes", "TensorFlow 2.x", "  weird__name!!", "Go (golang)", "A  -  B",
		"ASP.NET Core", "Three.js / WebGL", "🚀 Rocket", "\tTabs\nand\nnewlines ", "F#", "x++--y",
	}
	for _, n := range names {
		s := Slugify(n)
		if !slugCharset.MatchString(s) {
			t.Fatalf("Slugify(%q)=%q has characters outside [a-z0-9-]", n, s)
		}
		if again := Slugify(s); again != s {
			t.Fatalf("Slugify not idempotent for %q: %q then %q", n, s, again)
		}
	}
}

func TestNameKey(t *testing.T) {
	if NameKey("  Spring   BOOT ") != "spring boot" {
		t.Fatalf("unexpected name key %q", NameKey("  Spring   BOOT "))
	}
}
