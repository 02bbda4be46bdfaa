package textutil

import "testing"

func TestSimilarityIdentical(t *testing.T) {
	if got := Similarity("The Matrix", "The Matrix"); got != 1.0 {
		t.Fatalf("expected 1.0, got %f", got)
	}
}

func TestSimilarityNormalizedEquivalence(t *testing.T) {
	cases := [][2]string{
		{"Me & You", "Me and You"},
		{"Amélie", "Amelie"},
		{"The.Matrix", "The Matrix"},
		{"spider-man", "Spider Man"},
	}
	for _, c := range cases {
		if got := Similarity(c[0], c[1]); got != 1.0 {
			t.Errorf("Similarity(%q, %q) = %f, want 1.0", c[0], c[1], got)
		}
	}
}

func TestSimilarityEmpty(t *testing.T) {
	if got := Similarity("", "Heat"); got != 0.0 {
		t.Fatalf("expected 0.0, got %f", got)
	}
}

func TestSimilaritySuffixContainment(t *testing.T) {
	got := Similarity("Will Vinton's Claymation Christmas", "Claymation Christmas")
	if got < 0.90 {
		t.Fatalf("expected suffix containment score >= 0.90, got %f", got)
	}
}

func TestSimilarityDifferentTitles(t *testing.T) {
	got := Similarity("The Matrix", "Finding Nemo")
	if got > 0.5 {
		t.Fatalf("expected low score, got %f", got)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "Blade Runner 2049", "Blade Runner"
	if Similarity(a, b) != Similarity(b, a) {
		t.Fatal("similarity should be symmetric")
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"The.Movie_Title-2023": "the movie title 2023",
		"  Multiple   Spaces ": "multiple spaces",
		"Amélie":               "amelie",
		"AT&T Story":           "at and t story",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"same", "same", 0},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(`Movie: The "Sequel"?`); got != `Movie- The Sequel` {
		t.Fatalf("got %q", got)
	}
}
