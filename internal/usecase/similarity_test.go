package usecase

import (
	"math"
	"testing"
)

func TestCalculateSimilarity(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{})

	t.Run("identical after normalization", func(t *testing.T) {
		if got := n.CalculateSimilarity("Apogee SSM [Amazon]", "apogee ssm"); got != 1 {
			t.Errorf("similarity = %v, want 1", got)
		}
	})

	t.Run("empty side scores zero", func(t *testing.T) {
		if got := n.CalculateSimilarity("", "Shure SM58"); got != 0 {
			t.Errorf("similarity = %v, want 0", got)
		}
	})

	t.Run("contained description", func(t *testing.T) {
		// terms 2/3 * 1.1, characters 32/43 * 1.15
		want := 0.6*(2.0/3.0*1.1) + 0.4*(32.0/43.0*1.15)
		got := n.CalculateSimilarity("Robe LEDBeam 150 Movinghead", "Robe LEDBeam 150")
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("similarity = %v, want %v", got, want)
		}
	})

	t.Run("unrelated products score low", func(t *testing.T) {
		if got := n.CalculateSimilarity("Shure SM58 vocal microphone", "Robe Robin 600"); got >= SimilarityThreshold {
			t.Errorf("similarity = %v, want below %v", got, SimilarityThreshold)
		}
	})

	t.Run("brand alias spellings converge", func(t *testing.T) {
		alias := n.CalculateSimilarity("KT DN360 graphic eq", "Klark-Teknik DN360 graphic equalizer")
		if alias != 1 {
			t.Errorf("similarity = %v, want 1", alias)
		}
	})

	t.Run("always within bounds", func(t *testing.T) {
		pairs := [][2]string{
			{"DN360", "DN360 DN360 DN360"},
			{"Robe LEDBeam 150", "Robe LEDBeam 150 Movinghead"},
			{"x", "y"},
			{"Allen & Heath SQ-5 mixer", "Allen Heath SQ5"},
		}
		for _, p := range pairs {
			got := n.CalculateSimilarity(p[0], p[1])
			if got < 0 || got > 1 {
				t.Errorf("similarity(%q, %q) = %v, out of [0,1]", p[0], p[1], got)
			}
		}
	})
}

func TestSimilarText(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"World", "Word", 4},
		{"Hello", "World", 1},
		{"", "abc", 0},
		{"abc", "abc", 3},
		{"abc", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := similarText([]rune(tt.a), []rune(tt.b)); got != tt.want {
				t.Errorf("similarText(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTermOverlap(t *testing.T) {
	t.Run("plain jaccard", func(t *testing.T) {
		got := termOverlap([]string{"a", "b"}, []string{"b", "c"})
		if math.Abs(got-1.0/3.0) > 1e-9 {
			t.Errorf("termOverlap = %v, want 1/3", got)
		}
	})

	t.Run("containment boost is capped", func(t *testing.T) {
		if got := termOverlap([]string{"a", "b"}, []string{"a", "b"}); got != 1 {
			t.Errorf("termOverlap = %v, want 1", got)
		}
	})

	t.Run("empty set", func(t *testing.T) {
		if got := termOverlap(nil, []string{"a"}); got != 0 {
			t.Errorf("termOverlap = %v, want 0", got)
		}
	})
}
