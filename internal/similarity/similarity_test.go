package similarity

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical", "Hello", "Hello", 1},
		{"both empty", "", "", 1},
		{"one empty", "abc", "", 0},
		{"disjoint", "abc", "xyz", 0},
		{"shared prefix", "abcd", "abxy", 0.5},
		{"one insertion", "Hello", "Hello!", 10.0 / 11.0},
		{"multibyte runes", "café", "cafe", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScore_MoreSharedTextScoresHigher(t *testing.T) {
	base := "Add to cart"
	assert.Greater(t, Score(base, "Add to basket"), Score(base, "Buy now"))
	assert.Greater(t, Score(base, "Add to carts"), Score(base, "Add to basket"))
}

func TestRepresentative(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected string
	}{
		{"empty", nil, ""},
		{"single", []string{"Hello"}, "Hello"},
		{"two values tie to first", []string{"Hello", "Hi"}, "Hello"},
		{"closest to the others wins", []string{"Welcome!", "Welcome", "Greetings", "Welcome back"}, "Welcome"},
		{"duplicates ignored", []string{"Hi", "Hi", "Hello"}, "Hi"},
		{"all disjoint ties to first", []string{"abc", "xyz", "123"}, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Representative(tt.values))
		})
	}
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, Distinct([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, Distinct(nil))
}

func TestProperty_ScoreSymmetricAndBounded(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("score(a,b) == score(b,a)", prop.ForAll(
		func(a, b string) bool {
			return Score(a, b) == Score(b, a)
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("score(a,a) == 1", prop.ForAll(
		func(a string) bool {
			return Score(a, a) == 1
		},
		gen.AnyString(),
	))

	properties.Property("score is within [0,1]", prop.ForAll(
		func(a, b string) bool {
			s := Score(a, b)
			return s >= 0 && s <= 1
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_RepresentativeIsACandidate(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("representative is one of the values", prop.ForAll(
		func(values []string) bool {
			rep := Representative(values)
			for _, v := range values {
				if v == rep {
					return true
				}
			}
			return false
		},
		gen.SliceOfN(5, gen.AlphaString()).SuchThat(func(v []string) bool { return len(v) > 0 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func BenchmarkRepresentative(b *testing.B) {
	values := []string{
		"Your order has been placed",
		"Your order was placed",
		"The order has been submitted",
		"Order placed successfully",
		"Thanks, your order has been placed",
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Representative(values)
	}
}
