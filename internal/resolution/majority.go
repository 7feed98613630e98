package resolution

import "github.com/freewebtopdf/propmerge/internal/domain"

// Majority returns the value supplied by the most candidates and how many supplied
// it. Ties go to the value of the earliest candidate. This is a frequency vote and
// is unrelated to the similarity-based representative picked during the merge.
func Majority(candidates []domain.Candidate) (string, int) {
	counts := make(map[string]int, len(candidates))
	for _, c := range candidates {
		counts[c.Value]++
	}

	var (
		best  string
		count int
	)
	for _, c := range candidates {
		if n := counts[c.Value]; n > count {
			best, count = c.Value, n
		}
	}
	return best, count
}
