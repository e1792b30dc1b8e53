package search

import "sort"

// Rank orders results by score descending, then distance ascending. Results with
// equal (score, distance) keep their input order. No truncation is applied.
func Rank(results []Result) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DistanceMeters < results[j].DistanceMeters
	})
	return results
}
