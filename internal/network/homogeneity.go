package network

import "math"

// Homogeneity scores how consistently a director fills one role.
//
// One person ever in the role scores 1. An empty role scores the -1
// sentinel. Otherwise the score is 1 - unique/total, which grows as the
// same few people are hired again and falls towards 0 as the role
// diversifies.
func Homogeneity(uniqueCount, total int) float64 {
	if uniqueCount == 1 {
		return 1
	}
	if total == 0 {
		return -1
	}
	return 1 - float64(uniqueCount)/float64(total)
}

// AverageHomogeneity is the arithmetic mean of per-role scores, or NaN when
// there are none.
func AverageHomogeneity(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
