package rag

import "examenbot/internal/index"

// SelectContext keeps the hits whose distance is strictly below threshold,
// in their original order. An empty result means the question is out of scope.
func SelectContext(hits []index.Hit, threshold float64) []index.Hit {
	selected := make([]index.Hit, 0, len(hits))
	for _, hit := range hits {
		if hit.Distance < threshold {
			selected = append(selected, hit)
		}
	}
	return selected
}
