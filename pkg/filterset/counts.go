package filterset

import "maps"

// Counts caches the total result count of each block evaluated on its own.
type Counts map[int]int

// WithOut returns a copy without index k; higher indices move down by one.
func (c Counts) WithOut(k int) Counts {
	result := make(Counts, len(c))
	for idx, count := range c {
		switch {
		case idx < k:
			result[idx] = count
		case idx > k:
			result[idx-1] = count
		}
	}
	return result
}

func (c Counts) Clone() Counts {
	return maps.Clone(c)
}
