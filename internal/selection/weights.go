package selection

import (
	"math"
	"sort"

	"github.com/hyperengineering/reel/internal/types"
)

// CategoryWeight converts a preference score to an integer base weight.
// A category with no preference row weighs 1.
func CategoryWeight(score float64, ok bool) int {
	if !ok {
		return 1
	}
	return max(1, int(math.Round(score)))
}

// PositionWeight is the weight of the i-th video (0-indexed) of a category
// with base weight w. Each run of three videos divides the weight further.
func PositionWeight(w, i int) int {
	return max(1, w/max(1, i/3))
}

type candidate struct {
	video    types.VideoRef
	category string
}

// pool is a cumulative-weight sampler. Drawing r uniformly in [0, total)
// and finding the first cumulative bound above r gives each candidate a
// probability of weight/total.
type pool struct {
	candidates []candidate
	bounds     []int
	total      int
}

func (p *pool) add(c candidate, weight int) {
	p.total += weight
	p.candidates = append(p.candidates, c)
	p.bounds = append(p.bounds, p.total)
}

func (p *pool) draw(src Source) candidate {
	r := src.IntN(p.total)
	i := sort.Search(len(p.bounds), func(i int) bool { return p.bounds[i] > r })
	return p.candidates[i]
}
