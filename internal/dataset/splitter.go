package dataset

import (
	"math/rand/v2"

	"github.com/carsight/vehiclenet-go/internal/conf"
)

// SplitName identifies one of the three dataset partitions.
type SplitName string

const (
	SplitTrain SplitName = "train"
	SplitVal   SplitName = "val"
	SplitTest  SplitName = "test"
)

// SplitNames lists the partitions in canonical order.
var SplitNames = []SplitName{SplitTrain, SplitVal, SplitTest}

// SplitSet holds the three disjoint file lists produced by a Splitter.
type SplitSet struct {
	Train []string
	Val   []string
	Test  []string
}

// Files returns the file list for the named split.
func (s *SplitSet) Files(name SplitName) []string {
	switch name {
	case SplitTrain:
		return s.Train
	case SplitVal:
		return s.Val
	default:
		return s.Test
	}
}

// Total returns the number of files across all splits.
func (s *SplitSet) Total() int {
	return len(s.Train) + len(s.Val) + len(s.Test)
}

// Splitter partitions a file list into train/val/test subsets.
type Splitter struct {
	rng *rand.Rand
}

// NewSplitter returns a splitter with a non-deterministic shuffle source.
func NewSplitter() *Splitter {
	return &Splitter{}
}

// NewSeededSplitter returns a splitter whose shuffle is reproducible for
// the given seed.
func NewSeededSplitter(seed int64) *Splitter {
	return &Splitter{rng: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Split validates the ratios, shuffles the input uniformly at random and
// assigns floor(total*train) files to train, floor(total*val) to val and
// the entire remainder to test. Test absorbing the rounding slack is
// intentional: it guarantees every file is assigned.
func (sp *Splitter) Split(files []string, ratios conf.SplitRatios) (*SplitSet, error) {
	if err := ratios.Validate(); err != nil {
		return nil, err
	}

	shuffled := make([]string, len(files))
	copy(shuffled, files)

	shuffle := rand.Shuffle
	if sp.rng != nil {
		shuffle = sp.rng.Shuffle
	}
	shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	total := len(shuffled)
	trainCount := int(float64(total) * ratios.Train)
	valCount := int(float64(total) * ratios.Val)

	return &SplitSet{
		Train: shuffled[:trainCount],
		Val:   shuffled[trainCount : trainCount+valCount],
		Test:  shuffled[trainCount+valCount:],
	}, nil
}
