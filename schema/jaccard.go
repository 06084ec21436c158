package schema

import (
	"github.com/hashicorp/go-set/v3"
)

const (
	// DefaultStabilityLimit is the running-average similarity below which
	// document unions give up on precision.
	DefaultStabilityLimit = 0.8

	// minUnionsBeforeCollapse is how many unions must be observed before the
	// stability test is applied at all.
	minUnionsBeforeCollapse = 5
)

// JaccardIndex tracks how similar the key sets of repeatedly unioned
// documents have been.
type JaccardIndex struct {
	AvgJI          float64
	NumUnions      uint32
	StabilityLimit float64
}

// NewJaccardIndex returns {AvgJI: 1, NumUnions: 0, StabilityLimit: 0.8}.
func NewJaccardIndex() *JaccardIndex {
	return &JaccardIndex{AvgJI: 1.0, StabilityLimit: DefaultStabilityLimit}
}

// NewJaccardIndexWithLimit is NewJaccardIndex with a custom stability limit.
func NewJaccardIndexWithLimit(limit float64) *JaccardIndex {
	return &JaccardIndex{AvgJI: 1.0, StabilityLimit: limit}
}

func (j *JaccardIndex) clone() *JaccardIndex {
	if j == nil {
		return nil
	}
	c := *j
	return &c
}

// Update returns the index with one more observed similarity folded into the
// running average.
func (j JaccardIndex) Update(similarity float64) JaccardIndex {
	n := float64(j.NumUnions)
	j.AvgJI = (j.AvgJI*n + similarity) / (n + 1)
	j.NumUnions++
	return j
}

// Unstable reports whether the observed key sets have drifted enough that a
// union should abandon precision. The 1/NumUnions slack tolerates early noise
// and shrinks as evidence accumulates.
func (j JaccardIndex) Unstable() bool {
	if j.NumUnions < minUnionsBeforeCollapse {
		return false
	}
	return j.AvgJI+1.0/float64(j.NumUnions) < j.StabilityLimit
}

func (j *JaccardIndex) equal(o *JaccardIndex) bool {
	if j == nil || o == nil {
		return j == o
	}
	return *j == *o
}

// combineJaccard merges the running statistics of two documents, weighting each
// average by the number of unions behind it.
func combineJaccard(a, b *JaccardIndex) *JaccardIndex {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return b.clone()
	case b == nil:
		return a.clone()
	}
	total := a.NumUnions + b.NumUnions
	out := &JaccardIndex{NumUnions: total, StabilityLimit: a.StabilityLimit}
	if total == 0 {
		out.AvgJI = a.AvgJI
		return out
	}
	out.AvgJI = (a.AvgJI*float64(a.NumUnions) + b.AvgJI*float64(b.NumUnions)) / float64(total)
	return out
}

// keySimilarity is |a ∩ b| / |a ∪ b|, except that a subset or superset
// relation counts as full similarity.
func keySimilarity(a, b *set.Set[string]) float64 {
	if a.Subset(b) || b.Subset(a) {
		return 1.0
	}
	union := a.Union(b).Size()
	if union == 0 {
		return 1.0
	}
	return float64(a.Intersect(b).Size()) / float64(union)
}
