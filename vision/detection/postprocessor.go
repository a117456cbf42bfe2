package detection

import "github.com/samber/lo"

// Postprocessor defines a function that filters/modifies incoming instances.
type Postprocessor func(*Instances) *Instances

// NewScoreFilter returns a function that filters out instances below a certain confidence.
func NewScoreFilter(conf float64) Postprocessor {
	return func(in *Instances) *Instances {
		return in.Select(lo.Filter(lo.Range(in.Len()), func(i, _ int) bool {
			return in.Scores[i] >= conf
		}))
	}
}

// NewClassFilter returns a function that keeps only instances of the given classes.
func NewClassFilter(classes ...int) Postprocessor {
	return func(in *Instances) *Instances {
		return in.Select(lo.Filter(lo.Range(in.Len()), func(i, _ int) bool {
			return lo.Contains(classes, in.Classes[i])
		}))
	}
}

// NewAreaFilter returns a function that filters out instances below a certain box area.
func NewAreaFilter(area float64) Postprocessor {
	return func(in *Instances) *Instances {
		return in.Select(lo.Filter(lo.Range(in.Len()), func(i, _ int) bool {
			return in.Boxes[i].Area() >= area
		}))
	}
}

// Chain applies postprocessors left to right.
func Chain(pps ...Postprocessor) Postprocessor {
	return func(in *Instances) *Instances {
		for _, pp := range pps {
			in = pp(in)
		}
		return in
	}
}
