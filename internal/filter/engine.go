package filter

import (
	"fmt"

	"github.com/jgoulah/waterdash/internal/dataset"
	"github.com/jgoulah/waterdash/pkg/models"
)

// Apply returns the readings of ds that satisfy every constraint in spec,
// in dataset order. An empty dataset or an inverted time range yields an
// empty view.
func Apply(ds *dataset.Dataset, spec Spec) (*View, error) {
	pred, err := Compile(spec)
	if err != nil {
		return nil, err
	}

	if ds.Len() == 0 || spec.Range.Start.After(spec.Range.End) {
		return &View{parent: ds, indices: []int{}}, nil
	}

	indices := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		if pred(ds.At(i)) {
			indices = append(indices, i)
		}
	}

	return &View{parent: ds, indices: indices}, nil
}

// Compile turns spec into a single predicate. Set membership checks come
// before the range comparison.
func Compile(spec Spec) (Predicate, error) {
	for col, values := range spec.Selections {
		if len(values) > 0 && !col.IsCategorical() {
			return nil, fmt.Errorf("%w: %q is not a categorical column", ErrType, col)
		}
	}

	preds := make([]Predicate, 0, len(models.Categorical)+1)
	for _, col := range models.Categorical {
		p, err := In(col, spec.Selections[col])
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	preds = append(preds, Between(spec.Range))

	return All(preds...), nil
}

// View is a read-only projection of a dataset: an index list into the
// parent, with no row storage of its own
type View struct {
	parent  *dataset.Dataset
	indices []int
}

// Len returns the number of matching readings
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return len(v.indices)
}

// At returns the i-th matching reading
func (v *View) At(i int) models.Reading {
	return v.parent.At(v.indices[i])
}

// Each calls fn for every matching reading in dataset order
func (v *View) Each(fn func(i int, r models.Reading)) {
	for i := 0; i < v.Len(); i++ {
		fn(i, v.At(i))
	}
}

// Readings copies the matching readings into a new slice
func (v *View) Readings() []models.Reading {
	out := make([]models.Reading, 0, v.Len())
	v.Each(func(_ int, r models.Reading) {
		out = append(out, r)
	})
	return out
}

// Dataset returns the dataset the view projects
func (v *View) Dataset() *dataset.Dataset {
	return v.parent
}
