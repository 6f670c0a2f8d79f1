package artifact

import (
	"context"
	"fmt"
	"math"
	"slices"

	"startype_service/internal/domain/model"
)

// Pipeline is a loaded classification pipeline. It is immutable after Parse
// and safe for concurrent use.
type Pipeline struct {
	info    model.ModelInfo
	steps   []Step
	trees   [][]Node
	classes []model.Label
}

var _ model.Predictor = (*Pipeline)(nil)

func (p *Pipeline) Info() model.ModelInfo {
	return p.info
}

// Predict returns one label per row.
func (p *Pipeline) Predict(ctx context.Context, table model.Table) ([]model.Label, error) {
	if !slices.Equal(table.Columns, p.info.Features) {
		return nil, fmt.Errorf("table columns %q do not match model features %q", table.Columns, p.info.Features)
	}

	labels := make([]model.Label, len(table.Rows))
	x := make([]float64, len(p.info.Features))
	for i, row := range table.Rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(row) != len(x) {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), len(x))
		}
		copy(x, row)
		p.transform(x)
		labels[i] = p.classes[p.classify(x)]
	}
	return labels, nil
}

// transform applies the preprocessing steps in place. Negative inputs to a
// log10 step are clamped to zero, so every finite row maps to a class.
func (p *Pipeline) transform(x []float64) {
	for _, s := range p.steps {
		switch s.Type {
		case StepLog10:
			for _, c := range s.Columns {
				x[c] = math.Log10(math.Max(x[c], 0) + s.Epsilon)
			}
		case StepStandardScaler:
			for j := range x {
				x[j] = (x[j] - s.Mean[j]) / s.Scale[j]
			}
		}
	}
}

// classify returns the class index. Forests take a majority vote and break
// ties toward the lowest class index.
func (p *Pipeline) classify(x []float64) int {
	if len(p.trees) == 1 {
		return walk(p.trees[0], x)
	}
	votes := make([]int, len(p.classes))
	for _, tree := range p.trees {
		votes[walk(tree, x)]++
	}
	best := 0
	for c, n := range votes {
		if n > votes[best] {
			best = c
		}
	}
	return best
}

func walk(nodes []Node, x []float64) int {
	i := 0
	for {
		n := nodes[i]
		if n.Class != nil {
			return *n.Class
		}
		if x[*n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
