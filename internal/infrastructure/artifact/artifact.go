package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"startype_service/internal/domain/model"
)

// DefaultPath is where the service looks for the trained pipeline.
const DefaultPath = "Pipeline/pipeline_star_type_predictor.json"

const (
	StepLog10          = "log10"
	StepStandardScaler = "standard_scaler"

	ClassifierDecisionTree = "decision_tree"
	ClassifierRandomForest = "random_forest"
)

// File is the on-disk pipeline format.
type File struct {
	Name       string            `json:"name"`
	Version    string            `json:"version"`
	Features   []string          `json:"features"`
	Classes    []model.Label     `json:"classes"`
	ClassNames map[string]string `json:"class_names,omitempty"`
	Steps      []Step            `json:"steps"`
	Classifier Classifier        `json:"classifier"`
}

// Step is one feature transform, applied in file order.
type Step struct {
	Type string `json:"type"`
	// Columns are the feature indexes a log10 step applies to.
	Columns []int   `json:"columns,omitempty"`
	Epsilon float64 `json:"epsilon,omitempty"`
	// Mean and Scale hold one entry per feature for standard_scaler.
	Mean  []float64 `json:"mean,omitempty"`
	Scale []float64 `json:"scale,omitempty"`
}

type Classifier struct {
	Type  string `json:"type"`
	Nodes []Node `json:"nodes,omitempty"`
	Trees []Tree `json:"trees,omitempty"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split when Class is nil and a leaf otherwise. A split sends rows
// with x[Feature] <= Threshold to Left.
type Node struct {
	Feature   *int    `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Class     *int    `json:"class,omitempty"`
}

// LoadError reports an unreadable or inconsistent pipeline file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load pipeline %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads and validates the pipeline at path.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	p, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	p.info.Source = "artifact:" + path
	return p, nil
}

// Parse builds a pipeline from its JSON form.
func Parse(data []byte) (*Pipeline, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}

	trees := [][]Node{f.Classifier.Nodes}
	if f.Classifier.Type == ClassifierRandomForest {
		trees = make([][]Node, len(f.Classifier.Trees))
		for i, t := range f.Classifier.Trees {
			trees[i] = t.Nodes
		}
	}

	return &Pipeline{
		info: model.ModelInfo{
			Name:       f.Name,
			Version:    f.Version,
			Features:   slices.Clone(f.Features),
			Classes:    slices.Clone(f.Classes),
			ClassNames: f.ClassNames,
		},
		steps:   f.Steps,
		trees:   trees,
		classes: f.Classes,
	}, nil
}

func (f *File) validate() error {
	if f.Name == "" {
		return errors.New("name is required")
	}
	if !slices.Equal(f.Features, model.RequiredColumns()) {
		return fmt.Errorf("features %q do not match the required columns %q", f.Features, model.RequiredColumns())
	}
	width := len(f.Features)

	if len(f.Classes) == 0 {
		return errors.New("classes are required")
	}
	for i, c := range f.Classes {
		if c.Kind() == model.LabelNone {
			return fmt.Errorf("class %d is null", i)
		}
	}

	for i, s := range f.Steps {
		switch s.Type {
		case StepLog10:
			if len(s.Columns) == 0 {
				return fmt.Errorf("step %d: log10 needs columns", i)
			}
			for _, c := range s.Columns {
				if c < 0 || c >= width {
					return fmt.Errorf("step %d: column %d out of range", i, c)
				}
			}
			if s.Epsilon < 0 {
				return fmt.Errorf("step %d: negative epsilon", i)
			}
		case StepStandardScaler:
			if len(s.Mean) != width || len(s.Scale) != width {
				return fmt.Errorf("step %d: standard_scaler needs %d means and scales", i, width)
			}
			for j, v := range s.Scale {
				if v == 0 {
					return fmt.Errorf("step %d: zero scale for feature %d", i, j)
				}
			}
		default:
			return fmt.Errorf("step %d: unknown type %q", i, s.Type)
		}
	}

	switch f.Classifier.Type {
	case ClassifierDecisionTree:
		return validateTree(f.Classifier.Nodes, width, len(f.Classes))
	case ClassifierRandomForest:
		if len(f.Classifier.Trees) == 0 {
			return errors.New("random_forest needs trees")
		}
		for i, t := range f.Classifier.Trees {
			if err := validateTree(t.Nodes, width, len(f.Classes)); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown classifier %q", f.Classifier.Type)
	}
}

func validateTree(nodes []Node, width, classes int) error {
	if len(nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, n := range nodes {
		if n.Class != nil {
			if n.Feature != nil {
				return fmt.Errorf("node %d is both a leaf and a split", i)
			}
			if *n.Class < 0 || *n.Class >= classes {
				return fmt.Errorf("node %d: class %d out of range", i, *n.Class)
			}
			continue
		}
		if n.Feature == nil {
			return fmt.Errorf("node %d has neither feature nor class", i)
		}
		if *n.Feature < 0 || *n.Feature >= width {
			return fmt.Errorf("node %d: feature %d out of range", i, *n.Feature)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(nodes) {
				return fmt.Errorf("node %d: child %d must follow its parent", i, child)
			}
		}
	}
	return nil
}
