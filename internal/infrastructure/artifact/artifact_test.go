package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"startype_service/internal/domain/model"
)

var shippedPipeline = filepath.Join("..", "..", "..", DefaultPath)

const features = `["Temperature (K)","Luminosity(L/Lo)","Radius(R/Ro)","Absolute magnitude(Mv)"]`

func TestLoadShippedPipeline(t *testing.T) {
	p, err := Load(shippedPipeline)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	info := p.Info()
	if info.Source != "artifact:"+shippedPipeline {
		t.Fatalf("source = %q", info.Source)
	}
	if len(info.Classes) != 6 || info.ClassNames["3"] != "Main Sequence" {
		t.Fatalf("info = %+v", info)
	}

	tests := []struct {
		name string
		row  []float64
		want int64
	}{
		{name: "sun", row: []float64{5000, 1.0, 1.0, 4.5}, want: 3},
		{name: "brown dwarf", row: []float64{3068, 0.0024, 0.17, 16.12}, want: 0},
		{name: "red dwarf", row: []float64{3000, 0.001, 0.2, 12}, want: 1},
		{name: "white dwarf", row: []float64{12000, 0.0003, 0.01, 11.5}, want: 2},
		{name: "supergiant", row: []float64{3800, 200000, 120, -5.5}, want: 4},
		{name: "hypergiant", row: []float64{3500, 300000, 1500, -10.5}, want: 5},
	}
	rows := make([][]float64, len(tests))
	for i, tt := range tests {
		rows[i] = tt.row
	}

	labels, err := p.Predict(context.Background(), model.NewTable(rows))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	for i, tt := range tests {
		got, ok := labels[i].Int()
		if !ok || got != tt.want {
			t.Errorf("%s: label = %v, want %d", tt.name, labels[i], tt.want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want not-exist", err)
	}
}

func TestParseRejectsInvalidPipelines(t *testing.T) {
	tree := `{"type":"decision_tree","nodes":[{"feature":0,"threshold":1,"left":1,"right":2},{"class":0},{"class":1}]}`
	tests := map[string]string{
		"unknown field":      `{"name":"m","features":` + features + `,"classes":[0,1],"classifier":` + tree + `,"extra":1}`,
		"missing name":       `{"features":` + features + `,"classes":[0,1],"classifier":` + tree + `}`,
		"wrong features":     `{"name":"m","features":["a","b","c","d"],"classes":[0,1],"classifier":` + tree + `}`,
		"no classes":         `{"name":"m","features":` + features + `,"classifier":` + tree + `}`,
		"fractional class":   `{"name":"m","features":` + features + `,"classes":[0,1.5],"classifier":` + tree + `}`,
		"unknown step":       `{"name":"m","features":` + features + `,"classes":[0,1],"steps":[{"type":"pca"}],"classifier":` + tree + `}`,
		"log column range":   `{"name":"m","features":` + features + `,"classes":[0,1],"steps":[{"type":"log10","columns":[4]}],"classifier":` + tree + `}`,
		"scaler width":       `{"name":"m","features":` + features + `,"classes":[0,1],"steps":[{"type":"standard_scaler","mean":[0],"scale":[1]}],"classifier":` + tree + `}`,
		"zero scale":         `{"name":"m","features":` + features + `,"classes":[0,1],"steps":[{"type":"standard_scaler","mean":[0,0,0,0],"scale":[1,0,1,1]}],"classifier":` + tree + `}`,
		"unknown classifier": `{"name":"m","features":` + features + `,"classes":[0,1],"classifier":{"type":"svm"}}`,
		"class out of range": `{"name":"m","features":` + features + `,"classes":[0,1],"classifier":{"type":"decision_tree","nodes":[{"class":2}]}}`,
		"backward child":     `{"name":"m","features":` + features + `,"classes":[0,1],"classifier":{"type":"decision_tree","nodes":[{"feature":0,"threshold":1,"left":0,"right":1},{"class":1}]}}`,
		"empty forest":       `{"name":"m","features":` + features + `,"classes":[0,1],"classifier":{"type":"random_forest"}}`,
		"leaf and split":     `{"name":"m","features":` + features + `,"classes":[0,1],"classifier":{"type":"decision_tree","nodes":[{"feature":0,"class":0}]}}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRandomForestVoteBreaksTiesLow(t *testing.T) {
	data := `{
		"name": "forest",
		"version": "2",
		"features": ` + features + `,
		"classes": ["cool", "hot"],
		"classifier": {"type": "random_forest", "trees": [
			{"nodes": [{"feature": 0, "threshold": 5000, "left": 1, "right": 2}, {"class": 0}, {"class": 1}]},
			{"nodes": [{"feature": 0, "threshold": 7000, "left": 1, "right": 2}, {"class": 0}, {"class": 1}]},
			{"nodes": [{"class": 1}]},
			{"nodes": [{"feature": 0, "threshold": 4000, "left": 1, "right": 2}, {"class": 0}, {"class": 1}]}
		]}
	}`
	p, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	labels, err := p.Predict(context.Background(), model.NewTable([][]float64{
		{3000, 1, 1, 1},
		{4500, 1, 1, 1},
		{6000, 1, 1, 1},
		{8000, 1, 1, 1},
	}))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	want := []string{"cool", "cool", "hot", "hot"}
	for i, label := range labels {
		if label.String() != want[i] {
			t.Fatalf("label %d = %q, want %q", i, label, want[i])
		}
	}
}

func TestStandardScalerStep(t *testing.T) {
	data := `{
		"name": "scaled",
		"features": ` + features + `,
		"classes": [0, 1],
		"steps": [{"type": "standard_scaler", "mean": [5000, 0, 0, 0], "scale": [1000, 1, 1, 1]}],
		"classifier": {"type": "decision_tree", "nodes": [
			{"feature": 0, "threshold": 0.5, "left": 1, "right": 2}, {"class": 0}, {"class": 1}
		]}
	}`
	p, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	labels, err := p.Predict(context.Background(), model.NewTable([][]float64{{5400, 0, 0, 0}, {5600, 0, 0, 0}}))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if labels[0].String() != "0" || labels[1].String() != "1" {
		t.Fatalf("labels = %v", labels)
	}
}

func TestPredictErrors(t *testing.T) {
	p, err := Load(shippedPipeline)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := p.Predict(context.Background(), model.Table{Columns: []string{"a"}, Rows: [][]float64{{1}}}); err == nil {
		t.Fatal("expected error for mismatched columns")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Predict(ctx, model.NewTable([][]float64{{5000, 1, 1, 4.5}})); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestLog10StepClampsNonPositiveValues(t *testing.T) {
	p, err := Load(shippedPipeline)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	rows := [][]float64{
		{5000, -1, 1, 4.5},
		{5000, 1, -2, 4.5},
		{5000, 0, 0, 4.5},
		{3068, -0.5, -0.1, 12},
	}
	labels, err := p.Predict(context.Background(), model.NewTable(rows))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	want := []string{"3", "3", "3", "2"}
	for i, label := range labels {
		if label.String() != want[i] {
			t.Fatalf("row %d label = %q, want %q", i, label, want[i])
		}
	}
}
