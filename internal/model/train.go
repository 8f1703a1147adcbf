package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"

	"leadflow-go/internal/features"
	"leadflow-go/internal/types"
)

type TrainOptions struct {
	Version      string
	Schema       features.Schema
	TestFraction float64
	Seed         uint64
	Epochs       int
	LearningRate float64
	L2           float64
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Version:      "lead-qualification-" + time.Now().UTC().Format("20060102"),
		Schema:       features.DefaultSchema(),
		TestFraction: 0.2,
		Seed:         42,
		Epochs:       1000,
		LearningRate: 0.5,
		L2:           1e-4,
	}
}

// Train fits the preprocessor and a logistic regression on a seeded split
// of the labelled leads and evaluates on the held-out part.
func Train(leads []types.LeadRecord, labels []bool, opts TrainOptions) (*Artifact, error) {
	if len(leads) != len(labels) {
		return nil, fmt.Errorf("train: %d leads but %d labels", len(leads), len(labels))
	}
	if len(leads) < 2 {
		return nil, errors.New("train: need at least two labelled leads")
	}
	if opts.Epochs <= 0 || opts.LearningRate <= 0 {
		return nil, errors.New("train: epochs and learning rate must be positive")
	}

	trainIdx, testIdx := split(len(leads), opts.TestFraction, opts.Seed)

	trainLeads := make([]types.LeadRecord, len(trainIdx))
	for i, j := range trainIdx {
		trainLeads[i] = leads[j]
	}
	pre, err := features.Fit(opts.Schema, trainLeads)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	x := make([][]float64, len(trainIdx))
	y := make([]float64, len(trainIdx))
	for i, j := range trainIdx {
		x[i] = pre.Transform(leads[j])
		if labels[j] {
			y[i] = 1
		}
	}
	lr := fitLogistic(x, y, opts)

	a := &Artifact{
		Version:      opts.Version,
		Algorithm:    algorithmLogReg,
		TrainedAt:    time.Now().UTC(),
		Preprocessor: pre,
		Model:        lr,
	}

	predicted := make([]bool, len(testIdx))
	actual := make([]bool, len(testIdx))
	for i, j := range testIdx {
		p, err := a.PredictProbability(types.FeatureVector{SchemaVersion: pre.SchemaVersion, Values: pre.Transform(leads[j])})
		if err != nil {
			return nil, fmt.Errorf("train: evaluate: %w", err)
		}
		predicted[i] = p > 0.5
		actual[i] = labels[j]
	}
	rep := Evaluate(actual, predicted)
	rep.TrainSize = len(trainIdx)
	a.Evaluation = &rep
	return a, nil
}

// split shuffles indices with a seeded source and holds out testFraction of them.
func split(n int, testFraction float64, seed uint64) (train, test []int) {
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	nTest := int(math.Round(float64(n) * testFraction))
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

// fitLogistic runs full-batch gradient descent with L2 on the weights.
func fitLogistic(x [][]float64, y []float64, opts TrainOptions) *LogisticRegression {
	width := len(x[0])
	w := make([]float64, width)
	grad := make([]float64, width)
	var b float64
	n := float64(len(x))

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for i := range grad {
			grad[i] = 0
		}
		var gb float64
		for i, row := range x {
			diff := sigmoid(floats.Dot(w, row)+b) - y[i]
			floats.AddScaled(grad, diff, row)
			gb += diff
		}
		floats.Scale(1/n, grad)
		floats.AddScaled(grad, opts.L2, w)
		floats.AddScaled(w, -opts.LearningRate, grad)
		b -= opts.LearningRate * gb / n
	}
	return &LogisticRegression{Weights: w, Bias: b}
}
