package model

import (
	"fmt"
	"strings"
)

type ClassReport struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the hold-out evaluation stored with an artifact.
type Report struct {
	Accuracy  float64       `json:"accuracy"`
	Classes   []ClassReport `json:"classes"`
	TrainSize int           `json:"train_size"`
	TestSize  int           `json:"test_size"`
}

// Evaluate builds a per-class precision/recall report.
func Evaluate(actual, predicted []bool) Report {
	rep := Report{TestSize: len(actual)}
	correct := 0
	for i := range actual {
		if actual[i] == predicted[i] {
			correct++
		}
	}
	if len(actual) > 0 {
		rep.Accuracy = float64(correct) / float64(len(actual))
	}
	rep.Classes = []ClassReport{
		classReport("not_qualified", false, actual, predicted),
		classReport("qualified", true, actual, predicted),
	}
	return rep
}

func classReport(label string, class bool, actual, predicted []bool) ClassReport {
	var tp, fp, fn int
	for i := range actual {
		switch {
		case predicted[i] == class && actual[i] == class:
			tp++
		case predicted[i] == class:
			fp++
		case actual[i] == class:
			fn++
		}
	}
	cr := ClassReport{Label: label, Support: tp + fn}
	if tp+fp > 0 {
		cr.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		cr.Recall = float64(tp) / float64(tp+fn)
	}
	if cr.Precision+cr.Recall > 0 {
		cr.F1 = 2 * cr.Precision * cr.Recall / (cr.Precision + cr.Recall)
	}
	return cr
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-15s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(&b, "%-15s %9.2f %9.2f %9.2f %9d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Fprintf(&b, "%-15s %29.2f %9d\n", "accuracy", r.Accuracy, r.TestSize)
	return b.String()
}
