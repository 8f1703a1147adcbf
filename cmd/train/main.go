// Command train fits the lead qualification model on a historical export
// and writes the artifact the API loads from MODEL_PATH.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"leadflow-go/internal/dataset"
	"leadflow-go/internal/logger"
	"leadflow-go/internal/model"
)

func main() {
	_ = godotenv.Load()

	opts := model.DefaultTrainOptions()
	data := flag.String("data", envOr("DATASET_PATH", "data/historical_leads.csv"), "historical leads (.csv or .xlsx) with an is_qualified_lead column")
	out := flag.String("out", envOr("MODEL_PATH", "model/lead_model.json"), "artifact output path")
	seed := flag.Uint64("seed", opts.Seed, "shuffle seed for the train/test split")
	testFraction := flag.Float64("test-fraction", opts.TestFraction, "share of rows held out for evaluation")
	epochs := flag.Int("epochs", opts.Epochs, "gradient descent epochs")
	version := flag.String("version", opts.Version, "artifact version")
	flag.Parse()

	log := logger.New().WithField("service", "leadflow-train")

	hist, err := dataset.LoadHistorical(*data)
	if err != nil {
		log.WithError(err).WithField("data", *data).Fatal("failed to load historical leads")
	}
	summary := dataset.Summarize(hist)
	log.WithField("skipped_rows", hist.Skipped).
		WithField("top_channels", summary.TopChannels).
		Info("historical leads loaded")

	opts.Seed = *seed
	opts.TestFraction = *testFraction
	opts.Epochs = *epochs
	opts.Version = *version

	artifact, err := model.Train(hist.Leads, hist.Labels, opts)
	if err != nil {
		log.WithError(err).Fatal("training failed")
	}
	log.WithField("accuracy", artifact.Evaluation.Accuracy).
		WithField("train_size", artifact.Evaluation.TrainSize).
		WithField("test_size", artifact.Evaluation.TestSize).
		Info("model trained")
	fmt.Print(artifact.Evaluation.String())

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.WithError(err).Fatal("failed to create output directory")
		}
	}
	if err := model.Save(*out, artifact); err != nil {
		log.WithError(err).Fatal("failed to save artifact")
	}
	log.WithField("path", *out).WithField("version", artifact.Version).Info("artifact written")
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
