package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"leadflow-go/internal/apperr"
	"leadflow-go/internal/config"
	"leadflow-go/internal/crm"
	"leadflow-go/internal/dataset"
	"leadflow-go/internal/logger"
	"leadflow-go/internal/marketing"
	"leadflow-go/internal/model"
	"leadflow-go/internal/pipeline"
	"leadflow-go/internal/processor"
	"leadflow-go/internal/transport"
	"leadflow-go/internal/types"
)

const (
	maxBodyBytes  = 1 << 20
	maxBatchLeads = 500
	demoLeads     = 5
)

func main() {
	cfg, err := config.Load() // loads .env
	if err != nil {
		logger.New().WithError(err).Fatal("invalid configuration")
	}

	log := logger.NewWith(cfg.Environment, cfg.LogLevel)
	log.WithField("service", "leadflow-go").Info("starting service")

	// a missing model keeps the server up; every run then fails with ModelNotTrained
	artifact, err := model.Load(cfg.ModelPath)
	if err != nil {
		log.WithError(err).WithField("model_path", cfg.ModelPath).Warn("model not loaded")
		artifact = nil
	}
	scorer := model.NewScorer(artifact)
	log.WithField("model_version", scorer.Version()).WithField("ready", scorer.Ready()).Info("scorer initialised")

	orch := pipeline.New(scorer, newRegistrar(cfg, log), newEnroller(cfg, log),
		pipeline.WithCampaignID(cfg.CampaignID),
		pipeline.WithLogger(log.Entry),
	)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      routes(cfg, scorer, orch, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", srv.Addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func routes(cfg *config.Config, scorer *model.Scorer, orch processor.LeadProcessor, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		log.WithRequest(r).Debug("health check")
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"model_loaded":  scorer.Ready(),
			"model_version": scorer.Version(),
		}, nil)
	})

	// single lead
	mux.HandleFunc("POST /leads", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "leads")
		var lead types.LeadRecord
		if err := decodeBody(w, r, &lead); err != nil {
			reqLog.WithError(err).Warn("invalid lead payload")
			http.Error(w, "invalid JSON lead", http.StatusBadRequest)
			return
		}

		res := orch.Process(r.Context(), lead)
		status := http.StatusOK
		if res.Failed() {
			status = apperr.ParseKind(res.ErrorKind).HTTPStatus()
		}
		reqLog.WithField("status", res.Status).
			WithField("stage", res.Stage).
			WithField("duration_ms", res.DurationMs).
			Info("lead processed")
		writeJSON(w, status, res, reqLog)
	})

	// batch
	mux.HandleFunc("POST /leads/batch", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "leads_batch")
		var leads []types.LeadRecord
		if err := decodeBody(w, r, &leads); err != nil {
			reqLog.WithError(err).Warn("invalid batch payload")
			http.Error(w, "invalid JSON lead array", http.StatusBadRequest)
			return
		}
		if len(leads) > maxBatchLeads {
			http.Error(w, "too many leads in batch", http.StatusRequestEntityTooLarge)
			return
		}
		out := processor.ProcessBatch(r.Context(), orch, leads, cfg.BatchConcurrency)
		writeJSON(w, http.StatusOK, out, reqLog)
	})

	// demo endpoint (process first N leads from the dataset for quick demo)
	mux.HandleFunc("GET /demo", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "demo")
		reqLog.Info("demo invoked")
		leads, err := dataset.LoadLeads(cfg.DatasetPath)
		if err != nil {
			reqLog.WithError(err).Error("dataset load error")
			http.Error(w, "dataset load error", http.StatusInternalServerError)
			return
		}
		if len(leads) > demoLeads {
			leads = leads[:demoLeads]
		}
		out := processor.ProcessBatch(r.Context(), orch, leads, cfg.BatchConcurrency)
		writeJSON(w, http.StatusOK, out, reqLog)
	})

	return mux
}

func newTransport(baseURL, apiKey string, cfg *config.Config, log *logrus.Entry) *transport.Client {
	return transport.New(baseURL, apiKey,
		transport.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		transport.WithMaxElapsed(cfg.RetryMaxElapsed),
		transport.WithRateLimit(cfg.OutboundRatePerSec, 1),
		transport.WithLogger(log),
	)
}

func newRegistrar(cfg *config.Config, log *logger.Logger) pipeline.Registrar {
	if cfg.UseMockCRM {
		log.Warn("using in-memory CRM")
		return crm.NewMock()
	}
	l := log.Component("crm")
	return crm.NewClient(newTransport(cfg.CRMBaseURL, cfg.CRMAPIKey, cfg, l), cfg.PhoneRegion, l)
}

func newEnroller(cfg *config.Config, log *logger.Logger) pipeline.Enroller {
	if cfg.UseMockMarketing {
		log.Warn("using in-memory marketing platform")
		return marketing.NewMock()
	}
	l := log.Component("marketing")
	return marketing.NewClient(newTransport(cfg.MarketingBaseURL, cfg.MarketingAPIKey, cfg, l), l)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any, log *logrus.Entry) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil && log != nil {
		log.WithError(err).Error("failed to write response")
	}
}
