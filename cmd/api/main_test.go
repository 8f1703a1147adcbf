package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow-go/internal/config"
	"leadflow-go/internal/crm"
	"leadflow-go/internal/logger"
	"leadflow-go/internal/marketing"
	"leadflow-go/internal/model"
	"leadflow-go/internal/pipeline"
	"leadflow-go/internal/processor"
	"leadflow-go/internal/types"
)

func trainedScorer(t *testing.T) *model.Scorer {
	t.Helper()
	var leads []types.LeadRecord
	var labels []bool
	for i := 0; i < 200; i++ {
		budget := 1000.0 + float64(i)*45
		leads = append(leads, types.LeadRecord{types.FieldAnnualBudget: budget, types.FieldServiceType: "residential"})
		labels = append(labels, budget > 5500)
	}
	opts := model.DefaultTrainOptions()
	opts.Version = "api-test"
	a, err := model.Train(leads, labels, opts)
	require.NoError(t, err)
	return model.NewScorer(a)
}

func newTestServer(t *testing.T, scorer *model.Scorer, datasetPath string) (*httptest.Server, *crm.Mock) {
	t.Helper()
	cfg, err := config.FromLookup(func(k string) (string, bool) {
		if k == "DATASET_PATH" && datasetPath != "" {
			return datasetPath, true
		}
		return "", false
	})
	require.NoError(t, err)

	registrar := crm.NewMock()
	orch := pipeline.New(scorer, registrar, marketing.NewMock())
	srv := httptest.NewServer(routes(cfg, scorer, orch, logger.Nop()))
	t.Cleanup(srv.Close)
	return srv, registrar
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, model.NewScorer(nil), "")
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["model_loaded"])
}

func TestLeads_ModelNotTrained(t *testing.T) {
	t.Parallel()
	srv, registrar := newTestServer(t, model.NewScorer(nil), "")
	resp := post(t, srv.URL+"/leads", `{"name":"Jane Doe","email":"jane.doe@example.com"}`)

	var res types.ProcessingResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "ModelNotTrained", res.ErrorKind)
	assert.Empty(t, registrar.Customers())
}

func TestLeads_Scored(t *testing.T) {
	t.Parallel()
	srv, registrar := newTestServer(t, trainedScorer(t), "")
	resp := post(t, srv.URL+"/leads", `{"name":"Jane Doe","email":"jane.doe@example.com","annual_budget":9900,"service_type":"residential","property_size":"small"}`)

	var res types.ProcessingResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, types.StatusCompleted, res.Status)
	require.NotNil(t, res.LeadInsights)
	assert.Equal(t, "Closet & Room Optimization", res.LeadInsights.MatchedService)
	assert.Len(t, registrar.Customers(), 1)
}

func TestLeads_BadRequests(t *testing.T) {
	t.Parallel()
	srv, registrar := newTestServer(t, trainedScorer(t), "")

	resp := post(t, srv.URL+"/leads", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/leads", `{"name":"No Email","annual_budget":9000}`)
	var res types.ProcessingResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MalformedLead", res.ErrorKind)
	assert.Empty(t, registrar.Customers())
}

func TestLeadsBatch(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, trainedScorer(t), "")
	resp := post(t, srv.URL+"/leads/batch", `[
		{"email":"a@example.com","annual_budget":1200},
		{"name":"missing email"},
		{"email":"c@example.com","annual_budget":9800}
	]`)

	var out processor.BatchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Results, 3)
	assert.True(t, out.Results[1].Failed())
	assert.Equal(t, 3, out.Summary.Total)
	assert.Equal(t, 1, out.Summary.Failed)
}

func TestDemo(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	b.WriteString("name,email,annual_budget\n")
	for i := 0; i < 7; i++ {
		b.WriteString("Lead,lead@example.com,4000\n")
	}
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	srv, _ := newTestServer(t, trainedScorer(t), path)
	resp, err := http.Get(srv.URL + "/demo")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out processor.BatchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out.Results, demoLeads)
}
