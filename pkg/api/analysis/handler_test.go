package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/core/benchmark"
	"finsight/pkg/core/commentary"
	"finsight/pkg/core/config"
	"finsight/pkg/core/engine"
	"finsight/pkg/core/ingest"
	"finsight/pkg/core/llm"
	"finsight/pkg/core/store"
	"finsight/pkg/models"
)

const reply = `{"executive_summary":"Solid year.","trading_performance":"Margins held.","cashflow_liquidity":"","balance_sheet":"","risks_opportunities":"","talking_points":["Stock levels"]}`

func newServer(t *testing.T, provider llm.Provider) *httptest.Server {
	t.Helper()
	ds, err := benchmark.Default()
	require.NoError(t, err)
	repo, err := store.NewFileRepository(t.TempDir())
	require.NoError(t, err)

	var gen *commentary.Generator
	if provider != nil {
		gen = commentary.New(provider, "")
	}
	h := NewHandler(engine.New(ds), repo, ds, gen, engine.DefaultOptions())
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func demoRequest(t *testing.T) AnalyzeRequest {
	t.Helper()
	in, err := ingest.DemoInput()
	require.NoError(t, err)
	req := AnalyzeRequest{Source: in.Source, Industry: "Retail Trade", Headers: in.Headers}
	for _, row := range in.Rows {
		req.Lines = append(req.Lines, Line{Label: row.Label, Cells: row.Cells, Section: row.Section})
	}
	return req
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAnalyzeAndGet(t *testing.T) {
	srv := newServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/analysis", demoRequest(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.AnalysisResult
	decode(t, resp, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Retail Trade", created.Industry)
	assert.Equal(t, models.GateClear, created.Gate.State)
	assert.Len(t, created.Checks, 6)
	assert.NotEmpty(t, created.Metrics)
	assert.NotEmpty(t, created.Benchmarks)

	resp, err := http.Get(srv.URL + "/api/analysis/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.AnalysisResult
	decode(t, resp, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Len(t, got.Metrics, len(created.Metrics))

	resp, err = http.Get(srv.URL + "/api/analysis")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []store.Summary
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestAnalyze_RequestErrors(t *testing.T) {
	srv := newServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/analysis", "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/analysis", AnalyzeRequest{Headers: []string{"FY2024"}})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "lines are required")

	req := demoRequest(t)
	req.FiscalYearEnd = "someday"
	resp = postJSON(t, srv.URL+"/api/analysis", req)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/analysis", AnalyzeRequest{
		Headers: []string{"FY2024"},
		Lines:   []Line{{Label: "Sales", Cells: []string{"n/a"}}},
	})
	var body errorResponse
	decode(t, resp, &body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Error, "malformed input")

	resp, err = http.Get(srv.URL + "/api/analysis/6f1d8a52-8f7e-4d8f-9a43-0a4b7d1f0c11")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBlockedGateFlow(t *testing.T) {
	srv := newServer(t, &llm.Static{Response: reply})

	req := demoRequest(t)
	for i, l := range req.Lines {
		if l.Label == "Total Current Assets" {
			req.Lines[i].Cells = []string{"555,000", "498,000"}
		}
	}
	resp := postJSON(t, srv.URL+"/api/analysis", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.AnalysisResult
	decode(t, resp, &created)
	assert.Equal(t, models.GateBlocked, created.Gate.State)
	assert.Empty(t, created.Metrics, "metrics withheld while blocked")
	assert.NotEmpty(t, created.Checks)

	resp = postJSON(t, srv.URL+"/api/analysis/"+created.ID+"/commentary", struct{}{})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/analysis/"+created.ID+"/acknowledge", AcknowledgeRequest{})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "acknowledger is required")

	resp = postJSON(t, srv.URL+"/api/analysis/"+created.ID+"/acknowledge", AcknowledgeRequest{By: "reviewer"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var acked models.AnalysisResult
	decode(t, resp, &acked)
	assert.True(t, acked.Gate.Acknowledged)
	assert.NotEmpty(t, acked.Metrics)

	resp = postJSON(t, srv.URL+"/api/analysis/"+created.ID+"/commentary", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var c models.Commentary
	decode(t, resp, &c)
	assert.Equal(t, "static", c.Provider)
	require.Len(t, c.Sections, 2)
	assert.Equal(t, []string{"Stock levels"}, c.TalkingPoints)

	resp, err := http.Get(srv.URL + "/api/analysis/" + created.ID)
	require.NoError(t, err)
	var stored models.AnalysisResult
	decode(t, resp, &stored)
	require.NotNil(t, stored.Commentary)
	assert.Len(t, stored.Commentary.Sections, 2)
}

func TestCommentaryDisabled(t *testing.T) {
	srv := newServer(t, nil)
	resp := postJSON(t, srv.URL+"/api/analysis", demoRequest(t))
	var created models.AnalysisResult
	decode(t, resp, &created)

	resp = postJSON(t, srv.URL+"/api/analysis/"+created.ID+"/commentary", struct{}{})
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func upload(t *testing.T, url, name string, data []byte, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestUpload(t *testing.T) {
	srv := newServer(t, nil)

	resp := upload(t, srv.URL+"/api/analysis/upload", "bayside.csv", ingest.DemoCSV(), map[string]string{"industry": "Construction"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.AnalysisResult
	decode(t, resp, &created)
	assert.Equal(t, "bayside.csv", created.Source)
	assert.Equal(t, "Construction", created.Industry)
	assert.Len(t, created.Periods, 2)

	resp = upload(t, srv.URL+"/api/analysis/upload", "scan.pdf", []byte("%PDF-1.4"), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestIndustriesAndHealth(t *testing.T) {
	srv := newServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/benchmarks/industries")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string][]string
	decode(t, resp, &body)
	assert.Contains(t, body["industries"], "Retail Trade")
	assert.Contains(t, body["industries"], benchmark.FallbackIndustry)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	cfg.Industry = "Hospitality"

	h, err := FromConfig(context.Background(), &cfg)
	require.NoError(t, err)
	assert.Nil(t, h.Commentary)
	assert.Equal(t, "Hospitality", h.Defaults.Industry)
	assert.IsType(t, &store.FileRepository{}, h.Repo)

	cfg.LLM.Provider = "ollama"
	h, err = FromConfig(context.Background(), &cfg)
	require.NoError(t, err)
	assert.NotNil(t, h.Commentary)
}
