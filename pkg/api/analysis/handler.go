// Package analysis exposes analysis runs over HTTP.
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"

	"finsight/pkg/core/benchmark"
	"finsight/pkg/core/commentary"
	"finsight/pkg/core/engine"
	"finsight/pkg/core/ingest"
	"finsight/pkg/core/llm"
	"finsight/pkg/core/period"
	"finsight/pkg/core/store"
	"finsight/pkg/models"
)

const maxUpload = 32 << 20

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// Line is one statement row in a JSON request.
type Line struct {
	Label   string         `json:"label"`
	Cells   []string       `json:"cells"`
	Section models.Section `json:"section,omitempty" validate:"omitempty,oneof=pl bs cf"`
}

type AnalyzeRequest struct {
	Source        string   `json:"source"`
	Industry      string   `json:"industry"`
	FiscalYearEnd string   `json:"fiscal_year_end"`
	Headers       []string `json:"headers" validate:"required,min=1"`
	Lines         []Line   `json:"lines" validate:"required,min=1,dive"`
}

func (req AnalyzeRequest) input() models.Input {
	in := models.Input{Source: req.Source, Headers: req.Headers}
	for _, l := range req.Lines {
		in.Rows = append(in.Rows, models.SourceRow{Label: l.Label, Cells: l.Cells, Section: l.Section})
	}
	return in
}

type AcknowledgeRequest struct {
	By string `json:"by" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// badRequest marks client errors found before the engine runs.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

// Handler holds dependencies for analysis endpoints.
type Handler struct {
	Engine     *engine.Engine
	Repo       store.Repository
	Benchmarks benchmark.Provider // may be nil
	Commentary *commentary.Generator
	Defaults   engine.Options
}

func NewHandler(eng *engine.Engine, repo store.Repository, bench benchmark.Provider, gen *commentary.Generator, defaults engine.Options) *Handler {
	return &Handler{Engine: eng, Repo: repo, Benchmarks: bench, Commentary: gen, Defaults: defaults}
}

func (h *Handler) options(industry, fye string) (engine.Options, error) {
	opts := h.Defaults
	if industry = strings.TrimSpace(industry); industry != "" {
		opts.Industry = industry
	}
	if strings.TrimSpace(fye) != "" {
		cal, err := period.ParseYearEnd(fye)
		if err != nil {
			return opts, badRequest{err}
		}
		opts.Calendar = cal
	}
	return opts, nil
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, in models.Input, industry, fye string) {
	opts, err := h.options(industry, fye)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Engine.Analyze(r.Context(), in, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Repo.Save(r.Context(), res); err != nil {
		writeError(w, err)
		return
	}
	log.Info().Str("run_id", res.ID).Str("source", res.Source).Str("gate", string(res.Gate.State)).Msg("analysis stored")
	writeJSON(w, http.StatusCreated, res.Redacted())
}

// HandleAnalyze runs an analysis over a JSON statement.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, badRequest{fmt.Errorf("invalid request body: %w", err)})
		return
	}
	if err := requestValidator.Struct(req); err != nil {
		writeError(w, err)
		return
	}
	h.analyze(w, r, req.input(), req.Industry, req.FiscalYearEnd)
}

// HandleUpload runs an analysis over an uploaded export (csv, xlsx, html,
// txt or json) in the "file" form field.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, badRequest{fmt.Errorf("invalid upload: %w", err)})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, badRequest{fmt.Errorf("missing file: %w", err)})
		return
	}
	defer file.Close()

	in, err := ingest.Read(header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	h.analyze(w, r, in, r.FormValue("industry"), r.FormValue("fiscal_year_end"))
}

// HandleGet returns a stored run. Derived figures are withheld while the
// integrity gate is blocked and unacknowledged.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res, err := h.Repo.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Redacted())
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, badRequest{fmt.Errorf("invalid limit %q", s)})
			return
		}
		limit = n
	}
	list, err := h.Repo.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	var req AcknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest{fmt.Errorf("invalid request body: %w", err)})
		return
	}
	if err := requestValidator.Struct(req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Repo.Acknowledge(r.Context(), chi.URLParam(r, "id"), req.By)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Info().Str("run_id", res.ID).Str("by", req.By).Msg("integrity gate acknowledged")
	writeJSON(w, http.StatusOK, res.Redacted())
}

// HandleCommentary generates commentary for a stored run and keeps it with
// the run.
func (h *Handler) HandleCommentary(w http.ResponseWriter, r *http.Request) {
	res, err := h.Repo.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Commentary == nil {
		writeError(w, llm.ErrDisabled)
		return
	}
	c, err := h.Commentary.Generate(r.Context(), res)
	if err != nil {
		writeError(w, err)
		return
	}
	res.Commentary = c
	if err := h.Repo.Save(r.Context(), res); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) HandleIndustries(w http.ResponseWriter, r *http.Request) {
	industries := []string{}
	if h.Benchmarks != nil {
		industries = h.Benchmarks.Industries()
	}
	writeJSON(w, http.StatusOK, map[string][]string{"industries": industries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var validation validator.ValidationErrors
	var bad badRequest
	switch {
	case errors.Is(err, models.ErrMalformedInput):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, commentary.ErrGateBlocked):
		status = http.StatusConflict
	case errors.Is(err, llm.ErrDisabled):
		status = http.StatusServiceUnavailable
	case errors.As(err, &validation), errors.As(err, &bad):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
