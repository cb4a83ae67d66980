package restserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chrissnell/pinchpoint/internal/database"
	"github.com/chrissnell/pinchpoint/internal/report"
	"github.com/chrissnell/pinchpoint/pkg/config"
	"github.com/chrissnell/pinchpoint/pkg/pinch"
	"github.com/chrissnell/pinchpoint/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// AnalyzeRequest is the body of POST /api/v1/analyze. Streams, when given,
// replace the streams of the named problem.
type AnalyzeRequest struct {
	Problem string              `json:"problem,omitempty"`
	DTMin   float64             `json:"dt_min,omitempty"`
	Save    bool                `json:"save,omitempty"`
	Streams []config.StreamData `json:"streams,omitempty"`
}

// ProblemSummary is an entry of GET /api/v1/problems
type ProblemSummary struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	DTMin       float64 `json:"dt_min"`
	Streams     int     `json:"streams"`
}

// Analyze handles POST /api/v1/analyze
func (h *Handlers) Analyze(w http.ResponseWriter, req *http.Request) {
	var body AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if body.DTMin < 0 {
		h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("%w: dt_min %v", pinch.ErrInvalidApproach, body.DTMin))
		return
	}

	defs := body.Streams
	dtMin := h.controller.defaultDTMin
	if body.Problem != "" && len(defs) == 0 {
		problem, err := h.controller.configProvider.GetProblem(body.Problem)
		if err != nil {
			h.writeError(w, req, statusFor(err), err)
			return
		}
		defs = problem.Streams
		dtMin = problem.EffectiveDTMin(dtMin)
	}
	if body.DTMin > 0 {
		dtMin = body.DTMin
	}

	if len(defs) == 0 {
		h.writeError(w, req, http.StatusBadRequest, errors.New("request names no problem and defines no streams"))
		return
	}

	h.analyze(w, req, sourceRequest, body.Problem, defs, dtMin, body.Save)
}

// AnalyzeProblem handles GET /api/v1/problems/{name}/analysis. The query
// parameters dt_min and save=true are honoured.
func (h *Handlers) AnalyzeProblem(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]

	problem, err := h.controller.configProvider.GetProblem(name)
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	dtMin := problem.EffectiveDTMin(h.controller.defaultDTMin)
	if v := req.URL.Query().Get("dt_min"); v != "" {
		dtMin, err = strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("%w: dt_min %q", pinch.ErrInvalidApproach, v))
			return
		}
	}

	h.analyze(w, req, sourceProblem, problem.Name, problem.Streams, dtMin, req.URL.Query().Get("save") == "true")
}

// Metric sources of an analysis
const (
	sourceRequest = "request"
	sourceProblem = "problem"
)

func (h *Handlers) analyze(w http.ResponseWriter, req *http.Request, source, problem string, defs []config.StreamData, dtMin float64, save bool) {
	streams, err := config.BuildStreams(defs)
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	result, err := h.controller.analyzer.Analyze(req.Context(), streams, dtMin)
	h.controller.metrics.ObserveAnalysis(source, len(streams), time.Since(start), err)
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	doc, err := report.NewDocument(problem, streams, result)
	if err != nil {
		h.writeError(w, req, http.StatusInternalServerError, err)
		return
	}

	if save {
		if h.controller.Store == nil {
			h.writeError(w, req, http.StatusConflict, errors.New("run archive is not configured"))
			return
		}
		run := database.NewAnalysisRun(problem, streams, result)
		err = h.controller.Store.SaveRun(req.Context(), run)
		h.controller.metrics.ObserveArchive(err)
		if err != nil {
			h.controller.logger.Errorw("failed to archive analysis run", "problem", problem, "error", err)
			h.writeError(w, req, http.StatusInternalServerError, err)
			return
		}
		doc.RunID = run.ID.String()
	}

	if err := h.formatter.WriteResponse(w, req, doc, nil); err != nil {
		h.controller.logger.Errorf("error encoding analysis response: %v", err)
	}
}

// GetProblems handles GET /api/v1/problems
func (h *Handlers) GetProblems(w http.ResponseWriter, req *http.Request) {
	problems, err := h.controller.configProvider.GetProblems()
	if err != nil {
		h.writeError(w, req, http.StatusInternalServerError, err)
		return
	}

	summaries := make([]ProblemSummary, len(problems))
	for i := range problems {
		summaries[i] = ProblemSummary{
			Name:        problems[i].Name,
			Description: problems[i].Description,
			DTMin:       problems[i].EffectiveDTMin(h.controller.defaultDTMin),
			Streams:     len(problems[i].Streams),
		}
	}

	if err := h.formatter.WriteResponse(w, req, summaries, nil); err != nil {
		h.controller.logger.Errorf("error encoding problems response: %v", err)
	}
}

// GetRun handles GET /api/v1/runs/{id}
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	if h.controller.Store == nil {
		h.writeError(w, req, http.StatusNotFound, errors.New("run archive is not configured"))
		return
	}

	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("invalid run id: %w", err))
		return
	}

	run, err := h.controller.Store.GetRun(req.Context(), id)
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	if err := h.formatter.WriteResponse(w, req, run.Document(), nil); err != nil {
		h.controller.logger.Errorf("error encoding run response: %v", err)
	}
}

// ListRuns handles GET /api/v1/runs?problem=&limit=
func (h *Handlers) ListRuns(w http.ResponseWriter, req *http.Request) {
	if h.controller.Store == nil {
		h.writeError(w, req, http.StatusNotFound, errors.New("run archive is not configured"))
		return
	}

	limit := 0
	if v := req.URL.Query().Get("limit"); v != "" {
		var err error
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
	}

	runs, err := h.controller.Store.ListRuns(req.Context(), req.URL.Query().Get("problem"), limit)
	if err != nil {
		h.writeError(w, req, http.StatusInternalServerError, err)
		return
	}

	summaries := make([]database.RunSummary, len(runs))
	for i := range runs {
		summaries[i] = runs[i].Summary()
	}

	if err := h.formatter.WriteResponse(w, req, summaries, nil); err != nil {
		h.controller.logger.Errorf("error encoding runs response: %v", err)
	}
}

// NotFound answers unknown routes
func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	h.writeError(w, req, http.StatusNotFound, fmt.Errorf("no route for %s", req.URL.Path))
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorw("request failed", "path", req.URL.Path, "error", err)
	} else {
		h.controller.logger.Debugw("request rejected", "path", req.URL.Path, "status", status, "error", err)
	}
	if werr := h.formatter.WriteError(w, req, status, err.Error()); werr != nil {
		h.controller.logger.Errorf("error encoding error response: %v", werr)
	}
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, config.ErrProblemNotFound), errors.Is(err, database.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, pinch.ErrInvalidStream), errors.Is(err, pinch.ErrInvalidApproach), errors.Is(err, pinch.ErrDegenerateNetwork):
		return http.StatusBadRequest
	case errors.Is(err, pinch.ErrNumericDivergence):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
