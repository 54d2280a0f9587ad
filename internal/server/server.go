// Package server exposes the grading protocol over HTTP. Agents POST
// wrapped submissions to /submit; the driver and operators poll /stage
// and /results. The handler is a thin boundary: all grading semantics
// stay in the conductor.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stratus/internal/conductor"
	"stratus/internal/problem"
)

// Config for the HTTP grading handler.
type Config struct {
	Conductor *conductor.Conductor
	Registry  *problem.Registry

	// PromRegistry backs /metrics. Nil uses a fresh private registry,
	// which keeps parallel test servers from colliding on registration.
	PromRegistry *prometheus.Registry
}

// SubmitRequest carries one wrapped agent submission.
type SubmitRequest struct {
	Command string `json:"command" example:"submit(\"Yes\")" doc:"Wrapped command string"`
}

// SubmitResponse is the operator-facing grading verdict.
type SubmitResponse struct {
	Result string `json:"result"`
	Stage  string `json:"stage" doc:"Stage after grading this submission"`
}

// StageResponse reports the protocol position.
type StageResponse struct {
	ProblemID string `json:"problem_id"`
	Stage     string `json:"stage"`
}

// ResultsResponse is the accumulated per-stage outcome map.
type ResultsResponse struct {
	ProblemID string         `json:"problem_id"`
	RunID     string         `json:"run_id"`
	Results   map[string]any `json:"results"`
}

// ProblemsResponse lists registered problem IDs.
type ProblemsResponse struct {
	Problems []string `json:"problems"`
}

// New returns an HTTP handler exposing the grading API.
func New(cfg Config) http.Handler {
	promReg := cfg.PromRegistry
	if promReg == nil {
		promReg = prometheus.NewRegistry()
	}
	metrics := NewMetrics(promReg)

	router := chi.NewRouter()
	router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	api := humachi.New(router, huma.DefaultConfig("Stratus Grading API", "0.1.0"))

	registerHealth(api)
	registerSubmit(api, cfg.Conductor, metrics)
	registerStage(api, cfg.Conductor)
	registerResults(api, cfg.Conductor)
	registerProblems(api, cfg.Registry)

	return router
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerSubmit(api huma.API, c *conductor.Conductor, m *Metrics) {
	huma.Register(api, huma.Operation{
		OperationID: "submit",
		Method:      http.MethodPost,
		Path:        "/submit",
		Summary:     "Grade one wrapped agent submission",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body SubmitRequest `json:"body"`
	}) (*struct {
		Body SubmitResponse `json:"body"`
	}, error) {
		if input.Body.Command == "" {
			return nil, huma.Error400BadRequest("command is required")
		}

		stageBefore := string(c.Stage())
		start := time.Now()
		result := c.AskEnv(ctx, input.Body.Command)
		m.GradingSeconds.Observe(time.Since(start).Seconds())
		m.Submissions.WithLabelValues(stageBefore).Inc()

		return &struct {
			Body SubmitResponse `json:"body"`
		}{Body: SubmitResponse{Result: result, Stage: string(c.Stage())}}, nil
	})
}

func registerStage(api huma.API, c *conductor.Conductor) {
	huma.Register(api, huma.Operation{
		OperationID: "stage",
		Method:      http.MethodGet,
		Path:        "/stage",
		Summary:     "Current protocol stage",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body StageResponse `json:"body"`
	}, error) {
		return &struct {
			Body StageResponse `json:"body"`
		}{Body: StageResponse{ProblemID: c.ProblemID(), Stage: string(c.Stage())}}, nil
	})
}

func registerResults(api huma.API, c *conductor.Conductor) {
	huma.Register(api, huma.Operation{
		OperationID: "results",
		Method:      http.MethodGet,
		Path:        "/results",
		Summary:     "Accumulated stage results for the current run",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ResultsResponse `json:"body"`
	}, error) {
		return &struct {
			Body ResultsResponse `json:"body"`
		}{Body: ResultsResponse{
			ProblemID: c.ProblemID(),
			RunID:     c.RunID(),
			Results:   c.Results(),
		}}, nil
	})
}

func registerProblems(api huma.API, reg *problem.Registry) {
	type problemsQuery struct {
		TaskType string `query:"task_type" doc:"Substring filter over problem IDs"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "problems",
		Method:      http.MethodGet,
		Path:        "/problems",
		Summary:     "List registered problem IDs",
	}, func(ctx context.Context, input *problemsQuery) (*struct {
		Body ProblemsResponse `json:"body"`
	}, error) {
		return &struct {
			Body ProblemsResponse `json:"body"`
		}{Body: ProblemsResponse{Problems: reg.ProblemIDs(input.TaskType)}}, nil
	})
}
