package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/inference"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/parse"
	"github.com/cognicore/horn/pkg/horn/store"
)

type answerResponse struct {
	Query  string `json:"query"`
	Result bool   `json:"result"`
	Error  string `json:"error,omitempty"`
}

type runResponse struct {
	ID         string           `json:"id"`
	Source     string           `json:"source,omitempty"`
	StartedAt  string           `json:"started_at"`
	FinishedAt string           `json:"finished_at"`
	Answers    []answerResponse `json:"answers"`
	Derived    []string         `json:"derived,omitempty"`
}

// handlePredicates lists the predicates currently known.
func (s *Server) handlePredicates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"predicates": s.kb.Predicates()})
}

// handleStatements adds facts and rules. Nothing is added if any statement
// fails to parse.
func (s *Server) handleStatements(c *gin.Context) {
	var req struct {
		Statements []string `json:"statements"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	n, err := s.kb.Tell(req.Statements...)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": n})
}

// handleAsk answers ground queries in order.
func (s *Server) handleAsk(c *gin.Context) {
	var req struct {
		Queries []string `json:"queries"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	queries := make([]inference.Literal, 0, len(req.Queries))
	for _, q := range req.Queries {
		lit, err := parse.Literal(q)
		if err != nil {
			handleError(c, err)
			return
		}
		queries = append(queries, lit)
	}

	// Ask only fails on persistence; the answers are still complete.
	res, err := s.kb.Ask(c.Request.Context(), queries, "http "+c.ClientIP())
	if err != nil {
		s.log.Sugar().Warnw("run not persisted", "run_id", res.RunID, "error", err)
	}

	answers := make([]answerResponse, len(res.Answers))
	for i, a := range res.Answers {
		answers[i] = answerResponse{Query: a.Query.String(), Result: a.Result}
		if a.Err != nil {
			answers[i].Error = a.Err.Error()
		}
	}
	c.JSON(http.StatusOK, gin.H{"run_id": res.RunID, "answers": answers})
}

// handleRuns lists recent persisted runs.
func (s *Server) handleRuns(c *gin.Context) {
	limit := store.DefaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	runs, err := s.kb.Runs(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	out := make([]runResponse, len(runs))
	for i, r := range runs {
		out[i] = toRunResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

// handleRun returns one persisted run.
func (s *Server) handleRun(c *gin.Context) {
	run, err := s.kb.Run(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRunResponse(run))
}

func toRunResponse(r store.Run) runResponse {
	out := runResponse{
		ID:         r.ID,
		Source:     r.Source,
		StartedAt:  r.StartedAt.UTC().Format(timeFormat),
		FinishedAt: r.FinishedAt.UTC().Format(timeFormat),
		Answers:    make([]answerResponse, len(r.Answers)),
		Derived:    r.Derived,
	}
	for i, a := range r.Answers {
		out.Answers[i] = answerResponse{Query: a.Query, Result: a.Result, Error: a.Err}
	}
	return out
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

func handleError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, internalerr.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, internalerr.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, internalerr.ErrStoreUnavailable):
		code = http.StatusServiceUnavailable
	case horn.IsIncomplete(err):
		code = http.StatusRequestTimeout
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
