package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"qiyas/internal/domain"
	"qiyas/internal/reasoning"
)

// Reasoner is the server-facing subset of the engine.
type Reasoner interface {
	Reason(ctx context.Context, question string) (domain.ReasoningResult, error)
}

type askRequest struct {
	Question string `json:"question"`
}

type sourceResponse struct {
	Reference  string            `json:"reference"`
	Text       string            `json:"text"`
	Context    map[string]string `json:"context"`
	Chapter    string            `json:"chapter"`
	Topics     []string          `json:"topics"`
	Principles []string          `json:"principles"`
}

type askResponse struct {
	Question   string           `json:"question"`
	Sources    []sourceResponse `json:"sources"`
	Reasoning  string           `json:"reasoning"`
	Verdict    string           `json:"verdict"`
	Confidence float64          `json:"confidence"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds the HTTP front end around a reasoner.
func New(reasoner Reasoner) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	h := &handler{reasoner: reasoner}
	e.POST("/ask", h.ask)
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e
}

type handler struct {
	reasoner Reasoner
}

// ask answers one question. Validation problems come back as 400 with
// a user-facing message; infrastructure failures are logged with full
// context but surface as a generic 500, leaking no internal detail.
func (h *handler) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	result, err := h.reasoner.Reason(c.Request().Context(), req.Question)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuestion) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "please ask a question"})
		}
		slog.Error("reasoning request failed", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "an error occurred processing your question"})
	}

	verdict, _ := reasoning.ParseConclusion(result.Reasoning)
	resp := askResponse{
		Question:   result.Question,
		Sources:    make([]sourceResponse, 0, len(result.RelevantSources)),
		Reasoning:  result.Reasoning,
		Verdict:    string(verdict),
		Confidence: result.ConfidenceScore,
	}
	for _, src := range result.RelevantSources {
		resp.Sources = append(resp.Sources, sourceResponse{
			Reference:  src.Reference,
			Text:       src.Text,
			Context:    src.Context,
			Chapter:    src.Meta.Chapter,
			Topics:     src.Topics,
			Principles: src.Principles,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
