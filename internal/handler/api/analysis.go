package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"aether/internal/usecase"
	xhttp "aether/pkg/http"
	xlogger "aether/pkg/logger"
)

// AnalysisHandler exposes the analysis pipeline over HTTP. Expected
// conditions (no data, no anomaly, narrative unavailable) are structured 200
// responses; only a panic in the pipeline reaches the recover middleware.
type AnalysisHandler struct {
	logger        *xlogger.Logger
	analyzer      *usecase.Analyzer
	defaultSymbol string
}

func NewAnalysisHandler(logger *xlogger.Logger, analyzer *usecase.Analyzer, defaultSymbol string) *AnalysisHandler {
	return &AnalysisHandler{logger: logger, analyzer: analyzer, defaultSymbol: defaultSymbol}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Liveness)
	e.GET("/analyze", h.Analyze)
}

// Liveness is the root liveness marker for frontends and probes.
func (h *AnalysisHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "aether engine operational"})
}

type analyzeRequest struct {
	Symbol string `query:"symbol" validate:"omitempty,printascii,max=16"`
}

// Analyze runs the full pipeline for the requested (or configured) symbol.
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	req := &analyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := req.Symbol
	if symbol == "" {
		symbol = h.defaultSymbol
	}

	res := h.analyzer.RunAnalysis(c.Request().Context(), symbol)
	return c.JSON(http.StatusOK, res)
}
