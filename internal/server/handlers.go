package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/edaloom-cli/internal/analysis"
	"github.com/KaramelBytes/edaloom-cli/internal/metrics"
	"github.com/KaramelBytes/edaloom-cli/internal/parser"
	"github.com/KaramelBytes/edaloom-cli/internal/report"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

// HandleAnalyze parses the request body as a dataset and returns its report.
//
// Query parameters: type (csv|tsv|xlsx), name, sheet, delimiter, format (default json).
// A Content-Encoding of gzip or zstd is decoded before parsing.
func (s *Server) HandleAnalyze(c echo.Context) error {
	start := time.Now()
	req := c.Request()

	format, err := report.ParseFormat(defaultString(c.QueryParam("format"), string(report.JSON)))
	if err != nil {
		return NewBadRequestError("invalid format", err)
	}
	delim, err := parser.ParseDelimiter(c.QueryParam("delimiter"))
	if err != nil {
		return NewBadRequestError("invalid delimiter", err)
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return NewBadRequestError("failed to read request body", err)
	}
	if len(body) == 0 {
		return NewValidationError("body")
	}
	name := datasetName(c)
	if enc := strings.TrimSpace(req.Header.Get(echo.HeaderContentEncoding)); enc != "" {
		body, err = parser.DecompressLimit(strings.ToLower(enc), body, s.maxBody)
		if err != nil {
			switch {
			case errors.Is(err, parser.ErrTooLarge):
				return NewPayloadTooLargeError(err)
			case errors.Is(err, parser.ErrUnsupported):
				return NewUnsupportedMediaError("unsupported content encoding", err)
			}
			return NewBadRequestError("failed to decode request body", err)
		}
		// already decoded; a .gz/.zst name must not trigger a second pass
		name, _ = parser.SplitEncoding(name)
	}

	tbl, err := parser.ParseBytes(name, body, parser.Options{
		Delimiter:      delim,
		SheetName:      c.QueryParam("sheet"),
		MaxDecodedSize: s.maxBody,
	})
	if err != nil {
		metrics.Observe("http", 0, time.Since(start), err)
		if errors.Is(err, parser.ErrTooLarge) {
			return NewPayloadTooLargeError(err)
		}
		if errors.Is(err, parser.ErrUnsupported) {
			return NewUnsupportedMediaError("unsupported dataset format", err)
		}
		return NewBadRequestError("failed to parse dataset", err)
	}

	rep, err := analysis.Analyze(tbl, s.opts)
	metrics.Observe("http", tbl.NumRows(), time.Since(start), err)
	if err != nil {
		return NewInternalError("analysis failed", err)
	}
	rep.Name = c.QueryParam("name")

	out, err := report.Render(rep, format)
	if err != nil {
		return NewInternalError("failed to render report", err)
	}
	s.log.Debug("analyzed dataset",
		zap.String("name", name),
		zap.Int("rows", rep.Rows),
		zap.Int("columns", len(rep.Headers)),
		zap.String("format", string(format)),
	)
	return c.Blob(http.StatusOK, format.ContentType(), out)
}

// datasetName picks a file name whose extension selects the parser: the type
// query parameter, then the Content-Type header, then the name parameter, then csv.
func datasetName(c echo.Context) string {
	if typ := strings.ToLower(strings.TrimSpace(c.QueryParam("type"))); typ != "" {
		return "upload." + strings.TrimPrefix(typ, ".")
	}
	if mt, _, err := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType)); err == nil {
		switch mt {
		case "text/csv":
			return "upload.csv"
		case "text/tab-separated-values":
			return "upload.tsv"
		case mimeXLSX:
			return "upload.xlsx"
		}
	}
	if name := c.QueryParam("name"); filepath.Ext(name) != "" {
		return filepath.Base(name)
	}
	return "upload.csv"
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
