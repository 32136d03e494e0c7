package server

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaramelBytes/edaloom-cli/internal/config"
	"github.com/KaramelBytes/edaloom-cli/internal/metrics"
	"github.com/klauspost/compress/zstd"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "age,income,city\n25,30000,Paris\n35,45000,Lyon\n45,50000,Paris\n"

func newTestServer() *Server {
	return New(config.Defaults(), nil, "test")
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr), rec.Body.String())
	return apiErr
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer()
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestHandleAnalyze_JSON(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze?name=people.csv", strings.NewReader(sampleCSV))
	req.Header.Set(echo.HeaderContentType, "text/csv")
	rec := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/json")

	var doc struct {
		Name         string              `json:"name"`
		Rows         int                 `json:"rows"`
		Headers      []string            `json:"headers"`
		Types        []string            `json:"types"`
		Correlations map[string]*float64 `json:"correlations"`
		Insights     []struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "people.csv", doc.Name)
	assert.Equal(t, 3, doc.Rows)
	assert.Equal(t, []string{"age", "income", "city"}, doc.Headers)
	assert.Equal(t, []string{"numeric", "numeric", "categorical"}, doc.Types)
	require.Contains(t, doc.Correlations, "age__income")
	require.NotNil(t, doc.Correlations["age__income"])
	assert.InDelta(t, 0.8678, *doc.Correlations["age__income"], 1e-3)
	require.NotEmpty(t, doc.Insights)
	assert.Equal(t, "Dataset contains 3 rows and 3 columns", doc.Insights[0].Message)
}

func TestHandleAnalyze_Formats(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		contentType string
		contains    string
	}{
		{name: "markdown", query: "format=markdown", contentType: "text/markdown", contains: "[DATASET SUMMARY]"},
		{name: "yaml", query: "format=yaml", contentType: "application/yaml", contains: "rows: 3"},
		{name: "msgpack", query: "format=msgpack", contentType: "application/msgpack"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			req := httptest.NewRequest(http.MethodPost, "/api/analyze?"+tt.query, strings.NewReader(sampleCSV))
			rec := do(t, s, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get(echo.HeaderContentType), tt.contentType)
			assert.NotEmpty(t, rec.Body.Bytes())
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}

func TestHandleAnalyze_ContentEncoding(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll([]byte(sampleCSV), nil)
	require.NoError(t, enc.Close())

	for encoding, body := range map[string][]byte{"gzip": gz.Bytes(), "zstd": zst} {
		t.Run(encoding, func(t *testing.T) {
			s := newTestServer()
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
			req.Header.Set(echo.HeaderContentEncoding, encoding)
			rec := do(t, s, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"rows": 3`)
		})
	}
}

func TestHandleAnalyze_TSVAndDelimiter(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze?type=tsv", strings.NewReader("a\tb\n1\t2\n3\t4\n"))
	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"a__b"`)

	req = httptest.NewRequest(http.MethodPost, "/api/analyze?delimiter=semicolon", strings.NewReader("a;b\n1;2\n3;5\n"))
	rec = do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"a__b"`)
}

func TestHandleAnalyze_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"x", "y"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{1, 2}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{2, 4}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze?sheet=sheet1", bytes.NewReader(buf.Bytes()))
	req.Header.Set(echo.HeaderContentType, mimeXLSX)
	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"x__y"`)
}

func TestHandleAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		encoding   string
		wantStatus int
		errCode    string
	}{
		{name: "empty body", target: "/api/analyze", body: "", wantStatus: http.StatusBadRequest, errCode: "VALIDATION_ERROR"},
		{name: "bad format", target: "/api/analyze?format=pdf", body: sampleCSV, wantStatus: http.StatusBadRequest, errCode: "BAD_REQUEST"},
		{name: "bad delimiter", target: "/api/analyze?delimiter=ab", body: sampleCSV, wantStatus: http.StatusBadRequest, errCode: "BAD_REQUEST"},
		{name: "legacy xls", target: "/api/analyze?type=xls", body: sampleCSV, wantStatus: http.StatusUnsupportedMediaType, errCode: "UNSUPPORTED_MEDIA_TYPE"},
		{name: "unknown encoding", target: "/api/analyze", body: sampleCSV, encoding: "br", wantStatus: http.StatusUnsupportedMediaType, errCode: "UNSUPPORTED_MEDIA_TYPE"},
		{name: "corrupt gzip", target: "/api/analyze", body: sampleCSV, encoding: "gzip", wantStatus: http.StatusBadRequest, errCode: "BAD_REQUEST"},
		{name: "corrupt xlsx", target: "/api/analyze?type=xlsx", body: sampleCSV, wantStatus: http.StatusBadRequest, errCode: "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			if tt.encoding != "" {
				req.Header.Set(echo.HeaderContentEncoding, tt.encoding)
			}
			rec := do(t, s, req)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.errCode, decodeError(t, rec).Code)
		})
	}
}

func TestHandleAnalyze_BodyLimit(t *testing.T) {
	cfg := config.Defaults()
	cfg.ServerBodyLimit = "16B"
	s := New(cfg, nil, "test")
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(sampleCSV))
	rec := do(t, s, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "HTTP_ERROR", decodeError(t, rec).Code)
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestHandleAnalyze_DecodedBodyLimit(t *testing.T) {
	plain := []byte("a,b\n" + strings.Repeat("1,2\n", 1<<20))
	bomb := gzipped(t, plain)
	require.Less(t, len(bomb), 64<<10)

	cfg := config.Defaults()
	cfg.ServerBodyLimit = "64K"

	tests := []struct {
		name     string
		target   string
		encoding string
	}{
		{name: "content encoding", target: "/api/analyze", encoding: "gzip"},
		{name: "compressed name", target: "/api/analyze?name=big.csv.gz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(cfg, nil, "test")
			req := httptest.NewRequest(http.MethodPost, tt.target, bytes.NewReader(bomb))
			if tt.encoding != "" {
				req.Header.Set(echo.HeaderContentEncoding, tt.encoding)
			}
			rec := do(t, s, req)
			require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
			assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeError(t, rec).Code)
		})
	}
}

func TestHandleAnalyze_EncodedNameDecodedOnce(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze?name=data.csv.gz", bytes.NewReader(gzipped(t, []byte(sampleCSV))))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"rows": 3`)
	assert.Contains(t, rec.Body.String(), `"name": "data.csv.gz"`)
}

func TestHandleAnalyze_RecordsMetrics(t *testing.T) {
	before := testutil.ToFloat64(metrics.AnalysesTotal.WithLabelValues("http", metrics.StatusSuccess))
	s := newTestServer()
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(sampleCSV)))
	require.Equal(t, http.StatusOK, rec.Code)
	after := testutil.ToFloat64(metrics.AnalysesTotal.WithLabelValues("http", metrics.StatusSuccess))
	assert.Equal(t, before+1, after)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "edaloom_analyses_total")
}

func TestDatasetName(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		contentType string
		want        string
	}{
		{name: "type wins", query: "type=xlsx&name=a.csv", contentType: "text/csv", want: "upload.xlsx"},
		{name: "content type", contentType: "text/tab-separated-values; charset=utf-8", want: "upload.tsv"},
		{name: "name extension", query: "name=dir/sales.tsv.gz", want: "sales.tsv.gz"},
		{name: "default", query: "name=sales", want: "upload.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/analyze?"+tt.query, nil)
			if tt.contentType != "" {
				req.Header.Set(echo.HeaderContentType, tt.contentType)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			assert.Equal(t, tt.want, datasetName(c))
		})
	}
}
