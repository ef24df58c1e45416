package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csv-customiser/internal/config"
	"github.com/ginjaninja78/csv-customiser/internal/converter"
	"github.com/ginjaninja78/csv-customiser/internal/metrics"
)

const ordersCSV = `Order ID,Shipping Country,Product Length,Product ID,Product Name,Notes,Product Price,Order Total,Order Postage
1001,United States,10,j6a63izr,12 Month Mag Only Subscription,,£10.00,£12.00,£2.00
1002,United Kingdom,12,pjzmis04,Random Title,call 07700 900123,£25.00,£27.50,£2.50
1003,France,10,ay5cwt7h,12 Month Bundle Subscription,,£19,£21,£2
`

type testServer struct {
	handler  http.Handler
	recorder *metrics.Recorder
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTransformer(t *testing.T, logger *slog.Logger) *converter.Transformer {
	t.Helper()

	rules, err := config.DefaultRules()
	require.NoError(t, err)
	return converter.NewTransformer(converter.NewTables(rules), logger)
}

func newTestServer(t *testing.T, maxUploadBytes int64) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.Server.MaxUploadBytes = maxUploadBytes

	logger := discardLogger()
	recorder := metrics.New()
	conv := converter.New(cfg, newTransformer(t, logger), logger).WithObserver(recorder)

	return &testServer{
		handler:  New(cfg.Server, conv, recorder, "test", logger).Handler(),
		recorder: recorder,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, target, field, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, HealthResponse{Status: "ok", Version: "test"}, health)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestConvert_CSV(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	rec := srv.do(uploadRequest(t, "/api/convert", "file", "orders.csv", []byte(ordersCSV)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(HeaderConversionID))
	assert.Empty(t, rec.Header().Values(HeaderConversionWarning))

	disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, "AUTO_CONVERTED_WEIGHT+IOSS_ADDED_orders.csv", params["filename"])

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Order ID,Shipping Country,Product Length,Product weight,Package Size,Service Code,Product ID,Product Name,Notes,Product Price,Order Total,Order Postage,IOSS", lines[0])
	assert.Equal(t, "1002,United Kingdom,12,0.980,Parcel,TPS48,pjzmis04,,call 07700 900123,,,,", lines[2])
	assert.Equal(t, "1003,France,10,0.490,Large Letter,DG4,ay5cwt7h,12 Month Bundle Subscription,,£19,£21,£2,IM5280003071", lines[3])
}

func TestConvert_XLSX(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	rec := srv.do(uploadRequest(t, "/api/convert?format=XLSX", "file", "orders.csv", []byte(ordersCSV)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	weight, err := f.GetCellValue("Orders", "D2")
	require.NoError(t, err)
	assert.Equal(t, "0.430", weight)
}

func TestConvert_LengthWarningHeader(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	rec := srv.do(uploadRequest(t, "/api/convert", "file", "short.csv", []byte("Country,SKU\nFrance,ay5cwt7h\n")))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{converter.LengthWarning}, rec.Header().Values(HeaderConversionWarning))
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		maxBytes int64
		status   int
		code     string
	}{
		{
			name: "invalid format",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/convert?format=xml", "file", "orders.csv", []byte(ordersCSV))
			},
			status: http.StatusBadRequest,
			code:   CodeInvalidFormat,
		},
		{
			name: "wrong field",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/convert", "upload", "orders.csv", []byte(ordersCSV))
			},
			status: http.StatusBadRequest,
			code:   CodeMissingFile,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(ordersCSV))
				req.Header.Set("Content-Type", "text/csv")
				return req
			},
			status: http.StatusBadRequest,
			code:   CodeMissingFile,
		},
		{
			name: "unsupported extension",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/convert", "file", "orders.txt", []byte(ordersCSV))
			},
			status: http.StatusUnsupportedMediaType,
			code:   CodeUnsupportedFile,
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/convert", "file", "orders.csv", []byte(ordersCSV))
			},
			maxBytes: 16,
			status:   http.StatusRequestEntityTooLarge,
			code:     CodeFileTooLarge,
		},
		{
			name: "empty csv",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/convert", "file", "empty.csv", nil)
			},
			status: http.StatusUnprocessableEntity,
			code:   CodeParseFailed,
		},
		{
			name: "corrupt workbook",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/convert", "file", "orders.xlsx", []byte("not a zip"))
			},
			status: http.StatusUnprocessableEntity,
			code:   CodeParseFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxBytes := tt.maxBytes
			if maxBytes == 0 {
				maxBytes = 1 << 20
			}
			srv := newTestServer(t, maxBytes)

			rec := srv.do(tt.req(t))

			assert.Equal(t, tt.status, rec.Code)
			apiErr := decodeAPIError(t, rec)
			assert.Equal(t, tt.code, apiErr.ErrorCode)
			assert.NotEmpty(t, apiErr.Message)
			assert.Empty(t, rec.Header().Get(HeaderConversionID))
		})
	}
}

func TestInspect(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	rec := srv.do(uploadRequest(t, "/api/inspect", "file", "short.csv", []byte("Country,SKU\nFrance,ay5cwt7h\n")))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report converter.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "short.csv", report.File)
	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, "SKU", report.Resolved["product id"])
	assert.Contains(t, report.Missing, "product length")
	require.NotEmpty(t, report.Warnings)
	assert.Equal(t, converter.LengthWarning, report.Warnings[0].Message)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	rec := srv.do(uploadRequest(t, "/api/convert", "file", "orders.csv", []byte(ordersCSV)))
	require.Equal(t, http.StatusOK, rec.Code)
	srv.do(uploadRequest(t, "/api/convert", "file", "empty.csv", nil))

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `customiser_conversions_total{input="csv",output="csv"} 1`)
	assert.Contains(t, body, "customiser_rows_processed_total 3")
	assert.Contains(t, body, `customiser_rule_outcomes_total{rule="price_redacted"} 1`)
	assert.Contains(t, body, `customiser_conversion_failures_total{input="csv",reason="parse"} 1`)
}

func TestServe_Shutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ReadTimeout = time.Second
	cfg.Server.WriteTimeout = time.Second
	logger := discardLogger()
	conv := converter.New(cfg, newTransformer(t, logger), logger)
	srv := New(cfg.Server, conv, nil, "test", logger)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/api/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + listener.Addr().String() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
