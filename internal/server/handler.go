package server

import (
	"bytes"
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/ginjaninja78/csv-customiser/internal/converter"
	"github.com/ginjaninja78/csv-customiser/internal/validation"
	"github.com/ginjaninja78/csv-customiser/internal/writer"
)

// Response headers set by the convert endpoint.
const (
	HeaderConversionID      = "X-Conversion-ID"
	HeaderConversionWarning = "X-Conversion-Warning"
)

// uploadField is the multipart form field carrying the export.
const uploadField = "file"

// multipartSlack covers the multipart framing around the file itself.
const multipartSlack = 1 << 20

// ConvertHandler serves the conversion endpoints.
type ConvertHandler struct {
	converter      *converter.Converter
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewConvertHandler creates a ConvertHandler.
func NewConvertHandler(conv *converter.Converter, maxUploadBytes int64, logger *slog.Logger) *ConvertHandler {
	return &ConvertHandler{
		converter:      conv,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "convert")),
	}
}

// Register adds the conversion routes to r.
func (h *ConvertHandler) Register(r chi.Router) {
	r.Post("/convert", h.Convert)
	r.With(render.SetContentType(render.ContentTypeJSON)).Post("/inspect", h.Inspect)
}

// Convert handles POST /api/convert. The converted file is returned as an
// attachment.
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" {
		format = writer.NormalizeFormat(format)
		if format != writer.FormatCSV && format != writer.FormatXLSX {
			h.fail(w, r, NewAPIError(http.StatusBadRequest, CodeInvalidFormat, "format must be csv or xlsx"))
			return
		}
	}

	file, header, apiErr := h.upload(w, r)
	if apiErr != nil {
		h.fail(w, r, apiErr)
		return
	}
	defer file.Close()

	t, err := h.converter.Convert(header.Filename, file)
	if err != nil {
		h.fail(w, r, errorFor(err))
		return
	}

	var buf bytes.Buffer
	if err := h.converter.Export(&buf, t, format); err != nil {
		h.logger.ErrorContext(r.Context(), "export failed", slog.String("error", err.Error()))
		h.fail(w, r, errorFor(err))
		return
	}
	h.converter.Observe(header.Filename, format, t)

	id := uuid.NewString()
	outputName := h.converter.OutputFileName(header.Filename, format)

	w.Header().Set("Content-Type", writer.ContentType(h.converter.OutputFormat(format)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": outputName}))
	w.Header().Set(HeaderConversionID, id)
	for _, warning := range validation.UserVisible(t.Warnings) {
		w.Header().Add(HeaderConversionWarning, warning.Message)
	}

	h.logger.InfoContext(r.Context(), "conversion complete",
		slog.String("conversion_id", id),
		slog.String("file", header.Filename),
		slog.String("output", outputName),
		slog.Int("rows", t.Stats.Rows),
		slog.Int("prices_redacted", t.Stats.PricesRedacted))

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write response", slog.String("error", err.Error()))
	}
}

// Inspect handles POST /api/inspect and returns the column discovery report
// for the uploaded export.
func (h *ConvertHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	file, header, apiErr := h.upload(w, r)
	if apiErr != nil {
		h.fail(w, r, apiErr)
		return
	}
	defer file.Close()

	ds, err := h.converter.Parse(header.Filename, file)
	if err != nil {
		h.fail(w, r, errorFor(err))
		return
	}

	render.JSON(w, r, h.converter.Inspect(ds))
}

// upload extracts and validates the uploaded file.
func (h *ConvertHandler) upload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, *APIError) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartSlack)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			return nil, nil, NewAPIError(http.StatusRequestEntityTooLarge, CodeFileTooLarge, "upload exceeds size limit")
		}
		return nil, nil, NewAPIError(http.StatusBadRequest, CodeMissingFile, "expected a multipart upload with a \"file\" field")
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, nil, NewAPIError(http.StatusBadRequest, CodeMissingFile, "missing \"file\" field")
	}

	if err := validation.ValidateUpload(header.Filename, header.Size, h.maxUploadBytes); err != nil {
		file.Close()
		return nil, nil, errorFor(err)
	}

	return file, header, nil
}

func (h *ConvertHandler) fail(w http.ResponseWriter, r *http.Request, apiErr *APIError) {
	level := slog.LevelWarn
	if apiErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request rejected",
		slog.Int("status", apiErr.StatusCode),
		slog.String("error_code", apiErr.ErrorCode),
		slog.String("message", apiErr.Message))

	_ = render.Render(w, r, apiErr)
}
