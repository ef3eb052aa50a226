package payrollhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"xinan/internal/domain/payroll"
	"xinan/internal/platform/metrics"
	"xinan/internal/platform/spreadsheet"
	"xinan/internal/requestctx"
	"xinan/internal/transport/http/api"
	"xinan/internal/transport/http/middleware"
	"xinan/internal/transport/http/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	Service     *payroll.Service
	Metrics     *metrics.Collector
	DefaultCity string
	MaxRows     int
	AuthEnabled bool
}

func NewHandler(svc *payroll.Service, collector *metrics.Collector, defaultCity string, maxRows int, authEnabled bool) *Handler {
	return &Handler{
		Service:     svc,
		Metrics:     collector,
		DefaultCity: defaultCity,
		MaxRows:     maxRows,
		AuthEnabled: authEnabled,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Use(middleware.RequireUser(h.AuthEnabled))
		r.Get("/cities", h.handleListCities)
		r.Get("/insurance", h.handleInsuranceQuote)
		r.Get("/template", h.handleTemplate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePayrollRole(h.AuthEnabled))
			r.Post("/batch", h.handleRunBatch)
			r.Post("/batch/import", h.handleImportBatch)
			r.Post("/payslip", h.handlePayslip)
		})
	})
}

type batchPayload struct {
	City       string           `json:"city"`
	StrictCity bool             `json:"strictCity"`
	Rows       []map[string]any `json:"rows"`
}

type batchResponse struct {
	RunID string `json:"runId"`
	payroll.BatchResult
	Summary payroll.BatchSummary `json:"summary"`
}

type payslipPayload struct {
	City   string         `json:"city"`
	Period string         `json:"period"`
	Row    map[string]any `json:"row"`
}

func (h *Handler) handleListCities(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]any{
		"defaultCity": h.DefaultCity,
		"cities":      h.Service.Cities(),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleInsuranceQuote(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	city := h.cityOrDefault(r.URL.Query().Get("city"))
	rawSalary := strings.TrimSpace(r.URL.Query().Get("salary"))

	validator := shared.NewValidator()
	validator.Required("salary", rawSalary, "salary is required")
	var salary decimal.Decimal
	if rawSalary != "" {
		parsed, err := decimal.NewFromString(rawSalary)
		switch {
		case err != nil:
			validator.Add("salary", "salary must be a number")
		case parsed.IsNegative():
			validator.Add("salary", "salary must not be negative")
		default:
			salary = parsed
		}
	}
	if validator.Reject(w, requestID) {
		return
	}

	quote := h.Service.Quote(city, salary)
	if !quote.KnownCity {
		requestctx.Logger(r.Context()).Warn("insurance quote for unknown city", "city", city)
	}
	api.Success(w, quote, requestID)
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := spreadsheet.WriteTemplate(&buf); err != nil {
		requestctx.Logger(r.Context()).Error("render template failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "template_failed", "failed to render template", middleware.GetRequestID(r.Context()))
		return
	}
	writeAttachment(w, xlsxContentType, "payroll-template.xlsx", buf.Bytes())
}

func (h *Handler) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload batchPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	validator := shared.NewValidator()
	validator.Count("rows", len(payload.Rows), 1, h.MaxRows, fmt.Sprintf("between 1 and %d rows are required", h.MaxRows))
	if validator.Reject(w, requestID) {
		return
	}

	rows := make([]payroll.RawRow, len(payload.Rows))
	for i, row := range payload.Rows {
		rows[i] = toRawRow(row)
	}
	city := h.cityOrDefault(payload.City)
	if payload.StrictCity && h.rejectUnknownCity(w, r, city) {
		return
	}
	runID, batch := h.run(r, city, rows)
	api.Success(w, batchResponse{RunID: runID, BatchResult: batch, Summary: batch.Summarize()}, requestID)
}

func (h *Handler) handleImportBatch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	body, format, err := readUpload(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unable to read upload", requestID)
		return
	}

	rows, err := spreadsheet.ReadRows(bytes.NewReader(body), format)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("parse upload failed", "format", format, "err", err)
		api.Fail(w, http.StatusBadRequest, "invalid_spreadsheet", "unable to parse spreadsheet", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Count("rows", len(rows), 1, h.MaxRows, fmt.Sprintf("between 1 and %d rows are required", h.MaxRows))
	if validator.Reject(w, requestID) {
		return
	}

	city := h.cityOrDefault(r.FormValue("city"))
	if r.URL.Query().Get("strictCity") == "true" && h.rejectUnknownCity(w, r, city) {
		return
	}
	runID, batch := h.run(r, city, rows)

	if r.URL.Query().Get("format") == string(spreadsheet.FormatXLSX) {
		var buf bytes.Buffer
		if err := spreadsheet.WriteResults(&buf, batch); err != nil {
			requestctx.Logger(r.Context()).Error("render results failed", "runId", runID, "err", err)
			api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render results", requestID)
			return
		}
		w.Header().Set("X-Run-ID", runID)
		writeAttachment(w, xlsxContentType, fmt.Sprintf("payroll-%s.xlsx", runID), buf.Bytes())
		return
	}
	api.Success(w, batchResponse{RunID: runID, BatchResult: batch, Summary: batch.Summarize()}, requestID)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload payslipPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	validator := shared.NewValidator()
	validator.Required("period", payload.Period, "period is required")
	var period time.Time
	if payload.Period != "" {
		parsed, err := time.Parse("2006-01", payload.Period)
		if err != nil {
			validator.Add("period", "period must be YYYY-MM")
		}
		period = parsed
	}
	if len(payload.Row) == 0 {
		validator.Add("row", "row is required")
	}
	if validator.Reject(w, requestID) {
		return
	}

	city := h.cityOrDefault(payload.City)
	res, err := h.Service.Single(city, toRawRow(payload.Row))
	if err != nil {
		var rowErr *payroll.RowError
		if errors.As(err, &rowErr) {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: rowErr.Field, Reason: rowErr.Message()}})
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
		return
	}

	var buf bytes.Buffer
	if err := h.Service.WritePayslipPDF(&buf, city, period, res); err != nil {
		requestctx.Logger(r.Context()).Error("render payslip failed", "employeeCode", res.EmployeeCode, "err", err)
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to render payslip", requestID)
		return
	}
	writeAttachment(w, "application/pdf", fmt.Sprintf("payslip-%s-%s.pdf", res.EmployeeCode, payload.Period), buf.Bytes())
}

// run executes a batch and reports it to the log and the collector.
func (h *Handler) run(r *http.Request, city string, rows []payroll.RawRow) (string, payroll.BatchResult) {
	logger := requestctx.Logger(r.Context())
	start := time.Now()
	runID, batch := h.Service.Run(city, rows)
	summary := batch.Summarize()

	unknownCity := false
	for _, warning := range batch.Warnings {
		switch warning {
		case payroll.WarningUnknownCity:
			unknownCity = true
			logger.Warn("batch city has no schedule, using fallback", "runId", runID, "city", city)
		case payroll.WarningNegativePay:
			logger.Warn("batch has negative performance pay", "runId", runID, "rows", summary.NegativeRows)
		}
	}
	h.Metrics.RecordBatch(summary.RowsOK, summary.RowsFailed, summary.NegativeRows, unknownCity)
	logger.Info("payroll batch completed",
		"runId", runID,
		"city", city,
		"rows", summary.RowsTotal,
		"failed", summary.RowsFailed,
		"durationMs", time.Since(start).Milliseconds(),
	)
	return runID, batch
}

// rejectUnknownCity answers 422 when strict mode is requested for a city
// without a schedule.
func (h *Handler) rejectUnknownCity(w http.ResponseWriter, r *http.Request, city string) bool {
	err := h.Service.Config().RequireCity(city)
	if err == nil {
		return false
	}
	requestctx.Logger(r.Context()).Warn("strict batch rejected", "city", city)
	api.Fail(w, http.StatusUnprocessableEntity, payroll.WarningUnknownCity, err.Error(), middleware.GetRequestID(r.Context()))
	return true
}

func (h *Handler) cityOrDefault(city string) string {
	if city = strings.TrimSpace(city); city != "" {
		return city
	}
	return h.DefaultCity
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", middleware.GetRequestID(r.Context()))
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// readUpload accepts a multipart "file" part or a raw request body.
func readUpload(r *http.Request) ([]byte, spreadsheet.Format, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", err
		}
		defer file.Close()
		body, err := io.ReadAll(file)
		if err != nil {
			return nil, "", err
		}
		return body, spreadsheet.DetectFormat(header.Filename, header.Header.Get("Content-Type")), nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	return body, spreadsheet.DetectFormat("", contentType), nil
}

// toRawRow converts decoded JSON cells to text keyed by canonical field.
func toRawRow(row map[string]any) payroll.RawRow {
	out := make(payroll.RawRow, len(row))
	for key, value := range row {
		field := payroll.CanonicalField(key)
		switch v := value.(type) {
		case nil:
			out[field] = ""
		case string:
			out[field] = v
		case json.Number:
			out[field] = v.String()
		default:
			out[field] = fmt.Sprint(v)
		}
	}
	return out
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
