package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"spcpulse/internal/dataprocessing"
	apierrors "spcpulse/internal/errors"
	"spcpulse/internal/exporter"
	"spcpulse/internal/middleware"
	"spcpulse/internal/services"
	"spcpulse/internal/spc"
	api "spcpulse/pkg/contracts/api/v1"
)

// Content types served by the export endpoints.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// defaultUploadMemory is how much of a multipart upload is kept in memory.
const defaultUploadMemory = 8 << 20

// AnalysisHandler handles SPC HTTP requests
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	csvWriter    *exporter.CSVWriter
	logger       *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		csvWriter:    exporter.NewCSVWriter(exporter.WriteOptions{BOMPrefix: true}, logger),
		logger:       logger.With(slog.String("handler", "analysis")),
	}
}

// RegisterRoutes registers the SPC routes
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	r.Route("/spc", func(r chi.Router) {
		r.Post("/analyze", h.Analyze)
		r.Post("/analyze/upload", h.AnalyzeUpload)
		r.Post("/limits", h.Limits)
		r.Post("/capability", h.Capability)
		r.Post("/detect", h.Detect)
		r.Post("/summary", h.Summary)
		r.Get("/constants", h.ConstantsTable)
		r.Get("/constants/{n}", h.Constants)
		r.Get("/simulate", h.Simulate)
		r.Route("/analyses/{id}", func(r chi.Router) {
			r.Get("/", h.GetAnalysis)
			r.Get("/export.csv", h.ExportCSV)
			r.Get("/export.xlsx", h.ExportXLSX)
		})
	})
}

// Analyze handles POST /api/spc/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}

	chart, err := parseChart(req.ChartType)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.runAnalysis(w, r, services.AnalysisRequest{
		Subgroups: req.Subgroups,
		Chart:     chart,
		Spec:      specFromFields(req.SpecLimitsFields),
		Source:    "json",
	})
}

// AnalyzeUpload handles POST /api/spc/analyze/upload
func (h *AnalysisHandler) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(defaultUploadMemory); err != nil {
		h.errorHandler.HandleError(w, r, uploadError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"MISSING_FILE",
			"A file field named \"file\" is required",
			err.Error(),
		))
		return
	}
	defer file.Close()

	opts, err := uploadOptions(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(opts); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	parser := dataprocessing.NewParser(h.logger)
	var rows [][]float64
	if opts.Sheet != "" && strings.EqualFold(filepath.Ext(header.Filename), dataprocessing.FormatXLSX) {
		rows, err = parser.ParseExcel(file, opts.Sheet)
	} else {
		rows, err = parser.ParseUpload(header.Filename, file)
	}
	if err != nil {
		h.logger.WarnContext(r.Context(), "upload parsing failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	chart, err := parseChart(opts.ChartType)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.runAnalysis(w, r, services.AnalysisRequest{
		Subgroups: rows,
		Chart:     chart,
		Spec:      specFromFields(opts.SpecLimitsFields),
		Source:    "upload:" + filepath.Base(header.Filename),
	})
}

func (h *AnalysisHandler) runAnalysis(w http.ResponseWriter, r *http.Request, req services.AnalysisRequest) {
	result, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/spc/analyses/"+result.ID)
	if result.Cached {
		render.Status(r, http.StatusOK)
	} else {
		render.Status(r, http.StatusCreated)
	}
	render.JSON(w, r, result)
}

// Limits handles POST /api/spc/limits
func (h *AnalysisHandler) Limits(w http.ResponseWriter, r *http.Request) {
	var req api.LimitsRequest
	if !h.decode(w, r, &req) {
		return
	}
	chart, err := parseChart(req.ChartType)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.ComputeLimits(r.Context(), req.Subgroups, chart)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Capability handles POST /api/spc/capability
func (h *AnalysisHandler) Capability(w http.ResponseWriter, r *http.Request) {
	var req api.CapabilityRequest
	if !h.decode(w, r, &req) {
		return
	}
	chart, err := parseChart(req.ChartType)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	spec := spc.SpecLimits{USL: *req.USL, LSL: *req.LSL}
	result, err := h.service.ComputeCapability(r.Context(), req.Subgroups, spec, chart)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Detect handles POST /api/spc/detect
func (h *AnalysisHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req api.DetectRequest
	if !h.decode(w, r, &req) {
		return
	}

	limits := spc.LimitTriple{UCL: *req.UCL, LCL: *req.LCL}
	if req.CL != nil {
		limits.CL = *req.CL
	}
	flags := h.service.Detect(r.Context(), req.Series, limits)
	render.JSON(w, r, api.DetectResponse{
		Flags:   flags.Flags,
		Indices: flags.Indices,
		Count:   flags.Count,
	})
}

// Summary handles POST /api/spc/summary
func (h *AnalysisHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var req api.LimitsRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.Summarize(r.Context(), req.Subgroups)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// ConstantsTable handles GET /api/spc/constants
func (h *AnalysisHandler) ConstantsTable(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.ConstantsTableResponse{
		MinSubgroupSize: spc.MinSubgroupSize,
		MaxSubgroupSize: spc.MaxSubgroupSize,
		Rows:            h.service.ConstantsTable(),
	})
}

// Constants handles GET /api/spc/constants/{n}
func (h *AnalysisHandler) Constants(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "n")
	n, err := strconv.Atoi(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors([]apierrors.ValidationError{
			{Field: "n", Message: fmt.Sprintf("n must be an integer, got %q", raw)},
		}))
		return
	}

	row, err := h.service.Constants(n)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, row)
}

// Simulate handles GET /api/spc/simulate. ?seed= makes the dataset
// reproducible and ?analyze=true also runs the default-chart analysis.
func (h *AnalysisHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	query, err := simulateQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var rng *rand.Rand
	if query.Seed != nil {
		rng = rand.New(rand.NewSource(*query.Seed))
	}
	resp := api.SimulateResponse{
		Subgroups: dataprocessing.Simulate(rng),
		Seed:      query.Seed,
	}

	if query.Analyze {
		result, err := h.service.Analyze(r.Context(), services.AnalysisRequest{
			Subgroups: resp.Subgroups,
			Source:    "simulated",
		})
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		resp.Analysis = result
	}
	render.JSON(w, r, resp)
}

// GetAnalysis handles GET /api/spc/analyses/{id}
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	result, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, result)
}

// ExportCSV handles GET /api/spc/analyses/{id}/export.csv
func (h *AnalysisHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.csvWriter.WriteAnalysis(&buf, result.Analysis); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.attach(w, ContentTypeCSV, fmt.Sprintf("spc-%s.csv", result.ID), buf.Bytes())
}

// ExportXLSX handles GET /api/spc/analyses/{id}/export.xlsx
func (h *AnalysisHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	result, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteWorkbook(&buf, result.Analysis); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.attach(w, ContentTypeXLSX, fmt.Sprintf("spc-%s.xlsx", result.ID), buf.Bytes())
}

func (h *AnalysisHandler) lookup(w http.ResponseWriter, r *http.Request) (*services.AnalysisResult, bool) {
	id := chi.URLParam(r, "id")
	result, err := h.service.Lookup(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrAnalysisNotFound) {
			err = apierrors.NotFoundError("analysis " + id)
		}
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}
	return result, true
}

func (h *AnalysisHandler) attach(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("export write failed", slog.String("file", filename), slog.String("error", err.Error()))
	}
}

// decode reads a JSON body into dst and validates it. It renders the error
// and returns false on failure.
func (h *AnalysisHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		var maxErr *http.MaxBytesError
		if !errors.As(err, &maxErr) {
			err = apierrors.InvalidRequestWithError(err)
		}
		h.errorHandler.HandleError(w, r, err)
		return false
	}
	if err := h.validator.ValidateStruct(dst); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return false
	}
	return true
}

// parseChart maps an empty name to the zero chart, which the service
// replaces with its default.
func parseChart(name string) (spc.ChartType, error) {
	if strings.TrimSpace(name) == "" {
		return 0, nil
	}
	return spc.ParseChartType(name)
}

func specFromFields(f api.SpecLimitsFields) *spc.SpecLimits {
	if !f.HasSpec() {
		return nil
	}
	return &spc.SpecLimits{USL: *f.USL, LSL: *f.LSL}
}

func uploadOptions(r *http.Request) (api.UploadOptions, error) {
	opts := api.UploadOptions{
		ChartType: r.FormValue("chart_type"),
		Sheet:     r.FormValue("sheet"),
	}

	var fieldErrs []apierrors.ValidationError
	parse := func(field string) *float64 {
		raw := strings.TrimSpace(r.FormValue(field))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fieldErrs = append(fieldErrs, apierrors.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s must be a number, got %q", field, raw),
			})
			return nil
		}
		return &v
	}
	opts.USL = parse("usl")
	opts.LSL = parse("lsl")

	if len(fieldErrs) > 0 {
		return opts, apierrors.NewValidationErrors(fieldErrs)
	}
	return opts, nil
}

func simulateQuery(r *http.Request) (api.SimulateQuery, error) {
	var q api.SimulateQuery
	values := r.URL.Query()

	if raw := values.Get("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, apierrors.NewValidationErrors([]apierrors.ValidationError{
				{Field: "seed", Message: "seed must be an integer"},
			})
		}
		q.Seed = &seed
	}
	if raw := values.Get("analyze"); raw != "" {
		analyze, err := strconv.ParseBool(raw)
		if err != nil {
			return q, apierrors.NewValidationErrors([]apierrors.ValidationError{
				{Field: "analyze", Message: "analyze must be true or false"},
			})
		}
		q.Analyze = analyze
	}
	return q, nil
}

// uploadError keeps size violations distinguishable from malformed forms.
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return apierrors.InvalidRequestWithError(err)
}
