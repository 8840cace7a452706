// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/paper-pipeline/internal/fetch"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// maxRequestBodySize bounds request bodies; paper lists with abstracts can
// be a few megabytes.
const maxRequestBodySize = 16 << 20

// Fetch request defaults, applied when a field is omitted.
const (
	defaultFromYear     = 2020
	defaultToYear       = 2025
	defaultTotalResults = 5
)

// fetchRequest is the JSON body of POST /api/fetch.
type fetchRequest struct {
	Keyword            string `json:"keyword" validate:"required,max=200"`
	AdditionalKeyword  string `json:"additional_keyword" validate:"max=200"`
	AdditionalKeyword2 string `json:"additional_keyword2" validate:"max=200"`
	FromYear           *int   `json:"from_year" validate:"omitempty,gte=1000,lte=9999"`
	ToYear             *int   `json:"to_year" validate:"omitempty,gte=1000,lte=9999"`
	TotalResults       *int   `json:"total_results" validate:"omitempty,gte=1"`
	TitleFilter        *bool  `json:"title_filter"`
	PaperTypeFilter    *bool  `json:"paper_type_filter"`
}

func (req fetchRequest) toFetch() fetch.Request {
	return fetch.Request{
		Keyword:       req.Keyword,
		ExtraKeywords: []string{req.AdditionalKeyword, req.AdditionalKeyword2},
		FromYear:      intOr(req.FromYear, defaultFromYear),
		ToYear:        intOr(req.ToYear, defaultToYear),
		Limit:         intOr(req.TotalResults, defaultTotalResults),
		TitleFilter:   boolOr(req.TitleFilter, true),
		TypeFilter:    boolOr(req.PaperTypeFilter, true),
	}
}

// papersRequest is the JSON body of every endpoint that takes a paper list.
type papersRequest struct {
	Papers []types.Paper `json:"papers"`
}

type fetchResponse struct {
	Success bool          `json:"success"`
	Papers  []types.Paper `json:"papers"`
	Total   int           `json:"total"`
	Message string        `json:"message"`
	Warning string        `json:"warning,omitempty"`
}

type dedupResponse struct {
	Success           bool          `json:"success"`
	Papers            []types.Paper `json:"papers"`
	Removed           int           `json:"removed"`
	RemovedCount      int           `json:"removed_count"`
	Remaining         int           `json:"remaining"`
	DeduplicatedCount int           `json:"deduplicated_count"`
	OriginalCount     int           `json:"original_count"`
	Message           string        `json:"message"`
}

type processResponse struct {
	Success           bool          `json:"success"`
	Papers            []types.Paper `json:"papers"`
	OriginalCount     int           `json:"original_count"`
	DeduplicatedCount int           `json:"deduplicated_count"`
	ProcessedCount    int           `json:"processed_count"`
	Message           string        `json:"message"`
}

type extractResponse struct {
	Papers []types.Paper `json:"papers"`
	Found  int           `json:"found"`
	Total  int           `json:"total"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// fetchPapers handles POST /api/fetch.
func (s *Server) fetchPapers(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := s.decode(r, &req); err != nil {
		s.writeDomainError(w, r, err, "Failed to fetch papers")
		return
	}

	res, err := s.deps.Fetcher.Fetch(r.Context(), req.toFetch())
	if err != nil {
		s.writeDomainError(w, r, err, "Failed to fetch papers")
		return
	}

	resp := fetchResponse{
		Success: true,
		Papers:  nonNil(res.Papers),
		Total:   len(res.Papers),
		Message: fmt.Sprintf("Successfully fetched %d papers", len(res.Papers)),
	}
	if res.StopErr != nil {
		resp.Warning = "fetch stopped early: " + res.StopErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// deduplicate handles POST /api/deduplicate.
func (s *Server) deduplicate(w http.ResponseWriter, r *http.Request) {
	var req papersRequest
	if err := s.decode(r, &req); err != nil {
		s.writeDomainError(w, r, err, "Deduplication failed")
		return
	}
	if len(req.Papers) == 0 {
		s.writeDomainError(w, r, types.ErrNoPapers, "Deduplication failed")
		return
	}

	unique, removed := s.deps.Deduper.Dedupe(req.Papers)
	writeJSON(w, http.StatusOK, dedupResponse{
		Success:           true,
		Papers:            nonNil(unique),
		Removed:           removed,
		RemovedCount:      removed,
		Remaining:         len(unique),
		DeduplicatedCount: len(unique),
		OriginalCount:     len(req.Papers),
		Message:           fmt.Sprintf("%d duplicates removed, %d unique papers remaining", removed, len(unique)),
	})
}

// extractAbstracts handles POST /api/extract-abstracts.
func (s *Server) extractAbstracts(w http.ResponseWriter, r *http.Request) {
	var req papersRequest
	if err := s.decode(r, &req); err != nil {
		s.writeDomainError(w, r, err, "Abstract extraction failed")
		return
	}

	res, err := s.deps.Processor.ExtractAbstracts(r.Context(), req.Papers)
	if err != nil {
		s.writeDomainError(w, r, err, "Abstract extraction failed")
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{
		Papers: nonNil(res.Papers),
		Found:  res.Found,
		Total:  res.Total,
	})
}

// processComplete handles POST /api/process-complete.
func (s *Server) processComplete(w http.ResponseWriter, r *http.Request) {
	var req papersRequest
	if err := s.decode(r, &req); err != nil {
		s.writeDomainError(w, r, err, "Processing failed")
		return
	}

	res, err := s.deps.Processor.Process(r.Context(), req.Papers)
	if err != nil {
		s.writeDomainError(w, r, err, "Processing failed")
		return
	}
	writeJSON(w, http.StatusOK, processResponse{
		Success:           true,
		Papers:            nonNil(res.Papers),
		OriginalCount:     res.OriginalCount,
		DeduplicatedCount: res.DeduplicatedCount,
		ProcessedCount:    res.ProcessedCount,
		Message:           fmt.Sprintf("Successfully processed %d papers", res.ProcessedCount),
	})
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return types.NewValidationError("", "failed to read request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return types.NewValidationError("", "invalid JSON request body")
	}

	err = s.validate.Struct(dst)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return types.NewValidationError(fe.Field(), describe(fe))
	}
	if err != nil {
		return fmt.Errorf("validating request: %w", err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// writeDomainError maps an error to a status and the shared error body.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var ve *types.ValidationError
	switch {
	case errors.Is(err, types.ErrNoPapers):
		writeError(w, http.StatusBadRequest, "No papers provided", message)
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, strings.TrimSpace(ve.Field+" "+ve.Message), message)
	case errors.Is(err, types.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input", message)
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error", message)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, statusCode int, errMsg, message string) {
	writeJSON(w, statusCode, errorResponse{Success: false, Error: errMsg, Message: message})
}

func nonNil(p []types.Paper) []types.Paper {
	if p == nil {
		return []types.Paper{}
	}
	return p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
