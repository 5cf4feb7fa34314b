package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/joestump/branchsmith/internal/branchname"
	"github.com/joestump/branchsmith/internal/config"
	"github.com/joestump/branchsmith/internal/creator"
	"github.com/joestump/branchsmith/internal/db"
	"github.com/joestump/branchsmith/internal/gitprovider"
	"github.com/joestump/branchsmith/internal/tokens"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON: encode error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIErrorResponse{Error: message})
}

// requireJSON checks the Content-Type header and returns false (with a 415 response) if it is not application/json.
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	return true
}

// decodeJSON reads a JSON body into v, answering 415 or 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if !requireJSON(w, r) {
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// parseLimitOffset extracts limit and offset query params with defaults and validation.
func parseLimitOffset(r *http.Request, defaultLimit int) (limit, offset int, err error) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("limit must be a non-negative integer")
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

// writeCreatorError maps a preview or creation failure onto a status code.
func (s *Server) writeCreatorError(w http.ResponseWriter, op string, err error) {
	msg := s.redactor.Redact(err.Error())

	var verr *creator.ValidationError
	var cerr *creator.ConflictError
	switch {
	case errors.As(err, &verr):
		v := verr.Validation
		writeJSON(w, http.StatusUnprocessableEntity, APIErrorResponse{Error: msg, Validation: &v})
	case errors.Is(err, creator.ErrManualNameDisabled), errors.Is(err, gitprovider.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, msg)
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, APIErrorResponse{Error: msg, Suggestion: cerr.Suggestion})
	case errors.Is(err, gitprovider.ErrNotFound):
		writeError(w, http.StatusNotFound, msg)
	case errors.Is(err, gitprovider.ErrNoProvider):
		writeError(w, http.StatusBadRequest, msg)
	default:
		s.logger.Error(op, "error", msg)
		writeError(w, http.StatusBadGateway, msg)
	}
}

func validBranchRequest(req APIBranchRequest) error {
	if req.RepoOwner == "" || req.RepoName == "" {
		return errors.New("repo_owner and repo_name are required")
	}
	if req.SourceBranch == "" {
		return errors.New("source_branch is required")
	}
	return nil
}

// --- API Handlers ---

// handleAPIHealth reports the version and registered providers.
func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIHealthResponse{
		Status:    "ok",
		Version:   config.Version,
		Providers: s.creator.Registry.Names(),
		DryRun:    s.creator.DryRun,
	})
}

func (s *Server) handleAPITokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APITokensResponse{Tokens: tokens.Known()})
}

// handleAPIPreviewBranch computes a branch name without creating anything.
func (s *Server) handleAPIPreviewBranch(w http.ResponseWriter, r *http.Request) {
	var req APIBranchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.WorkItem == nil && req.WorkItemID == 0 {
		writeError(w, http.StatusBadRequest, "work_item or work_item_id is required")
		return
	}
	if req.WorkItem == nil {
		if err := validBranchRequest(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	p, err := s.creator.Preview(r.Context(), req.toRequest())
	if err != nil {
		s.writeCreatorError(w, "preview branch", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleAPIValidateBranch validates a name against the configured max length.
func (s *Server) handleAPIValidateBranch(w http.ResponseWriter, r *http.Request) {
	var req APIValidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg, _, err := s.rules.Load(r.Context())
	if err != nil {
		s.logger.Error("load rules", "error", err)
		writeError(w, http.StatusInternalServerError, "rules configuration error")
		return
	}
	writeJSON(w, http.StatusOK, branchname.Validate(req.Name, cfg.General.MaxLength))
}

// handleAPICreateBranch creates the branch for a work item.
func (s *Server) handleAPICreateBranch(w http.ResponseWriter, r *http.Request) {
	var req APIBranchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validBranchRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.WorkItemID <= 0 {
		writeError(w, http.StatusBadRequest, "work_item_id must be a positive integer")
		return
	}
	create := req.toRequest()
	create.WorkItem = nil

	res, err := s.creator.Create(r.Context(), create)
	if err != nil {
		s.writeCreatorError(w, "create branch", err)
		return
	}
	status := http.StatusCreated
	if res.DryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// handleAPIListBranches returns the creation history, newest first.
func (s *Server) handleAPIListBranches(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r, 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.history == nil {
		writeJSON(w, http.StatusOK, APIBranchesResponse{Branches: []db.BranchCreation{}})
		return
	}

	branches, err := s.history.ListBranchCreations(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list branch creations", "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if branches == nil {
		branches = []db.BranchCreation{}
	}
	writeJSON(w, http.StatusOK, APIBranchesResponse{Branches: branches})
}

// handleAPIGetConfig returns the effective rules configuration.
func (s *Server) handleAPIGetConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg, warnings, err := s.rules.Load(ctx)
	if err != nil {
		s.logger.Error("load rules", "error", err)
		writeError(w, http.StatusInternalServerError, "rules configuration error")
		return
	}
	stored, err := s.rules.Stored(ctx)
	if err != nil {
		s.logger.Error("load stored rules", "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, APIConfigResponse{Config: cfg, Stored: stored, Warnings: nonNil(warnings)})
}

// handleAPIPutConfig replaces the stored rules override.
func (s *Server) handleAPIPutConfig(w http.ResponseWriter, r *http.Request) {
	var override map[string]any
	if !decodeJSON(w, r, &override) {
		return
	}
	if override == nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return
	}

	cfg, warnings, err := s.rules.Save(r.Context(), override)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, warn := range warnings {
		s.logger.Warn("rules config", "warning", warn)
	}
	writeJSON(w, http.StatusOK, APIConfigResponse{Config: cfg, Stored: override, Warnings: nonNil(warnings)})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
