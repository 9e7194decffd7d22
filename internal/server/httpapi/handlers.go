package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/server/services"
)

const (
	detailEmailRegistered = "Email already registered"
	detailRoleExists      = "Role already exists"
	welcomeMessage        = "Welcome to the Guardian API"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createRoleRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type healthResponse struct {
	APIStatus string `json:"api_status"`
	DBStatus  string `json:"db_status"`
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
// Any other shape yields "", which the services treat as unauthenticated.
func bearerToken(r *http.Request) string {
	header := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, common.AuthChallengeScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// page reads skip/limit, falling back to 0 and services.DefaultPageLimit.
func page(r *http.Request) (int, int, bool) {
	skip, limit := 0, services.DefaultPageLimit
	q := r.URL.Query()

	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		limit = n
	}
	return skip, limit, true
}

func (s *Server) recordOutcome(operation string, err error) {
	if s.metrics != nil {
		s.metrics.AuthOutcome(operation, outcome(err))
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

// handleHealth always answers 200; db_status reports whether the store pings.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{APIStatus: "ok", DBStatus: "ok"}

	ctx, cancel := context.WithTimeout(r.Context(), s.pingTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error(r.Context(), "database connection failed", "error", err)
		resp.DBStatus = "error"
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	identity, err := s.auth.Register(r.Context(), req.Email, req.Password)
	s.recordOutcome("register", err)
	if err != nil {
		writeServiceError(w, err, detailEmailRegistered)
		return
	}

	writeJSON(w, http.StatusOK, identity)
}

// handleLogin accepts the OAuth2 password form (username, password) or a
// JSON body with email and password.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid form body")
			return
		}
		req.Email = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	s.recordOutcome("login", err)
	if err != nil {
		if errors.Is(err, common.ErrorBadCredentials) {
			s.logger.Warn(r.Context(), "login rejected", "request_id", requestID(r.Context()))
		}
		writeServiceError(w, err, "")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := page(r)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "skip and limit must be integers")
		return
	}

	identities, err := s.identities.List(r.Context(), bearerToken(r), skip, limit)
	s.recordOutcome("list_users", err)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, identities)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identities.Me(r.Context(), bearerToken(r))
	s.recordOutcome("me", err)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, identity)
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	role, err := s.roles.Create(r.Context(), bearerToken(r), req.Name, req.Description)
	s.recordOutcome("create_role", err)
	if err != nil {
		writeServiceError(w, err, detailRoleExists)
		return
	}

	writeJSON(w, http.StatusOK, role)
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := page(r)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "skip and limit must be integers")
		return
	}

	roles, err := s.roles.List(r.Context(), bearerToken(r), skip, limit)
	s.recordOutcome("list_roles", err)
	if err != nil {
		writeServiceError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, roles)
}
