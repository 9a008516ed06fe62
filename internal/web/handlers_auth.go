package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/field-scheduler/internal/auth"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "username and password are required")
		return
	}

	uid, err := s.Auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeErrorMsg(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
			return
		}
		s.Log.Error("authenticate", zap.String("username", req.Username), zap.Error(err))
		writeError(w, err)
		return
	}
	if err := s.Auth.SetSession(w, r, uid); err != nil {
		s.Log.Error("set session", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userId": uid})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

type credentialsRequest struct {
	AccessToken    string `json:"accessToken"`
	TenantEndpoint string `json:"tenantEndpoint"`
}

func (s *Server) handleSetCredentials(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	req.TenantEndpoint = strings.TrimSuffix(strings.TrimSpace(req.TenantEndpoint), "/")
	if req.AccessToken == "" || req.TenantEndpoint == "" {
		writeErrorMsg(w, http.StatusBadRequest, "bad_request", "accessToken and tenantEndpoint are required")
		return
	}

	if err := s.Creds.Save(r.Context(), uid, req.AccessToken, req.TenantEndpoint); err != nil {
		s.Log.Error("save credentials", zap.Int64("user_id", uid), zap.Error(err))
		writeError(w, err)
		return
	}
	// Drop any cached directory state built from the old credential.
	s.cache.drop(uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCredentials(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := s.Creds.Delete(r.Context(), uid); err != nil {
		s.Log.Error("delete credentials", zap.Int64("user_id", uid), zap.Error(err))
		writeError(w, err)
		return
	}
	s.cache.drop(uid)
	w.WriteHeader(http.StatusNoContent)
}
