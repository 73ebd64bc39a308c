package mockserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/pharmalink/internal/common"
	"github.com/dmitrijs2005/pharmalink/internal/mockserver/auth"
	"github.com/dmitrijs2005/pharmalink/internal/wire"
)

type ctxKey struct{}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(common.HeaderAuthorization)
		token, ok := strings.CutPrefix(raw, common.BearerPrefix)
		if !ok || token == "" {
			writeDomainError(w, r, http.StatusUnauthorized, common.CodeInvalidToken, "missing bearer token", nil)
			return
		}

		claims, err := auth.ParseToken(token, s.secret)
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			writeDomainError(w, r, http.StatusUnauthorized, common.CodeTokenExpired, "access token expired", nil)
			return
		case err != nil:
			writeDomainError(w, r, http.StatusUnauthorized, common.CodeInvalidToken, "invalid access token", nil)
			return
		case claims.Generation < s.store.currentGeneration():
			writeDomainError(w, r, http.StatusUnauthorized, common.CodeTokenExpired, "access token revoked", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims.UserID)))
	})
}

func (s *Server) issuePair(userID string) (wire.TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.store.currentGeneration(), s.secret, s.cfg.AccessTokenTTL)
	if err != nil {
		return wire.TokenPair{}, err
	}
	refresh, err := s.store.issueRefresh(userID, s.cfg.RefreshTokenTTL)
	if err != nil {
		return wire.TokenPair{}, err
	}
	return wire.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.loginCalls.Add(1)

	var req wire.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var problems []string
	if !strings.Contains(req.Email, "@") {
		problems = append(problems, "email must be an email")
	}
	if req.Password == "" {
		problems = append(problems, "password should not be empty")
	}
	if len(problems) > 0 {
		writeFrameworkError(w, r, http.StatusBadRequest, problems...)
		return
	}

	u, err := s.store.authenticate(req.Email, req.Password)
	if err != nil {
		s.logger.Info(r.Context(), "login rejected", "email", req.Email)
		writeDomainError(w, r, http.StatusUnauthorized, common.CodeInvalidCredentials, "invalid email or password", nil)
		return
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		s.logger.Error(r.Context(), "issuing tokens failed", "err", err)
		writeDomainError(w, r, http.StatusInternalServerError, common.CodeServerError, "could not issue tokens", nil)
		return
	}
	writeData(w, r, http.StatusOK, wire.LoginResponse{TokenPair: pair, User: u}, nil)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	var req wire.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeFrameworkError(w, r, http.StatusBadRequest, "refreshToken should not be empty")
		return
	}

	userID, err := s.store.rotate(req.RefreshToken)
	if err != nil {
		writeDomainError(w, r, http.StatusUnauthorized, common.CodeRefreshTokenInvalid, err.Error(), nil)
		return
	}

	pair, err := s.issuePair(userID)
	if err != nil {
		s.logger.Error(r.Context(), "issuing tokens failed", "err", err)
		writeDomainError(w, r, http.StatusInternalServerError, common.CodeServerError, "could not issue tokens", nil)
		return
	}
	writeData(w, r, http.StatusOK, pair, nil)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req wire.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.store.revokeRefresh(req.RefreshToken)
	writeData(w, r, http.StatusOK, map[string]bool{"loggedOut": true}, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := s.store.userByID(userIDFrom(r.Context()))
	if !ok {
		writeDomainError(w, r, http.StatusUnauthorized, common.CodeInvalidToken, "user no longer exists", nil)
		return
	}
	writeData(w, r, http.StatusOK, u, nil)
}

func positiveInt(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (s *Server) handleListMedicines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var problems []string
	page, ok := positiveInt(q.Get("page"), 1)
	if !ok {
		problems = append(problems, "page must be a positive integer")
	}
	limit, ok := positiveInt(q.Get("limit"), 10)
	if !ok || limit > 100 {
		problems = append(problems, "limit must be between 1 and 100")
	}
	if len(problems) > 0 {
		writeFrameworkError(w, r, http.StatusBadRequest, problems...)
		return
	}

	items, total := s.store.listMedicines(q.Get("search"), page, limit)
	writeData(w, r, http.StatusOK, items, &wire.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	})
}

func (s *Server) handleCreateMedicine(w http.ResponseWriter, r *http.Request) {
	var req wire.CreateMedicineRequest
	if !decodeBody(w, r, &req) {
		return
	}

	details := map[string]string{}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		details["name"] = "name is required"
	}
	if req.Price <= 0 {
		details["price"] = "price must be positive"
	}
	if req.Stock < 0 {
		details["stock"] = "stock must not be negative"
	}
	if len(details) > 0 {
		writeDomainError(w, r, http.StatusBadRequest, common.CodeValidationFailed, "validation failed", details)
		return
	}

	m, err := s.store.addMedicine(req)
	if errors.Is(err, errMedicineExists) {
		writeDomainError(w, r, http.StatusConflict, common.CodeConflict, "a medicine with this name already exists", nil)
		return
	}
	writeData(w, r, http.StatusCreated, m, nil)
}

func (s *Server) handleGetMedicine(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.getMedicine(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, http.StatusNotFound, common.CodeNotFound, "medicine not found", nil)
		return
	}
	writeData(w, r, http.StatusOK, m, nil)
}

func (s *Server) handleDeleteMedicine(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteMedicine(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, http.StatusNotFound, common.CodeNotFound, "medicine not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
