package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/autherr"
	"github.com/rahal-app/rahal-backend/internal/httputil"
	"github.com/rahal-app/rahal-backend/internal/identity"
	"github.com/rahal-app/rahal-backend/internal/metrics"
	"github.com/rahal-app/rahal-backend/internal/profile"
)

// BearerVerifier verifies the Authorization header of privileged calls.
type BearerVerifier interface {
	VerifyBearer(ctx context.Context, header string) (*identity.Token, error)
}

type Handler struct {
	svc      *Service
	verifier BearerVerifier
	profiles profile.Store
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewHandler(svc *Service, verifier BearerVerifier, profiles profile.Store, logger *zap.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, verifier: verifier, profiles: profiles, logger: logger, metrics: m}
}

type roleResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
}

func (h *Handler) PromoteHandler(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "promote", h.svc.Promote)
}

func (h *Handler) SyncClaimsHandler(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "sync_claims", h.svc.SyncClaims)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, *identity.Token) (profile.Role, error)) {
	tok, err := h.verifier.VerifyBearer(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.metrics.AdminOutcome(op, "unauthorized")
		autherr.Write(w, err)
		return
	}

	role, err := fn(r.Context(), tok)
	if err != nil {
		status := autherr.Status(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("admin operation failed", zap.String("op", op), zap.String("uid", tok.UID), zap.Error(err))
			h.metrics.AdminOutcome(op, "error")
		} else {
			h.metrics.AdminOutcome(op, "forbidden")
		}
		autherr.Write(w, err)
		return
	}

	h.metrics.AdminOutcome(op, "ok")
	httputil.WriteJSON(w, http.StatusOK, roleResponse{Success: true, Role: string(role)})
}

// GetProfileHandler lets an admin read any profile.
func (h *Handler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	p, err := h.profiles.Get(r.Context(), uid)
	if errors.Is(err, profile.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.logger.Error("admin profile lookup failed", zap.String("uid", uid), zap.Error(err))
		autherr.Write(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
