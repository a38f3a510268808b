package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/autherr"
	"github.com/rahal-app/rahal-backend/internal/httputil"
	"github.com/rahal-app/rahal-backend/internal/metrics"
)

type Handler struct {
	svc     *Service
	cookies CookieConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewHandler(svc *Service, cookies CookieConfig, logger *zap.Logger, m *metrics.Metrics) *Handler {
	if cookies.MaxAge == 0 {
		cookies.MaxAge = SessionLifetime
	}
	return &Handler{svc: svc, cookies: cookies, logger: logger, metrics: m}
}

// CreateSessionHandler exchanges {idToken} for the session cookies.
func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.metrics.SessionOutcome("bad_request")
		autherr.Write(w, autherr.ErrInvalidRequest)
		return
	}

	res, err := h.svc.CreateSession(r.Context(), req.IDToken)
	if err != nil {
		h.metrics.SessionOutcome("rejected")
		autherr.Write(w, err)
		return
	}

	if err := setCookies(w, h.cookies.sessionCookies(res)); err != nil {
		h.logger.Error("failed to set session cookies", zap.String("uid", res.UID), zap.Error(err))
		h.metrics.SessionOutcome("error")
		autherr.Write(w, err)
		return
	}

	h.metrics.SessionOutcome("created")
	h.logger.Info("session created", zap.String("uid", res.UID), zap.String("role", string(res.Role)))
	httputil.WriteJSON(w, http.StatusOK, createSessionResponse{Success: true, UID: res.UID})
}

// DestroySessionHandler clears the session cookies. It is idempotent and does
// not require a live session.
func (h *Handler) DestroySessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := setCookies(w, h.cookies.clearedCookies()); err != nil {
		h.logger.Error("failed to clear session cookies", zap.Error(err))
		h.metrics.SessionOutcome("error")
		autherr.Write(w, err)
		return
	}
	h.metrics.SessionOutcome("destroyed")
	httputil.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}
