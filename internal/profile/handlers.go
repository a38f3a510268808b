package profile

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/autherr"
	"github.com/rahal-app/rahal-backend/internal/httputil"
	"github.com/rahal-app/rahal-backend/internal/utils"
)

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type bootstrapResponse struct {
	Profile *Profile `json:"profile"`
	Created bool     `json:"created"`
}

func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		autherr.Write(w, autherr.ErrMissingToken)
		return
	}

	p, err := h.svc.Get(r.Context(), uid)
	if err != nil {
		h.fail(w, uid, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		autherr.Write(w, autherr.ErrMissingToken)
		return
	}

	var upd ProfileUpdate
	if err := httputil.DecodeJSON(w, r, &upd); err != nil {
		autherr.Write(w, autherr.ErrInvalidRequest)
		return
	}

	p, err := h.svc.UpdateOwn(r.Context(), uid, upd)
	if err != nil {
		h.fail(w, uid, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// BootstrapHandler creates the caller's profile on first sign-in. The body
// may carry a partial prior record; it is optional.
func (h *Handler) BootstrapHandler(w http.ResponseWriter, r *http.Request) {
	tok, ok := utils.GetTokenFromContext(r.Context())
	if !ok {
		autherr.Write(w, autherr.ErrMissingToken)
		return
	}

	var prior *PriorRecord
	var body PriorRecord
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(w, r, &body); err != nil {
			autherr.Write(w, autherr.ErrInvalidRequest)
			return
		}
		prior = &body
	}

	p, created, err := h.svc.Ensure(r.Context(), tok, prior, r.Header.Get("Accept-Language"))
	if err != nil {
		h.fail(w, tok.UID, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, bootstrapResponse{Profile: p, Created: created})
}

func (h *Handler) fail(w http.ResponseWriter, uid string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "profile not found")
	case errors.Is(err, autherr.ErrInvalidRequest):
		autherr.Write(w, autherr.ErrInvalidRequest)
	default:
		h.logger.Error("profile request failed", zap.String("uid", uid), zap.Error(err))
		autherr.Write(w, err)
	}
}
