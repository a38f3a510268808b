package challenge

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rahal-app/rahal-backend/internal/autherr"
	"github.com/rahal-app/rahal-backend/internal/httputil"
)

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type startRequest struct {
	Channel     Channel `json:"channel"`
	Destination string  `json:"destination"`
}

type startResponse struct {
	ChallengeID string `json:"challengeId"`
}

type confirmRequest struct {
	ChallengeID string `json:"challengeId"`
	Code        string `json:"code"`
}

type confirmResponse struct {
	IDToken string `json:"idToken"`
}

func (h *Handler) StartHandler(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		autherr.Write(w, autherr.ErrInvalidRequest)
		return
	}

	id, err := h.svc.Start(r.Context(), req.Channel, req.Destination)
	if err != nil {
		if !errors.Is(err, autherr.ErrInvalidRequest) {
			h.logger.Error("challenge start failed", zap.Error(err))
		}
		autherr.Write(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, startResponse{ChallengeID: id})
}

func (h *Handler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		autherr.Write(w, autherr.ErrInvalidRequest)
		return
	}

	tok, err := h.svc.Confirm(r.Context(), req.ChallengeID, req.Code)
	if errors.Is(err, ErrInvalidCode) {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid code, try again")
		return
	}
	if err != nil {
		h.logger.Error("challenge confirm failed", zap.Error(err))
		autherr.Write(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, confirmResponse{IDToken: tok})
}
