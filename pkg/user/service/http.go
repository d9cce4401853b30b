package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/scrtlabs/trading-middleware/pkg/app/errors"
	apphttp "github.com/scrtlabs/trading-middleware/pkg/app/http"
	"github.com/scrtlabs/trading-middleware/pkg/auth"
	"github.com/scrtlabs/trading-middleware/pkg/user"
)

const maxBodySize = 1 << 20 // 1MB

// Handler exposes the user service over HTTP
type Handler struct {
	svc Service
}

// NewHandler creates the HTTP handler for the user service
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the public and protected user routes
func (h *Handler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/api/auth/login", apphttp.HandleError(h.login))

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/api/user/info", apphttp.HandleError(h.info))
		r.Post("/api/user/keys", apphttp.HandleError(h.setKeys))
		r.Get("/api/user/authorize_spend", apphttp.HandleError(h.authorizeSpend))
		r.Get("/api/agent/address", apphttp.HandleError(h.agentAddress))
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) error {
	var req user.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	resp, err := h.svc.Login(r.Context(), &req)
	if err != nil {
		return err
	}

	apphttp.WriteData(w, http.StatusOK, resp)
	return nil
}

func (h *Handler) info(w http.ResponseWriter, r *http.Request) error {
	wallet, err := walletFrom(r)
	if err != nil {
		return err
	}

	usr, err := h.svc.Info(r.Context(), wallet)
	if err != nil {
		return err
	}

	apphttp.WriteData(w, http.StatusOK, usr)
	return nil
}

func (h *Handler) setKeys(w http.ResponseWriter, r *http.Request) error {
	wallet, err := walletFrom(r)
	if err != nil {
		return err
	}

	var req user.SetKeysRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	if err := h.svc.SetViewingKeys(r.Context(), wallet, &req); err != nil {
		return err
	}

	apphttp.WriteData(w, http.StatusOK, map[string]string{"message": "Viewing keys saved"})
	return nil
}

func (h *Handler) authorizeSpend(w http.ResponseWriter, r *http.Request) error {
	wallet, err := walletFrom(r)
	if err != nil {
		return err
	}

	allowed, err := h.svc.AuthorizeSpend(r.Context(), wallet)
	if err != nil {
		return err
	}

	apphttp.WriteData(w, http.StatusOK, allowed)
	return nil
}

func (h *Handler) agentAddress(w http.ResponseWriter, r *http.Request) error {
	if _, err := walletFrom(r); err != nil {
		return err
	}

	apphttp.WriteData(w, http.StatusOK, h.svc.AgentAddress())
	return nil
}

func decodeBody(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	return nil
}

func walletFrom(r *http.Request) (string, error) {
	wallet, ok := auth.WalletFromContext(r.Context())
	if !ok || wallet == "" {
		return "", apperrors.UnAuthorizedError(nil, "missing authentication context")
	}
	return wallet, nil
}
