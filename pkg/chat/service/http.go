package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/scrtlabs/trading-middleware/pkg/app/errors"
	apphttp "github.com/scrtlabs/trading-middleware/pkg/app/http"
	"github.com/scrtlabs/trading-middleware/pkg/auth"
)

const maxBodySize = 1 << 20 // 1MB

// Handler exposes the chat service over HTTP
type Handler struct {
	svc Service
}

// NewHandler creates the HTTP handler for the chat service
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the chat routes, all behind authentication
func (h *Handler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/api/chat", apphttp.HandleError(h.history))
		r.Post("/api/chat", apphttp.HandleError(h.send))
		r.Delete("/api/chat", apphttp.HandleError(h.clear))
	})
}

type sendRequest struct {
	Message string `json:"message"`
}

type historyItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) error {
	wallet, err := walletFrom(r)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	var req sendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}

	turn, err := h.svc.Send(r.Context(), wallet, req.Message)
	if err != nil {
		return err
	}

	apphttp.WriteData(w, http.StatusOK, turn)
	return nil
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) error {
	wallet, err := walletFrom(r)
	if err != nil {
		return err
	}

	entries, err := h.svc.History(r.Context(), wallet)
	if err != nil {
		return err
	}

	items := make([]historyItem, len(entries))
	for i, entry := range entries {
		items[i] = historyItem{Role: entry.Role, Content: entry.Content}
	}

	apphttp.WriteData(w, http.StatusOK, items)
	return nil
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) error {
	wallet, err := walletFrom(r)
	if err != nil {
		return err
	}

	if err := h.svc.Clear(r.Context(), wallet); err != nil {
		return err
	}

	apphttp.WriteData(w, http.StatusOK, map[string]string{
		"message":       "Chat history cleared",
		"walletAddress": wallet,
	})
	return nil
}

func walletFrom(r *http.Request) (string, error) {
	wallet, ok := auth.WalletFromContext(r.Context())
	if !ok || wallet == "" {
		return "", apperrors.UnAuthorizedError(nil, "missing authentication context")
	}
	return wallet, nil
}
