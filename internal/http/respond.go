package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_cart/cart-api/internal/domain"
	"go.uber.org/zap"
)

// Response is the envelope every cart endpoint answers with.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Cart    *domain.Cart `json:"cart,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, log *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, log *zap.Logger, status int, message string) {
	respondJSON(w, log, status, Response{Success: false, Message: message})
}
