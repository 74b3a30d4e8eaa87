package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coldstack/privatechain-deploy/internal/model"
	"github.com/coldstack/privatechain-deploy/network"

	"github.com/rs/zerolog"
)

const queryTimeout = 10 * time.Second

// HealthHandler reports the block height of the monitored node
type HealthHandler struct {
	node network.HeightSource
	log  zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler querying node
func NewHealthHandler(node network.HeightSource, log zerolog.Logger) (*HealthHandler, error) {
	if node == nil {
		return nil, errors.New("node client is required")
	}
	return &HealthHandler{node: node, log: log}, nil
}

// Healthcheck handles GET /healthcheck
// @Summary      Node health
// @Description  Returns the current block height of the node. Fails with 502 when the node does not answer.
// @Tags         health
// @Produce      json
// @Success      200  {object}  model.HealthResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /healthcheck [get]
func (h *HealthHandler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. should be GET", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	height, err := h.node.BlockHeight(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("node query failed")
		writeJSON(w, http.StatusBadGateway, model.ErrorResponse{Error: err.Error(), Code: "NODE_UNAVAILABLE"})
		return
	}

	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "ok", BlockNumber: height})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
