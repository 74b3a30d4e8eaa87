package model

// HealthResponse represents response for GET /healthcheck
type HealthResponse struct {
	Status      string `json:"status"`
	BlockNumber uint64 `json:"blockNumber"`
}
