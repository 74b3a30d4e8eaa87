package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coldstack/privatechain-deploy/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	height uint64
	err    error
}

func (f fakeNode) BlockHeight(context.Context) (uint64, error) {
	return f.height, f.err
}

func serve(t *testing.T, node fakeNode, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	router, err := SetupRouter(node, zerolog.Nop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthcheck_OK(t *testing.T) {
	for _, path := range []string{"/healthcheck", "/"} {
		rec := serve(t, fakeNode{height: 101}, http.MethodGet, path)

		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp model.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, model.HealthResponse{Status: "ok", BlockNumber: 101}, resp)
	}
}

func TestHealthcheck_NodeDown(t *testing.T) {
	rec := serve(t, fakeNode{err: errors.New("connection refused")}, http.MethodGet, "/healthcheck")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "connection refused")
}

func TestHealthcheck_MethodNotAllowed(t *testing.T) {
	rec := serve(t, fakeNode{}, http.MethodPost, "/healthcheck")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUnknownPath(t *testing.T) {
	rec := serve(t, fakeNode{}, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSwaggerDoc(t *testing.T) {
	rec := serve(t, fakeNode{}, http.MethodGet, "/swagger/doc.json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/healthcheck")
}

func TestSetupRouter_RequiresNode(t *testing.T) {
	_, err := SetupRouter(nil, zerolog.Nop())
	assert.Error(t, err)
}
