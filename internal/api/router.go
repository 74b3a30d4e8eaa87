package api

import (
	"net/http"

	_ "github.com/coldstack/privatechain-deploy/docs"
	"github.com/coldstack/privatechain-deploy/internal/handler"
	"github.com/coldstack/privatechain-deploy/network"

	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(node network.HeightSource, log zerolog.Logger) (http.Handler, error) {
	healthHandler, err := handler.NewHealthHandler(node, log)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Health endpoints
	mux.HandleFunc("/healthcheck", healthHandler.Healthcheck)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		healthHandler.Healthcheck(w, r)
	})

	return mux, nil
}
