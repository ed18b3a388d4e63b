package handler

import (
	"net/http"
	"sync"

	"brokerage-backend/bootstrap"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog/log"
)

var (
	once    sync.Once
	app     http.HandlerFunc
	initErr error
)

// Handler is the serverless entry point; all requests are rewritten here. The app is
// built on the first request so a cold start with bad config answers 503 instead of crashing.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		fiberApp, err := bootstrap.New()
		if err != nil {
			initErr = err
			log.Error().Err(err).Msg("app create failed")
			return
		}
		app = adaptor.FiberApp(fiberApp)
	})
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"error","error":{"message":"Service Unavailable","statusCode":503,"details":{}}}`))
		return
	}
	r.RequestURI = r.URL.String()
	app(w, r)
}
