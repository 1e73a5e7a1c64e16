package api

import (
	"context"
	"log"
	"net/http"
	"sync"

	"dz-fellah/app"
	"dz-fellah/config"
	"dz-fellah/utils"

	"github.com/gin-gonic/gin"
)

var (
	router  http.Handler
	initErr error
	once    sync.Once
)

func initApp() {
	once.Do(func() {
		gin.SetMode(gin.ReleaseMode)

		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		logger, err := utils.NewLogger("production", cfg.LogLevel)
		if err != nil {
			initErr = err
			return
		}

		application, err := app.New(context.Background(), cfg, logger)
		if err != nil {
			initErr = err
			return
		}
		router = application.Router()
	})
}

// Handler is the serverless entry point.
func Handler(w http.ResponseWriter, r *http.Request) {
	initApp()
	if initErr != nil {
		log.Println("init failed:", initErr)
		http.Error(w, `{"success":false,"message":"Service unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	router.ServeHTTP(w, r)
}
