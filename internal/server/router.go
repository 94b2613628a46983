package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/auth"
	"github.com/diewo77/go-crm/internal/config"
	"github.com/diewo77/go-crm/internal/handlers"
	"github.com/diewo77/go-crm/internal/httpx"
	"github.com/diewo77/go-crm/internal/middleware"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/services"
	"github.com/diewo77/go-crm/internal/storage"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config, store *storage.FileStore, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Ensure sessions refer to a user that still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	// Services
	pipelineSvc := services.NewPipelineService(db, log)
	searchSvc := services.NewSearchService(db, log)
	profileSvc := services.NewProfileService(db, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(db)
	contactHandler := handlers.NewContactHandler(db)
	oppHandler := handlers.NewOpportunityHandler(db, pipelineSvc)
	commHandler := handlers.NewCommunicationHandler(db)
	docHandler := handlers.NewDocumentHandler(db, store, cfg.MaxUploadBytes, log)
	searchHandler := handlers.NewSearchHandler(searchSvc)
	profileHandler := handlers.NewProfileHandler(profileSvc)

	// ─────────────────────────────────────────────────────────────────────────
	// Health endpoints
	// ─────────────────────────────────────────────────────────────────────────
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	mux.HandleFunc("POST /signup", authHandler.Signup)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("POST /logout", authHandler.Logout)

	// ─────────────────────────────────────────────────────────────────────────
	// Protected resource routes (require a verified session)
	// ─────────────────────────────────────────────────────────────────────────
	protected := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(h)
	}

	// Contacts
	mux.Handle("GET /contacts", protected(contactHandler.List))
	mux.Handle("POST /contacts", protected(contactHandler.Create))
	mux.Handle("GET /contacts/{id}", protected(contactHandler.Get))
	mux.Handle("PUT /contacts/{id}", protected(contactHandler.Update))
	mux.Handle("DELETE /contacts/{id}", protected(contactHandler.Delete))

	// Opportunities + pipeline
	mux.Handle("GET /opportunities", protected(oppHandler.List))
	mux.Handle("POST /opportunities", protected(oppHandler.Create))
	mux.Handle("GET /opportunities/board", protected(oppHandler.Board))
	mux.Handle("GET /opportunities/stats", protected(oppHandler.Stats))
	mux.Handle("GET /opportunities/{id}", protected(oppHandler.Get))
	mux.Handle("PUT /opportunities/{id}", protected(oppHandler.Update))
	mux.Handle("POST /opportunities/{id}/move", protected(oppHandler.Move))
	mux.Handle("DELETE /opportunities/{id}", protected(oppHandler.Delete))

	// Communications
	mux.Handle("GET /communications", protected(commHandler.List))
	mux.Handle("POST /communications", protected(commHandler.Create))
	mux.Handle("GET /communications/{id}", protected(commHandler.Get))
	mux.Handle("PUT /communications/{id}", protected(commHandler.Update))
	mux.Handle("POST /communications/{id}/complete", protected(commHandler.Complete))
	mux.Handle("DELETE /communications/{id}", protected(commHandler.Delete))

	// Documents
	mux.Handle("GET /documents", protected(docHandler.List))
	mux.Handle("POST /documents", protected(docHandler.Upload))
	mux.Handle("GET /documents/{id}", protected(docHandler.Get))
	mux.Handle("GET /documents/{id}/download", protected(docHandler.Download))
	mux.Handle("DELETE /documents/{id}", protected(docHandler.Delete))

	// Search + profile
	mux.Handle("GET /search", protected(searchHandler.Search))
	mux.Handle("GET /profile", protected(profileHandler.Get))
	mux.Handle("PUT /profile", protected(profileHandler.Update))

	return auth.Middleware(middleware.Prefs(withRecover(withLogging(mux, log), log)))
}

// withLogging logs every request with method, path, status and latency.
func withLogging(next http.Handler, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

func withRecover(next http.Handler, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
