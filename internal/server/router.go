// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/finoptiv/shelf/internal/server/handlers"
	"github.com/finoptiv/shelf/internal/server/ipgeo"
	"github.com/finoptiv/shelf/internal/server/ratelimit"
)

// NewRouter creates and configures the HTTP router.
// Reads are open, mutations sit behind the admin gate.
// geo may be nil when no GeoIP database is configured.
func NewRouter(svc *handlers.Services, cfg *handlers.Config, limiters *ratelimit.Config, geo *ipgeo.Checker) http.Handler {
	mux := &http.ServeMux{}

	authh := handlers.NewAuthHandler(svc.Sessions, cfg.Server)
	bh := handlers.NewBookHandler(svc.Books)
	sh := handlers.NewSearchHandler(svc.Books)
	dh := handlers.NewDashboardHandler(svc.Books, svc.Log)
	lh := handlers.NewLogHandler(svc.Log, cfg.Server.Quotas.MaxLogRowsPerSubmission)
	hih := handlers.NewHistoryHandler(svc.History)
	eh := handlers.NewExportHandler(svc, cfg.Server.Quotas.ExportBytesPerSecond)

	// Health check
	hh := handlers.NewHealthHandler(cfg.Version)
	mux.Handle("/api/health", Wrap(hh.Health, svc, cfg, limiters))

	// Auth endpoints
	mux.Handle("POST /api/auth/login", Wrap(authh.Login, svc, cfg, limiters))
	mux.Handle("POST /api/auth/logout", WrapAdmin(authh.Logout, svc, cfg, limiters))
	mux.Handle("GET /api/auth/me", Wrap(authh.GetMe, svc, cfg, limiters))

	// Catalog endpoints
	mux.Handle("GET /api/books", Wrap(bh.ListBooks, svc, cfg, limiters))
	mux.Handle("GET /api/books/{id}", Wrap(bh.GetBook, svc, cfg, limiters))
	mux.Handle("POST /api/books", WrapAdmin(bh.CreateBook, svc, cfg, limiters))
	mux.Handle("PUT /api/books/{id}", WrapAdmin(bh.UpdateBook, svc, cfg, limiters))
	mux.Handle("DELETE /api/books/{id}", WrapAdmin(bh.DeleteBook, svc, cfg, limiters))
	// Status changes are open to any reader, matching the bookshelf view's
	// inline status editing.
	mux.Handle("PUT /api/books/{id}/status", Wrap(bh.SetBookStatus, svc, cfg, limiters))

	// Search and dashboard
	mux.Handle("GET /api/search", Wrap(sh.Search, svc, cfg, limiters))
	mux.Handle("GET /api/dashboard", Wrap(dh.GetDashboard, svc, cfg, limiters))

	// Reading log endpoints. Submission is open, the log-entry form lives on
	// the public dashboard.
	mux.Handle("POST /api/log", Wrap(lh.SubmitLog, svc, cfg, limiters))
	mux.Handle("GET /api/log", Wrap(lh.ListLog, svc, cfg, limiters))
	mux.Handle("GET /api/report", Wrap(lh.DailyReport, svc, cfg, limiters))

	// History and exports
	mux.Handle("GET /api/history", WrapAdmin(hih.GetHistory, svc, cfg, limiters))
	mux.Handle("GET /api/export/library.csv", WrapAdminRaw(eh.ExportLibrary, svc, cfg, limiters))
	mux.Handle("GET /api/export/daily_log.csv", WrapAdminRaw(eh.ExportLog, svc, cfg, limiters))

	return LoggingMiddleware(mux, geo)
}
