// Defines shared service dependencies for handlers.

package handlers

import (
	"github.com/finoptiv/shelf/internal/storage"
	"github.com/finoptiv/shelf/internal/storage/git"
	"github.com/finoptiv/shelf/internal/storage/library"
)

// Services holds all service dependencies for handlers.
type Services struct {
	Books    *library.BookService
	Log      *library.LogService
	Sessions *library.SessionService
	History  *git.History // may be nil when history tracking is disabled
}

// Config holds configuration values needed by handlers.
type Config struct {
	Server  *storage.ServerConfig
	Version string
}
