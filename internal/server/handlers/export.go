// Handles raw CSV download endpoints.

package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/finoptiv/shelf/internal/server/bandwidth"
)

// ExportHandler serves the backing CSV files as downloads.
type ExportHandler struct {
	Svc     *Services
	Limiter *bandwidth.Limiter
}

// NewExportHandler creates an export handler. bytesPerSecond throttles
// downloads, 0 means unlimited.
func NewExportHandler(svc *Services, bytesPerSecond int64) *ExportHandler {
	return &ExportHandler{
		Svc:     svc,
		Limiter: bandwidth.NewLimiter(bytesPerSecond),
	}
}

// ExportLibrary writes the book catalog as a CSV attachment.
func (h *ExportHandler) ExportLibrary(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, filepath.Base(h.Svc.Books.Path()), h.Svc.Books.WriteCSV)
}

// ExportLog writes the reading log as a CSV attachment.
func (h *ExportHandler) ExportLog(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, filepath.Base(h.Svc.Log.Path()), h.Svc.Log.WriteCSV)
}

func (h *ExportHandler) export(w http.ResponseWriter, r *http.Request, filename string, write func(io.Writer) error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := write(h.Limiter.Writer(r.Context(), w)); err != nil {
		// Headers are already sent, the best we can do is log it.
		slog.ErrorContext(r.Context(), "Failed to write CSV export", "file", filename, "err", err)
	}
}
