package dto

// HealthRequest is a request for the health check endpoint.
type HealthRequest struct{}

// Validate is a no-op for HealthRequest.
func (r *HealthRequest) Validate() error {
	return nil
}

// --- Auth ---

// LoginRequest is a request to open the admin gate.
type LoginRequest struct {
	Password string `json:"password"`
}

// Validate validates the login request fields.
func (r *LoginRequest) Validate() error {
	if r.Password == "" {
		return MissingField("password")
	}
	return nil
}

// LogoutRequest is a request to revoke the current session.
type LogoutRequest struct{}

// Validate is a no-op for LogoutRequest.
func (r *LogoutRequest) Validate() error {
	return nil
}

// GetMeRequest is a request to get the current gate state.
type GetMeRequest struct{}

// Validate is a no-op for GetMeRequest.
func (r *GetMeRequest) Validate() error {
	return nil
}

// --- Books ---

// ListBooksRequest is a request to list the whole catalog.
type ListBooksRequest struct{}

// Validate is a no-op for ListBooksRequest.
func (r *ListBooksRequest) Validate() error {
	return nil
}

// GetBookRequest is a request to get one book.
type GetBookRequest struct {
	ID string `path:"id"`
}

// Validate validates the get book request fields.
func (r *GetBookRequest) Validate() error {
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// CreateBookRequest is a request to add a book to the catalog.
type CreateBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Pages  int    `json:"pages"`
	Status string `json:"status"`
}

// Validate validates the create book request fields.
func (r *CreateBookRequest) Validate() error {
	if r.Title == "" {
		return MissingField("title")
	}
	if r.Author == "" {
		return MissingField("author")
	}
	if r.Genre == "" {
		return MissingField("genre")
	}
	if r.Pages <= 0 {
		return BadRequest("pages must be positive")
	}
	return nil
}

// UpdateBookRequest is a request to overwrite a book's fields.
type UpdateBookRequest struct {
	ID     string `path:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Pages  int    `json:"pages"`
	Status string `json:"status"`
}

// Validate validates the update book request fields.
func (r *UpdateBookRequest) Validate() error {
	if r.ID == "" {
		return MissingField("id")
	}
	if r.Title == "" {
		return MissingField("title")
	}
	if r.Author == "" {
		return MissingField("author")
	}
	if r.Genre == "" {
		return MissingField("genre")
	}
	if r.Pages <= 0 {
		return BadRequest("pages must be positive")
	}
	return nil
}

// DeleteBookRequest is a request to remove a book.
type DeleteBookRequest struct {
	ID string `path:"id"`
}

// Validate validates the delete book request fields.
func (r *DeleteBookRequest) Validate() error {
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// SetBookStatusRequest is a request to change only a book's reading status.
type SetBookStatusRequest struct {
	ID     string `path:"id"`
	Status string `json:"status"`
}

// Validate validates the set status request fields.
func (r *SetBookStatusRequest) Validate() error {
	if r.ID == "" {
		return MissingField("id")
	}
	if r.Status == "" {
		return MissingField("status")
	}
	return nil
}

// --- Search ---

// SearchRequest is a request to search the catalog.
type SearchRequest struct {
	Query string `query:"q"`
}

// Validate validates the search request fields.
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return MissingField("q")
	}
	return nil
}

// --- Dashboard ---

// GetDashboardRequest is a request for the dashboard KPIs.
type GetDashboardRequest struct{}

// Validate is a no-op for GetDashboardRequest.
func (r *GetDashboardRequest) Validate() error {
	return nil
}

// --- Reading log ---

// LogRowInput is one row of a reading log submission. The date is stamped
// server-side.
type LogRowInput struct {
	BookTitle string `json:"book_title"`
	Pages     int    `json:"pages"`
	Minutes   int    `json:"minutes"`
}

// SubmitLogRequest is a batch of reading log rows for today.
type SubmitLogRequest struct {
	Entries []LogRowInput `json:"entries"`
}

// Validate validates the log submission fields.
func (r *SubmitLogRequest) Validate() error {
	if len(r.Entries) == 0 {
		return MissingField("entries")
	}
	for _, e := range r.Entries {
		if e.BookTitle == "" {
			return MissingField("book_title")
		}
		if e.Pages <= 0 {
			return BadRequest("pages must be positive")
		}
		if e.Minutes <= 0 {
			return BadRequest("minutes must be positive")
		}
	}
	return nil
}

// ListLogRequest is a request for raw log entries, optionally filtered by
// day.
type ListLogRequest struct {
	Date string `query:"date"`
}

// Validate is a no-op for ListLogRequest; the date format is checked by the
// handler.
func (r *ListLogRequest) Validate() error {
	return nil
}

// DailyReportRequest is a request for one day's aggregated reading.
type DailyReportRequest struct {
	Date string `query:"date"`
}

// Validate is a no-op for DailyReportRequest; an empty date means today.
func (r *DailyReportRequest) Validate() error {
	return nil
}

// --- History ---

// HistoryRequest is a request for the data directory's commit log.
type HistoryRequest struct {
	Limit int `query:"limit"`
}

// Validate validates the history request fields.
func (r *HistoryRequest) Validate() error {
	if r.Limit < 0 {
		return BadRequest("limit must be non-negative")
	}
	return nil
}

// --- Export ---

// ExportRequest is a request for a raw CSV download.
type ExportRequest struct{}

// Validate is a no-op for ExportRequest.
func (r *ExportRequest) Validate() error {
	return nil
}
