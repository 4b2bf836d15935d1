package dto

// --- Common Responses ---

// OkResponse is a simple success response.
type OkResponse struct {
	Ok bool `json:"ok"`
}

// --- Auth Responses ---

// LoginResponse is a response from opening the admin gate.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// LogoutResponse is a response from revoking the current session.
type LogoutResponse = OkResponse

// GetMeResponse describes the caller's gate state.
type GetMeResponse struct {
	Admin     bool   `json:"admin"`
	SessionID string `json:"session_id,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

// --- Book Responses ---

// Book is the API representation of a catalog entry.
type Book struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Genre    string `json:"genre"`
	Pages    int    `json:"pages"`
	Status   string `json:"status"`
	Created  int64  `json:"created"`
	Modified int64  `json:"modified"`
}

// ListBooksResponse is a response containing the whole catalog.
type ListBooksResponse struct {
	Books []Book `json:"books"`
}

// GetBookResponse is a response containing one book.
type GetBookResponse struct {
	Book Book `json:"book"`
}

// CreateBookResponse is a response from adding a book.
type CreateBookResponse struct {
	Book Book `json:"book"`
}

// UpdateBookResponse is a response from updating a book.
type UpdateBookResponse struct {
	Book Book `json:"book"`
}

// DeleteBookResponse is a response from deleting a book.
type DeleteBookResponse = OkResponse

// SetBookStatusResponse is a response from changing a book's status.
type SetBookStatusResponse struct {
	Book Book `json:"book"`
}

// --- Search Responses ---

// SearchResponse is a response containing matching books.
type SearchResponse struct {
	Query string `json:"query"`
	Books []Book `json:"books"`
}

// --- Dashboard Responses ---

// GenreCount is one genre's share of the catalog.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// GetDashboardResponse carries the KPIs shown on the dashboard.
type GetDashboardResponse struct {
	TotalBooks     int          `json:"total_books"`
	BooksRead      int          `json:"books_read"`
	BooksReading   int          `json:"books_reading"`
	PercentRead    float64      `json:"percent_read"`
	TotalPagesRead int          `json:"total_pages_read"`
	TotalMinutes   int          `json:"total_minutes"`
	TotalHours     float64      `json:"total_hours"`
	TopGenres      []GenreCount `json:"top_genres"`
}

// --- Reading log Responses ---

// LogEntry is the API representation of one reading log row.
type LogEntry struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	BookTitle string `json:"book_title"`
	Pages     int    `json:"pages"`
	Minutes   int    `json:"minutes"`
}

// SubmitLogResponse is a response from a log submission.
type SubmitLogResponse struct {
	Entries []LogEntry `json:"entries"`
}

// ListLogResponse is a response containing raw log entries.
type ListLogResponse struct {
	Entries []LogEntry `json:"entries"`
}

// DailyGroup is one book's aggregated reading for the requested day.
type DailyGroup struct {
	BookTitle    string `json:"book_title"`
	TotalPages   int    `json:"total_pages"`
	TotalMinutes int    `json:"total_minutes"`
}

// DailyReportResponse is a response containing one day's aggregation.
type DailyReportResponse struct {
	Date   string       `json:"date"`
	Groups []DailyGroup `json:"groups"`
}

// --- History Responses ---

// HistoryCommit is one entry of the data directory's commit log.
type HistoryCommit struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Date    int64  `json:"date"`
}

// HistoryResponse is a response containing the data directory's history.
type HistoryResponse struct {
	Commits []HistoryCommit `json:"commits"`
}

// --- Health Responses ---

// HealthResponse reports server liveness and build information.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
