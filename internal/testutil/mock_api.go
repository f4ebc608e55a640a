// Package testutil provides testing utilities for pagekit.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockAPI is a configurable paged JSON API for testing page sources.
// It serves its item set in windows of the requested page size and
// advertises the total count in the X-Total-Count header.
type MockAPI struct {
	server *httptest.Server

	mu    sync.Mutex
	items []any
	// reportedTotal overrides the advertised total when non-nil, to
	// simulate servers whose total disagrees with the actual items.
	reportedTotal *int
	omitTotal     bool
	// failStatus maps a page index to an HTTP status to respond with.
	failStatus map[int]int
	delay      time.Duration

	// Tracking
	RequestCount int
	LastPage     int
	LastPerPage  int
}

// NewMockAPI creates a mock paged API serving the given items.
func NewMockAPI(items []any) *MockAPI {
	mock := &MockAPI{
		items:      items,
		failStatus: make(map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetItems replaces the served item set.
func (m *MockAPI) SetItems(items []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
}

// SetReportedTotal makes the server advertise total instead of the actual
// item count.
func (m *MockAPI) SetReportedTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportedTotal = &total
}

// OmitTotal suppresses the total count header entirely.
func (m *MockAPI) OmitTotal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.omitTotal = true
}

// FailPage makes requests for the given page index respond with status.
func (m *MockAPI) FailPage(page, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStatus[page] = status
}

// SetDelay adds an artificial delay before each response.
func (m *MockAPI) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Requests returns the number of requests served so far.
func (m *MockAPI) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

func (m *MockAPI) handle(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
	if err != nil || perPage <= 0 {
		perPage = 30
	}

	m.mu.Lock()
	m.RequestCount++
	m.LastPage = page
	m.LastPerPage = perPage
	items := m.items
	reportedTotal := m.reportedTotal
	omitTotal := m.omitTotal
	status, failing := m.failStatus[page]
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if failing {
		http.Error(w, http.StatusText(status), status)
		return
	}

	lo := page * perPage
	hi := lo + perPage
	if lo > len(items) {
		lo = len(items)
	}
	if hi > len(items) {
		hi = len(items)
	}

	total := len(items)
	if reportedTotal != nil {
		total = *reportedTotal
	}
	if !omitTotal {
		w.Header().Set("X-Total-Count", strconv.Itoa(total))
	}
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(items[lo:hi]); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
