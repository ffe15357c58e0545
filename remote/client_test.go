package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/aluiziolira/library-desk/config"
	"github.com/aluiziolira/library-desk/models"
	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const testBase = "http://library.test/api"

func newTestClient(t *testing.T, mutate func(*config.Config)) (*Client, *httpmock.MockTransport) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BaseURL = testBase
	cfg.MaxRetries = 0
	cfg.RetryBackoff = time.Millisecond
	cfg.RetryBackoffMax = 5 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	client, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	transport := httpmock.NewMockTransport()
	client.WithTransport(transport)
	return client, transport
}

func TestNewClientRejectsHostlessURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "/api"
	if _, err := NewClient(cfg, nil); err == nil {
		t.Fatalf("expected error for base url without host")
	}
}

func TestClientBooks(t *testing.T) {
	client, transport := newTestClient(t, nil)
	transport.RegisterResponder(http.MethodGet, testBase+"/books",
		httpmock.NewStringResponder(http.StatusOK, `[
			{"isbn":"INB001","title":"Data Structures in Java","status":"Borrowed","borrowedBy":"Amit Sharma"},
			{"isbn":"INB002","title":"Algorithms Unlocked","status":"Available"}
		]`))

	books, err := client.Books(context.Background())
	if err != nil {
		t.Fatalf("books: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("books = %d, want 2", len(books))
	}
	if books[0].Status != models.StatusBorrowed || books[0].Available {
		t.Fatalf("first book = %+v", books[0])
	}
	if got := transport.GetCallCountInfo()["GET "+testBase+"/books"]; got != 1 {
		t.Fatalf("GET /books calls = %d, want 1", got)
	}
}

func TestClientStatsAndPing(t *testing.T) {
	client, transport := newTestClient(t, nil)
	transport.RegisterResponder(http.MethodGet, testBase+"/stats",
		httpmock.NewStringResponder(http.StatusOK, `{"totalBooks":3,"availableBooks":2,"totalUsers":4,"borrowedBooks":1}`))

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := models.Stats{TotalBooks: 3, AvailableBooks: 2, TotalUsers: 4, BorrowedBooks: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
	if got := transport.GetTotalCallCount(); got != 2 {
		t.Fatalf("total calls = %d, want 2", got)
	}
}

func TestClientErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		responder   httpmock.Responder
		unavailable bool
		status      int
		label       string
	}{
		{
			name:      "server error",
			responder: httpmock.NewStringResponder(http.StatusInternalServerError, "boom"),
			status:    http.StatusInternalServerError,
			label:     "server",
		},
		{
			name:      "not found",
			responder: httpmock.NewStringResponder(http.StatusNotFound, ""),
			status:    http.StatusNotFound,
			label:     "not_found",
		},
		{
			name:        "connection refused",
			responder:   httpmock.NewErrorResponder(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}),
			unavailable: true,
			label:       "connection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport := newTestClient(t, nil)
			transport.RegisterResponder(http.MethodGet, testBase+"/users", tt.responder)

			_, err := client.Users(context.Background())
			if err == nil {
				t.Fatalf("expected error")
			}
			if IsUnavailable(err) != tt.unavailable {
				t.Fatalf("IsUnavailable(%v) = %t, want %t", err, !tt.unavailable, tt.unavailable)
			}
			if tt.status != 0 {
				var remote ErrRemote
				if !errors.As(err, &remote) || remote.StatusCode != tt.status {
					t.Fatalf("expected ErrRemote with status %d, got %v", tt.status, err)
				}
			}
			if got := errorTypeLabel(err); got != tt.label {
				t.Fatalf("label = %q, want %q", got, tt.label)
			}
			if got := testutil.ToFloat64(client.Metrics.ErrorsTotal.WithLabelValues(tt.label)); got != 1 {
				t.Fatalf("errors_total{%s} = %v, want 1", tt.label, got)
			}
		})
	}
}

func TestClientBorrowCarriesServerMessage(t *testing.T) {
	client, transport := newTestClient(t, nil)

	var received map[string]string
	var contentType string
	transport.RegisterResponder(http.MethodPost, testBase+"/borrow",
		func(req *http.Request) (*http.Response, error) {
			contentType = req.Header.Get("Content-Type")
			if err := json.NewDecoder(req.Body).Decode(&received); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusConflict, "Book already borrowed"), nil
		})

	err := client.Borrow(context.Background(), "Neha Verma", "INB001")
	var remote ErrRemote
	if !errors.As(err, &remote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
	if remote.Message != "Book already borrowed" || Message(err) != "Book already borrowed" {
		t.Fatalf("message = %q", remote.Message)
	}
	if received["userName"] != "Neha Verma" || received["isbn"] != "INB001" {
		t.Fatalf("payload = %v", received)
	}
	if contentType != "application/json" {
		t.Fatalf("content type = %q", contentType)
	}
}

func TestClientCreateBookSendsDraft(t *testing.T) {
	client, transport := newTestClient(t, nil)

	var received models.BookDraft
	transport.RegisterResponder(http.MethodPost, testBase+"/books",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&received); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusCreated, `{"success":true}`), nil
		})

	draft := models.BookDraft{ISBN: "INB011", Title: "Compiler Design", Author: "Anita Singh", Category: "CS", Shelf: "Shelf-5"}
	if err := client.CreateBook(context.Background(), draft); err != nil {
		t.Fatalf("create book: %v", err)
	}
	if received != draft {
		t.Fatalf("payload = %+v, want %+v", received, draft)
	}
}

func TestClientSearchQuery(t *testing.T) {
	client, transport := newTestClient(t, nil)

	var query, field string
	transport.RegisterResponder(http.MethodGet, testBase+"/search",
		func(req *http.Request) (*http.Response, error) {
			query = req.URL.Query().Get("query")
			field = req.URL.Query().Get("type")
			return httpmock.NewStringResponse(http.StatusOK, `{"isbn":"INB003","title":"Operating System Concepts","status":"Available"}`), nil
		})

	books, err := client.Search(context.Background(), "operating system", models.SearchTitle)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if query != "operating system" || field != "title" {
		t.Fatalf("query = %q type = %q", query, field)
	}
	if len(books) != 1 || books[0].ISBN != "INB003" {
		t.Fatalf("books = %+v", books)
	}
}

func TestClientBookDetailsAndPath(t *testing.T) {
	client, transport := newTestClient(t, nil)
	transport.RegisterResponder(http.MethodGet, testBase+"/books/INB002",
		httpmock.NewStringResponder(http.StatusOK, `{"isbn":"INB002","title":"Algorithms Unlocked","status":"Available","reviews":12}`))
	transport.RegisterResponder(http.MethodGet, testBase+"/path",
		httpmock.NewStringResponder(http.StatusOK, `{"found":true,"distance":4,"path":["Shelf-1","Shelf-2","Shelf-4"]}`))

	details, err := client.BookDetails(context.Background(), "INB002")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.Title != "Algorithms Unlocked" || details.Reviews != 12 {
		t.Fatalf("details = %+v", details)
	}

	path, err := client.ShelfPath(context.Background(), "Shelf-1", "Shelf-4")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if !path.Found || path.Distance != 4 || path.From != "Shelf-1" || len(path.Path) != 3 {
		t.Fatalf("path = %+v", path)
	}
}

func TestClientRetriesReadsOnly(t *testing.T) {
	client, transport := newTestClient(t, func(cfg *config.Config) {
		cfg.MaxRetries = 2
	})
	unavailable := httpmock.NewStringResponder(http.StatusServiceUnavailable, "")
	transport.RegisterResponder(http.MethodGet, testBase+"/stats", unavailable)
	transport.RegisterResponder(http.MethodPost, testBase+"/return", unavailable)

	if _, err := client.Stats(context.Background()); err == nil {
		t.Fatalf("expected stats error")
	}
	if got := transport.GetCallCountInfo()["GET "+testBase+"/stats"]; got != 3 {
		t.Fatalf("GET /stats calls = %d, want 3", got)
	}
	if got := testutil.ToFloat64(client.Metrics.RetriesTotal); got != 2 {
		t.Fatalf("retries = %v, want 2", got)
	}

	if err := client.Return(context.Background(), "INB001"); err == nil {
		t.Fatalf("expected return error")
	}
	if got := transport.GetCallCountInfo()["POST "+testBase+"/return"]; got != 1 {
		t.Fatalf("POST /return calls = %d, want 1", got)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	client, transport := newTestClient(t, func(cfg *config.Config) {
		cfg.MaxRetries = 3
	})
	transport.RegisterResponder(http.MethodGet, testBase+"/recommend",
		httpmock.NewStringResponder(http.StatusBadRequest, `{"error":"user is required"}`))

	_, err := client.Recommend(context.Background(), "")
	if Message(err) != "user is required" {
		t.Fatalf("message = %q", Message(err))
	}
	if got := transport.GetTotalCallCount(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestClientCanceledContext(t *testing.T) {
	client, transport := newTestClient(t, nil)
	transport.RegisterResponder(http.MethodGet, testBase+"/books", httpmock.NewStringResponder(http.StatusOK, `[]`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Books(ctx); !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if got := transport.GetTotalCallCount(); got != 0 {
		t.Fatalf("calls = %d, want 0", got)
	}
}

func TestRetrierDelayCapped(t *testing.T) {
	r := retrier{backoff: 200 * time.Millisecond, backoffMax: 500 * time.Millisecond}
	if got := r.delay(1); got != 200*time.Millisecond {
		t.Fatalf("delay(1) = %v", got)
	}
	if got := r.delay(4); got != 500*time.Millisecond {
		t.Fatalf("delay(4) = %v, want cap", got)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, expected: "connection"},
		{name: "not found", statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "conflict", err: errors.New("Conflict"), statusCode: http.StatusConflict, expected: "client"},
		{name: "bad gateway", statusCode: http.StatusBadGateway, expected: "server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(classifyError(tt.err, tt.statusCode, nil)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}
