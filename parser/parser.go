// Package parser validates form input and normalizes records returned by the
// catalog backend into the shapes defined in models.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/aluiziolira/library-desk/models"
)

// ErrNotFound reports a lookup the backend answered with a not-found marker.
var ErrNotFound = errors.New("parser: not found")

// BookRecord is a book as the backend (or an older demo payload) may send it.
type BookRecord struct {
	ISBN       string   `json:"isbn"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Category   string   `json:"category"`
	Shelf      string   `json:"shelf"`
	Status     string   `json:"status"`
	Available  *bool    `json:"available"`
	BorrowedBy string   `json:"borrowedBy"`
	Borrower   *string  `json:"borrower"`
	DueDate    string   `json:"dueDate"`
	Rating     *float64 `json:"rating"`
}

// UserRecord is a member as the backend sends it.
type UserRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Contact       string `json:"contact"`
	BooksCount    int    `json:"booksCount"`
	TotalBorrowed int    `json:"totalBorrowed"`
	JoinDate      string `json:"joinDate"`
	Status        string `json:"status"`
}

// NormalizeStatus maps loose status text to a BookStatus.
func NormalizeStatus(text string) (models.BookStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "available", "in stock":
		return models.StatusAvailable, true
	case "borrowed", "issued", "checked out":
		return models.StatusBorrowed, true
	default:
		return "", false
	}
}

// NormalizeRating clamps a rating to the 0-5 scale, rounded to one decimal.
func NormalizeRating(rating *float64) float64 {
	if rating == nil || math.IsNaN(*rating) {
		return 0
	}
	r := math.Max(0, math.Min(5, *rating))
	return math.Round(r*10) / 10
}

// NormalizeBook converts a wire record into a Book whose status and available
// flag agree. A named borrower always means Borrowed; otherwise the status text
// wins over the flag, and a record with neither is treated as available.
func NormalizeBook(r BookRecord) models.Book {
	borrower := strings.TrimSpace(r.BorrowedBy)
	if borrower == "" && r.Borrower != nil {
		borrower = strings.TrimSpace(*r.Borrower)
	}

	status, ok := NormalizeStatus(r.Status)
	switch {
	case borrower != "":
		status = models.StatusBorrowed
	case ok:
	case r.Available != nil && !*r.Available:
		status = models.StatusBorrowed
	default:
		status = models.StatusAvailable
	}

	book := models.Book{
		ISBN:      strings.TrimSpace(r.ISBN),
		Title:     strings.TrimSpace(r.Title),
		Author:    strings.TrimSpace(r.Author),
		Category:  strings.TrimSpace(r.Category),
		Shelf:     strings.TrimSpace(r.Shelf),
		Status:    status,
		Available: status == models.StatusAvailable,
		Rating:    NormalizeRating(r.Rating),
	}
	if status == models.StatusBorrowed {
		book.BorrowedBy = borrower
		book.DueDate = strings.TrimSpace(r.DueDate)
	}
	return book
}

// NormalizeUser converts a wire record into a User with a stable id.
func NormalizeUser(r UserRecord) models.User {
	name := strings.TrimSpace(r.Name)
	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = models.DerivedUserID(name)
	}

	status := models.UserActive
	if strings.EqualFold(strings.TrimSpace(r.Status), string(models.UserInactive)) {
		status = models.UserInactive
	}

	return models.User{
		ID:            id,
		Name:          name,
		Contact:       strings.TrimSpace(r.Contact),
		BooksCount:    max(r.BooksCount, 0),
		TotalBorrowed: max(r.TotalBorrowed, r.BooksCount, 0),
		JoinDate:      strings.TrimSpace(r.JoinDate),
		Status:        status,
	}
}

// DecodeBooks parses a JSON array of book records.
func DecodeBooks(body []byte) ([]models.Book, error) {
	var records []BookRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	books := make([]models.Book, 0, len(records))
	for _, r := range records {
		books = append(books, NormalizeBook(r))
	}
	return books, nil
}

// DecodeSearchResults accepts an array of books, a single book object, or a
// not-found marker such as {"found": false}.
func DecodeSearchResults(body []byte) ([]models.Book, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.Book{}, nil
	}
	if trimmed[0] == '[' {
		return DecodeBooks(trimmed)
	}

	var record BookRecord
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, fmt.Errorf("decode search result: %w", err)
	}
	if strings.TrimSpace(record.ISBN) == "" {
		return []models.Book{}, nil
	}
	return []models.Book{NormalizeBook(record)}, nil
}

// DecodeUsers parses a JSON array of user records.
func DecodeUsers(body []byte) ([]models.User, error) {
	var records []UserRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]models.User, 0, len(records))
	for _, r := range records {
		users = append(users, NormalizeUser(r))
	}
	return users, nil
}

// DecodeStats parses the stats object.
func DecodeStats(body []byte) (models.Stats, error) {
	var stats models.Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		return models.Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

// DecodeBookDetails parses a single book with optional history.
func DecodeBookDetails(body []byte) (models.BookDetails, error) {
	var payload struct {
		BookRecord
		Found   *bool                `json:"found"`
		History []models.BorrowEvent `json:"borrowHistory"`
		Reviews int                  `json:"reviews"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.BookDetails{}, fmt.Errorf("decode book details: %w", err)
	}
	if payload.Found != nil && !*payload.Found {
		return models.BookDetails{}, fmt.Errorf("decode book details: %w", ErrNotFound)
	}
	return models.BookDetails{
		Book:    NormalizeBook(payload.BookRecord),
		History: payload.History,
		Reviews: payload.Reviews,
	}, nil
}

// DecodeShelfPath parses a path response; {"found": false} yields Found=false.
func DecodeShelfPath(body []byte, from, to string) (models.ShelfPath, error) {
	var payload struct {
		Found    bool     `json:"found"`
		Distance int      `json:"distance"`
		Path     []string `json:"path"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.ShelfPath{}, fmt.Errorf("decode shelf path: %w", err)
	}
	return models.ShelfPath{
		From:     from,
		To:       to,
		Found:    payload.Found,
		Distance: payload.Distance,
		Path:     payload.Path,
	}, nil
}

// ErrorMessage extracts a human-readable message from an error response body.
// JSON bodies contribute their "error" or "message" field; anything else is
// used as plain text.
func ErrorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '{' {
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if payload.Error != "" {
				return payload.Error
			}
			if payload.Message != "" {
				return payload.Message
			}
		}
	}
	return string(trimmed)
}
