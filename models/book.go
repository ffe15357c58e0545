// Package models defines the catalog records shared by the client packages.
package models

import (
	"fmt"
	"strings"
)

// BookStatus is the circulation status reported for a book.
type BookStatus string

const (
	StatusAvailable BookStatus = "Available"
	StatusBorrowed  BookStatus = "Borrowed"
)

// Book is a catalog entry keyed by ISBN.
type Book struct {
	ISBN       string     `json:"isbn"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Category   string     `json:"category"`
	Shelf      string     `json:"shelf"`
	Status     BookStatus `json:"status"`
	Available  bool       `json:"available"`
	BorrowedBy string     `json:"borrowedBy,omitempty"`
	DueDate    string     `json:"dueDate,omitempty"`
	Rating     float64    `json:"rating,omitempty"`
}

// Consistent reports whether the status, the available flag and the borrower agree.
func (b Book) Consistent() error {
	if b.Available != (b.Status == StatusAvailable) {
		return fmt.Errorf("book %s: available=%t disagrees with status %q", b.ISBN, b.Available, b.Status)
	}
	if (b.Status == StatusBorrowed) != (b.BorrowedBy != "") {
		return fmt.Errorf("book %s: status %q with borrower %q", b.ISBN, b.Status, b.BorrowedBy)
	}
	return nil
}

// BookDraft carries the fields accepted when cataloguing a new book.
type BookDraft struct {
	ISBN     string `json:"isbn"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Shelf    string `json:"shelf"`
}

// Book materializes the draft as an available catalog entry.
func (d BookDraft) Book() Book {
	return Book{
		ISBN:      d.ISBN,
		Title:     d.Title,
		Author:    d.Author,
		Category:  d.Category,
		Shelf:     d.Shelf,
		Status:    StatusAvailable,
		Available: true,
	}
}

// BorrowEvent is one entry of a book's lending history.
type BorrowEvent struct {
	User         string `json:"user"`
	BorrowedDate string `json:"borrowedDate"`
	ReturnedDate string `json:"returnedDate,omitempty"`
}

// BookDetails extends a book with its lending history.
type BookDetails struct {
	Book
	History []BorrowEvent `json:"borrowHistory,omitempty"`
	Reviews int           `json:"reviews,omitempty"`
}

// SearchField selects which book attribute a search matches against.
type SearchField string

const (
	SearchAll      SearchField = "all"
	SearchTitle    SearchField = "title"
	SearchAuthor   SearchField = "author"
	SearchISBN     SearchField = "isbn"
	SearchCategory SearchField = "category"
)

// ParseSearchField maps user input to a SearchField, defaulting to SearchAll.
func ParseSearchField(value string) (SearchField, error) {
	switch field := SearchField(strings.ToLower(strings.TrimSpace(value))); field {
	case "", SearchAll:
		return SearchAll, nil
	case SearchTitle, SearchAuthor, SearchISBN, SearchCategory:
		return field, nil
	default:
		return "", fmt.Errorf("unknown search type %q", value)
	}
}

// Matches reports whether the book matches query (case-insensitive substring) on field.
func (b Book) Matches(query string, field SearchField) bool {
	query = strings.ToLower(query)
	contains := func(value string) bool {
		return strings.Contains(strings.ToLower(value), query)
	}
	switch field {
	case SearchTitle:
		return contains(b.Title)
	case SearchAuthor:
		return contains(b.Author)
	case SearchISBN:
		return contains(b.ISBN)
	case SearchCategory:
		return contains(b.Category)
	default:
		return contains(b.Title) || contains(b.Author) || contains(b.ISBN) || contains(b.Category)
	}
}

// ShelfPath is a walking route between two shelves.
type ShelfPath struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Found    bool     `json:"found"`
	Distance int      `json:"distance"`
	Path     []string `json:"path"`
}
