// Package export writes catalog collections to CSV, JSONL, or both.
package export

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aluiziolira/library-desk/models"
)

// Writer defines the interface for record output.
type Writer[T any] interface {
	Write(records []T) error
	Close() error
	Validate() error
}

// Schema maps a record type to CSV columns.
type Schema[T any] struct {
	Header []string
	Row    func(T) []string
}

// BookSchema is used for book lists and search results.
var BookSchema = Schema[models.Book]{
	Header: []string{"isbn", "title", "author", "category", "shelf", "status", "borrowed_by", "due_date", "rating"},
	Row: func(b models.Book) []string {
		rating := ""
		if b.Rating > 0 {
			rating = strconv.FormatFloat(b.Rating, 'f', 1, 64)
		}
		return []string{b.ISBN, b.Title, b.Author, b.Category, b.Shelf, string(b.Status), b.BorrowedBy, b.DueDate, rating}
	},
}

// UserSchema is used for member lists.
var UserSchema = Schema[models.User]{
	Header: []string{"id", "name", "contact", "books_count", "total_borrowed", "join_date", "status"},
	Row: func(u models.User) []string {
		return []string{
			u.ID,
			u.Name,
			u.Contact,
			strconv.Itoa(u.BooksCount),
			strconv.Itoa(u.TotalBorrowed),
			u.JoinDate,
			string(u.Status),
		}
	},
}

// Open creates the writer for format (csv, json or dual). In dual mode the
// JSONL file sits next to filename with a .jsonl extension.
func Open[T any](format, filename string, schema Schema[T]) (Writer[T], error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONWriter[T](filename)
	case "csv":
		return NewCSVWriter(filename, schema)
	case "dual":
		return NewDualWriter(filename, companionName(filename), schema)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// All writes records in one batch, closes the writer and validates the output.
func All[T any](w Writer[T], records []T) error {
	if err := w.Write(records); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return w.Validate()
}

func companionName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jsonl"
}
