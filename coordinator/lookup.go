package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aluiziolira/library-desk/models"
	"github.com/aluiziolira/library-desk/notify"
	"github.com/aluiziolira/library-desk/parser"
	"github.com/aluiziolira/library-desk/remote"
)

// Search looks books up by field. A failed live search falls back to
// filtering the most recent book list, or the demo books when none has been
// loaded. Results commit to the view last-requested-wins.
func (c *Coordinator) Search(ctx context.Context, query string, field models.SearchField) (SearchResult, error) {
	if err := parser.ValidateSearch(query); err != nil {
		c.notify(notify.LevelWarning, validationMessage(err))
		return SearchResult{}, err
	}
	query = strings.TrimSpace(query)
	if field == "" {
		field = models.SearchAll
	}

	ticket := c.view.ticket(KindSearch)
	result := SearchResult{Query: query, Field: field}
	if c.live() {
		books, err := c.svc.Search(ctx, query, field)
		if err == nil {
			result.Books = books
		} else {
			c.logger.Warn("live search failed, filtering locally", slog.Any("error", err))
			c.metrics.incFallback(KindSearch)
			c.notify(notify.LevelError, "Search failed: "+remote.Message(err))
			result.Books = localSearch(c.searchSource(), query, field)
		}
	} else {
		result.Books = localSearch(c.searchSource(), query, field)
	}

	c.view.commit(ticket, Update{Kind: KindSearch, Search: result})
	return result, nil
}

func (c *Coordinator) searchSource() []models.Book {
	if books, ok := c.view.Books(); ok {
		return books
	}
	return c.demo.Books
}

// BookDetails returns a book with its lending history. Live answers are
// cached until the next successful live write. A book the backend does not
// know is an error; other live failures fall back to demo details.
func (c *Coordinator) BookDetails(ctx context.Context, isbn string) (models.BookDetails, error) {
	if err := parser.ValidateISBN(isbn); err != nil {
		c.notify(notify.LevelError, validationMessage(err))
		return models.BookDetails{}, err
	}
	isbn = strings.TrimSpace(isbn)

	if !c.live() {
		return c.demo.Details(isbn), nil
	}
	if details, ok := c.details.Get(isbn); ok {
		return details, nil
	}

	details, err := c.svc.BookDetails(ctx, isbn)
	if remote.IsNotFound(err) {
		c.notify(notify.LevelError, "Failed to load book details")
		return models.BookDetails{}, fmt.Errorf("book %s: %w", isbn, err)
	}
	if err != nil {
		c.logger.Warn("book details failed", slog.String("isbn", isbn), slog.Any("error", err))
		c.metrics.incFallback(KindBooks)
		c.notify(notify.LevelError, "Failed to load book details")
		return c.demo.Details(isbn), nil
	}
	c.details.Add(isbn, details)
	return details, nil
}

// ShelfPath finds the walking route between two shelves.
func (c *Coordinator) ShelfPath(ctx context.Context, from, to string) (models.ShelfPath, error) {
	if err := parser.ValidateShelves(from, to); err != nil {
		c.notify(notify.LevelError, validationMessage(err))
		return models.ShelfPath{}, err
	}
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)

	if !c.live() {
		return c.demo.ShelfPath(from, to), nil
	}
	path, err := c.svc.ShelfPath(ctx, from, to)
	if err != nil {
		c.logger.Warn("shelf path failed", slog.Any("error", err))
		c.notify(notify.LevelError, fmt.Sprintf("Failed to find path: %s", remote.Message(err)))
		return c.demo.ShelfPath(from, to), nil
	}
	return path, nil
}

// Recommend lists books suggested for a member.
func (c *Coordinator) Recommend(ctx context.Context, user string) ([]models.Book, error) {
	if err := parser.ValidateMemberName(user); err != nil {
		c.notify(notify.LevelError, validationMessage(err))
		return nil, err
	}
	user = strings.TrimSpace(user)

	if !c.live() {
		return c.demo.Recommendations(), nil
	}
	books, err := c.svc.Recommend(ctx, user)
	if err != nil {
		c.logger.Warn("recommendations failed", slog.String("user", user), slog.Any("error", err))
		c.notify(notify.LevelError, fmt.Sprintf("Failed to load recommendations: %s", remote.Message(err)))
		return c.demo.Recommendations(), nil
	}
	return books, nil
}
