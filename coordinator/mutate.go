package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aluiziolira/library-desk/models"
	"github.com/aluiziolira/library-desk/notify"
	"github.com/aluiziolira/library-desk/parser"
	"github.com/aluiziolira/library-desk/remote"
)

// Op is a write the backend accepts.
type Op string

const (
	OpCreateBook Op = "create_book"
	OpCreateUser Op = "create_user"
	OpBorrow     Op = "borrow"
	OpReturn     Op = "return"
)

// Mutation is one write request. Only the fields used by Op are read.
type Mutation struct {
	Op       Op
	Book     models.BookDraft
	User     models.UserDraft
	UserName string
	ISBN     string
}

// CreateBook catalogs a new book.
func CreateBook(draft models.BookDraft) Mutation {
	return Mutation{Op: OpCreateBook, Book: draft}
}

// CreateUser registers a new member.
func CreateUser(draft models.UserDraft) Mutation {
	return Mutation{Op: OpCreateUser, User: draft}
}

// Borrow lends the book isbn to the member userName.
func Borrow(userName, isbn string) Mutation {
	return Mutation{Op: OpBorrow, UserName: userName, ISBN: isbn}
}

// Return takes the book isbn back.
func Return(isbn string) Mutation {
	return Mutation{Op: OpReturn, ISBN: isbn}
}

// Result describes an accepted write. Simulated is set when the write was
// accepted in demo mode and nothing was stored.
type Result struct {
	Op        Op
	Simulated bool
	Book      *models.Book
	User      *models.User
}

// Affects lists the collections a completed write makes stale. Stats is
// always included.
func (m Mutation) Affects() []Kind {
	switch m.Op {
	case OpCreateBook:
		return []Kind{KindBooks, KindStats}
	case OpCreateUser:
		return []Kind{KindUsers, KindStats}
	default:
		return []Kind{KindBooks, KindUsers, KindStats}
	}
}

func (m Mutation) normalized() (Mutation, error) {
	switch m.Op {
	case OpCreateBook:
		draft, err := parser.ParseBookForm(m.Book.ISBN, m.Book.Title, m.Book.Author, m.Book.Category, m.Book.Shelf)
		m.Book = draft
		return m, err
	case OpCreateUser:
		draft, err := parser.ParseUserForm(m.User.Name, m.User.Contact)
		m.User = draft
		return m, err
	case OpBorrow:
		m.UserName, m.ISBN = strings.TrimSpace(m.UserName), strings.TrimSpace(m.ISBN)
		return m, parser.ValidateLoan(m.UserName, m.ISBN)
	case OpReturn:
		m.ISBN = strings.TrimSpace(m.ISBN)
		return m, parser.ValidateReturn(m.ISBN)
	default:
		return m, fmt.Errorf("unknown operation %q", m.Op)
	}
}

func (m Mutation) action() string {
	switch m.Op {
	case OpCreateBook:
		return "add book"
	case OpCreateUser:
		return "add user"
	case OpBorrow:
		return "borrow book"
	default:
		return "return book"
	}
}

func (m Mutation) subject() string {
	switch m.Op {
	case OpCreateBook:
		return fmt.Sprintf("book %q", m.Book.Title)
	case OpCreateUser:
		return fmt.Sprintf("member %q", m.User.Name)
	case OpBorrow:
		return fmt.Sprintf("loan of %s to %s", m.ISBN, m.UserName)
	default:
		return fmt.Sprintf("return of %s", m.ISBN)
	}
}

func (m Mutation) successMessage() string {
	switch m.Op {
	case OpCreateBook:
		return fmt.Sprintf("Book %q added successfully", m.Book.Title)
	case OpCreateUser:
		return fmt.Sprintf("User %q registered successfully", m.User.Name)
	case OpBorrow:
		return fmt.Sprintf("Book %s borrowed by %s", m.ISBN, m.UserName)
	default:
		return fmt.Sprintf("Book %s returned successfully", m.ISBN)
	}
}

// Mutate validates m and applies it. Validation failures stop before any
// request. In the Live state the write goes to the backend and its failure
// is returned, since a write has no demo substitute. Otherwise the write is
// accepted as Simulated without being stored. Mutate does not reload
// anything; use Apply, or call Refresh with m.Affects().
func (c *Coordinator) Mutate(ctx context.Context, m Mutation) (Result, error) {
	m, err := m.normalized()
	if err != nil {
		c.notify(notify.LevelError, validationMessage(err))
		return Result{Op: m.Op}, err
	}

	res := Result{Op: m.Op}
	switch m.Op {
	case OpCreateBook:
		book := m.Book.Book()
		res.Book = &book
	case OpCreateUser:
		user := m.User.User()
		res.User = &user
	}

	if !c.live() {
		res.Simulated = true
		c.metrics.incSimulated(m.Op)
		c.notify(notify.LevelInfo, fmt.Sprintf("Demo mode: %s was not saved", m.subject()))
		return res, nil
	}

	if err := c.send(ctx, m); err != nil {
		c.logger.Warn("write failed", slog.String("op", string(m.Op)), slog.Any("error", err))
		c.notify(notify.LevelError, fmt.Sprintf("Failed to %s: %s", m.action(), remote.Message(err)))
		return Result{Op: m.Op}, fmt.Errorf("%s: %w", m.Op, err)
	}

	c.details.Purge()
	c.notify(notify.LevelSuccess, m.successMessage())
	return res, nil
}

// Apply runs Mutate and, when it succeeds, reloads every affected collection
// before returning.
func (c *Coordinator) Apply(ctx context.Context, m Mutation) (Result, error) {
	res, err := c.Mutate(ctx, m)
	if err != nil {
		return res, err
	}
	c.Refresh(ctx, false, m.Affects()...)
	return res, nil
}

func (c *Coordinator) send(ctx context.Context, m Mutation) error {
	switch m.Op {
	case OpCreateBook:
		return c.svc.CreateBook(ctx, m.Book)
	case OpCreateUser:
		return c.svc.CreateUser(ctx, m.User)
	case OpBorrow:
		return c.svc.Borrow(ctx, m.UserName, m.ISBN)
	default:
		return c.svc.Return(ctx, m.ISBN)
	}
}

func validationMessage(err error) string {
	var verr parser.ErrValidation
	if errors.As(err, &verr) {
		return strings.Join(verr.Messages(), ", ")
	}
	return err.Error()
}
