package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aluiziolira/library-desk/models"
)

var (
	isbnPattern    = regexp.MustCompile(`^[A-Z]{2,3}\d{3,}$`)
	contactPattern = regexp.MustCompile(`^\d{10}$`)
)

// Violation is a single failed form rule.
type Violation struct {
	Field   string
	Rule    string
	Message string
}

// ErrValidation carries every rule a form submission violated.
type ErrValidation struct {
	Violations []Violation
}

func (e ErrValidation) Error() string {
	return "validation: " + strings.Join(e.Messages(), ", ")
}

// Messages returns the user-facing text of each violation.
func (e ErrValidation) Messages() []string {
	messages := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		messages = append(messages, v.Message)
	}
	return messages
}

// Has reports whether rule is among the violations.
func (e ErrValidation) Has(rule string) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// Rules returns the violated rule names in the order they were checked.
func (e ErrValidation) Rules() []string {
	rules := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		rules = append(rules, v.Rule)
	}
	return rules
}

// Rule names reported by the form validators.
const (
	RuleISBNLength       = "isbn_length"
	RuleISBNFormat       = "isbn_format"
	RuleTitleLength      = "title_length"
	RuleAuthorLength     = "author_length"
	RuleCategoryRequired = "category_required"
	RuleShelfRequired    = "shelf_required"
	RuleNameLength       = "name_length"
	RuleContactDigits    = "contact_digits"
	RuleRequired         = "required"
)

type collector struct {
	violations []Violation
}

func (c *collector) add(field, rule, message string) {
	c.violations = append(c.violations, Violation{Field: field, Rule: rule, Message: message})
}

func (c *collector) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return ErrValidation{Violations: c.violations}
}

// ValidateBookForm checks a new-book submission and reports all violations together.
func ValidateBookForm(isbn, title, author, category, shelf string) error {
	isbn, title, author = strings.TrimSpace(isbn), strings.TrimSpace(title), strings.TrimSpace(author)
	category, shelf = strings.TrimSpace(category), strings.TrimSpace(shelf)

	var c collector
	if utf8.RuneCountInString(isbn) < 3 {
		c.add("isbn", RuleISBNLength, "ISBN must be at least 3 characters")
	}
	if utf8.RuneCountInString(title) < 2 {
		c.add("title", RuleTitleLength, "Title must be at least 2 characters")
	}
	if utf8.RuneCountInString(author) < 2 {
		c.add("author", RuleAuthorLength, "Author must be at least 2 characters")
	}
	if category == "" {
		c.add("category", RuleCategoryRequired, "Category is required")
	}
	if shelf == "" {
		c.add("shelf", RuleShelfRequired, "Shelf location is required")
	}
	if isbn != "" && !isbnPattern.MatchString(isbn) {
		c.add("isbn", RuleISBNFormat, "ISBN format should be like: INB001")
	}
	return c.err()
}

// ValidateUserForm checks a member registration and reports all violations together.
func ValidateUserForm(name, contact string) error {
	name, contact = strings.TrimSpace(name), strings.TrimSpace(contact)

	var c collector
	if utf8.RuneCountInString(name) < 2 {
		c.add("name", RuleNameLength, "Name must be at least 2 characters")
	}
	if !contactPattern.MatchString(contact) {
		c.add("contact", RuleContactDigits, "Contact must be 10 digits")
	}
	return c.err()
}

// ValidateLoan checks that a borrow request names both a member and a book.
func ValidateLoan(userName, isbn string) error {
	var c collector
	if strings.TrimSpace(userName) == "" {
		c.add("userName", RuleRequired, "Member name is required")
	}
	if strings.TrimSpace(isbn) == "" {
		c.add("isbn", RuleRequired, "ISBN is required")
	}
	return c.err()
}

// ValidateReturn checks that a return request names a book.
func ValidateReturn(isbn string) error {
	return ValidateISBN(isbn)
}

// ValidateISBN checks that a lookup names a book.
func ValidateISBN(isbn string) error {
	var c collector
	if strings.TrimSpace(isbn) == "" {
		c.add("isbn", RuleRequired, "ISBN is required")
	}
	return c.err()
}

// ValidateSearch checks that a search has a term.
func ValidateSearch(query string) error {
	var c collector
	if strings.TrimSpace(query) == "" {
		c.add("query", RuleRequired, "Please enter a search term")
	}
	return c.err()
}

// ValidateShelves checks that a route names both ends.
func ValidateShelves(from, to string) error {
	var c collector
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		c.add("shelves", RuleRequired, "Please enter both shelves")
	}
	return c.err()
}

// ValidateMemberName checks that a per-member lookup names the member.
func ValidateMemberName(name string) error {
	var c collector
	if strings.TrimSpace(name) == "" {
		c.add("user", RuleRequired, "Please enter user name")
	}
	return c.err()
}

// ParseBookForm trims and validates raw form input into a draft.
func ParseBookForm(isbn, title, author, category, shelf string) (models.BookDraft, error) {
	if err := ValidateBookForm(isbn, title, author, category, shelf); err != nil {
		return models.BookDraft{}, err
	}
	return models.BookDraft{
		ISBN:     strings.TrimSpace(isbn),
		Title:    strings.TrimSpace(title),
		Author:   strings.TrimSpace(author),
		Category: strings.TrimSpace(category),
		Shelf:    strings.TrimSpace(shelf),
	}, nil
}

// ParseUserForm trims and validates raw registration input into a draft.
func ParseUserForm(name, contact string) (models.UserDraft, error) {
	if err := ValidateUserForm(name, contact); err != nil {
		return models.UserDraft{}, err
	}
	return models.UserDraft{
		Name:    strings.TrimSpace(name),
		Contact: strings.TrimSpace(contact),
	}, nil
}
