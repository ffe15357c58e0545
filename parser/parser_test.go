package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/aluiziolira/library-desk/models"
)

func TestValidateBookForm(t *testing.T) {
	tests := []struct {
		name      string
		isbn      string
		title     string
		author    string
		category  string
		shelf     string
		wantRules []string
	}{
		{
			name:     "valid book",
			isbn:     "INB001",
			title:    "Data",
			author:   "Author",
			category: "CS",
			shelf:    "Shelf-1",
		},
		{
			name:      "format and lengths reported together",
			isbn:      "AB1",
			title:     "T",
			author:    "A",
			category:  "C",
			shelf:     "S",
			wantRules: []string{RuleTitleLength, RuleAuthorLength, RuleISBNFormat},
		},
		{
			name:      "everything missing",
			wantRules: []string{RuleISBNLength, RuleTitleLength, RuleAuthorLength, RuleCategoryRequired, RuleShelfRequired},
		},
		{
			name:      "short isbn also fails format",
			isbn:      "IN",
			title:     "Title",
			author:    "Author",
			category:  "CS",
			shelf:     "Shelf-1",
			wantRules: []string{RuleISBNLength, RuleISBNFormat},
		},
		{
			name:      "lowercase prefix",
			isbn:      "inb001",
			title:     "Title",
			author:    "Author",
			category:  "CS",
			shelf:     "Shelf-1",
			wantRules: []string{RuleISBNFormat},
		},
		{
			name:      "whitespace only fields",
			isbn:      "INB001",
			title:     "  ",
			author:    "Author",
			category:  " ",
			shelf:     "Shelf-1",
			wantRules: []string{RuleTitleLength, RuleCategoryRequired},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBookForm(tt.isbn, tt.title, tt.author, tt.category, tt.shelf)
			if len(tt.wantRules) == 0 {
				if err != nil {
					t.Fatalf("ValidateBookForm() error = %v, want nil", err)
				}
				return
			}
			var verr ErrValidation
			if !errors.As(err, &verr) {
				t.Fatalf("ValidateBookForm() error = %v, want ErrValidation", err)
			}
			if got := verr.Rules(); !reflect.DeepEqual(got, tt.wantRules) {
				t.Fatalf("rules = %v, want %v", got, tt.wantRules)
			}
		})
	}
}

func TestValidateUserFormCollectsAll(t *testing.T) {
	err := ValidateUserForm("Al", "12345")
	var verr ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !verr.Has(RuleContactDigits) {
		t.Fatalf("expected contact violation, got %v", verr.Rules())
	}

	err = ValidateUserForm("A", "12345")
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !verr.Has(RuleNameLength) || !verr.Has(RuleContactDigits) {
		t.Fatalf("expected name and contact violations together, got %v", verr.Rules())
	}
	if verr.Error() != "validation: Name must be at least 2 characters, Contact must be 10 digits" {
		t.Fatalf("unexpected message %q", verr.Error())
	}

	if err := ValidateUserForm("Neha Verma", "9900112233"); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}
	if err := ValidateUserForm("Neha Verma", "99001122334"); err == nil {
		t.Fatalf("11 digits should be rejected")
	}
}

func TestParseBookFormTrims(t *testing.T) {
	draft, err := ParseBookForm(" INB011 ", " Compiler Design ", "Anita Singh", "CS", " Shelf-5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := models.BookDraft{ISBN: "INB011", Title: "Compiler Design", Author: "Anita Singh", Category: "CS", Shelf: "Shelf-5"}
	if draft != want {
		t.Fatalf("draft = %+v, want %+v", draft, want)
	}
}

func TestValidateLoan(t *testing.T) {
	var verr ErrValidation
	if err := ValidateLoan("", ""); !errors.As(err, &verr) || len(verr.Violations) != 2 {
		t.Fatalf("expected two violations, got %v", err)
	}
	if err := ValidateLoan("Amit Sharma", "INB002"); err != nil {
		t.Fatalf("valid loan rejected: %v", err)
	}
	if err := ValidateReturn(" "); err == nil {
		t.Fatalf("blank return should be rejected")
	}
}

func TestNormalizeBook(t *testing.T) {
	yes, no := true, false
	borrower := "Priya Singh"
	rating := 4.75

	tests := []struct {
		name   string
		record BookRecord
		want   models.Book
	}{
		{
			name:   "status only available",
			record: BookRecord{ISBN: "INB002", Title: "Algorithms Unlocked", Status: "Available"},
			want:   models.Book{ISBN: "INB002", Title: "Algorithms Unlocked", Status: models.StatusAvailable, Available: true},
		},
		{
			name:   "status borrowed without borrower",
			record: BookRecord{ISBN: "INB001", Status: "Borrowed"},
			want:   models.Book{ISBN: "INB001", Status: models.StatusBorrowed},
		},
		{
			name:   "flag only",
			record: BookRecord{ISBN: "INB003", Available: &no},
			want:   models.Book{ISBN: "INB003", Status: models.StatusBorrowed},
		},
		{
			name:   "borrower beats flag",
			record: BookRecord{ISBN: "INB005", Available: &yes, Borrower: &borrower, DueDate: "2024-01-20", Rating: &rating},
			want:   models.Book{ISBN: "INB005", Status: models.StatusBorrowed, BorrowedBy: "Priya Singh", DueDate: "2024-01-20", Rating: 4.8},
		},
		{
			name:   "due date dropped when available",
			record: BookRecord{ISBN: "INB006", Status: "available", DueDate: "2024-02-01"},
			want:   models.Book{ISBN: "INB006", Status: models.StatusAvailable, Available: true},
		},
		{
			name:   "legacy issued status",
			record: BookRecord{ISBN: "INB009", Status: "Issued", BorrowedBy: "Rohan Kumar"},
			want:   models.Book{ISBN: "INB009", Status: models.StatusBorrowed, BorrowedBy: "Rohan Kumar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBook(tt.record)
			if got != tt.want {
				t.Fatalf("NormalizeBook() = %+v, want %+v", got, tt.want)
			}
			if got.Available != (got.Status == models.StatusAvailable) {
				t.Fatalf("flag and status disagree: %+v", got)
			}
		})
	}
}

func TestNormalizeUser(t *testing.T) {
	got := NormalizeUser(UserRecord{Name: " Amit Sharma ", Contact: "9876543210", BooksCount: 2})
	if got.ID != models.DerivedUserID("Amit Sharma") {
		t.Fatalf("id = %q, want name-derived id", got.ID)
	}
	if got.Status != models.UserActive {
		t.Fatalf("status = %q, want Active", got.Status)
	}
	if got.TotalBorrowed != 2 {
		t.Fatalf("total borrowed = %d, want at least the current count", got.TotalBorrowed)
	}

	kept := NormalizeUser(UserRecord{ID: "u-17", Name: "Anita Patel", Status: "inactive"})
	if kept.ID != "u-17" || kept.Status != models.UserInactive {
		t.Fatalf("NormalizeUser() = %+v", kept)
	}
}

func TestDecodeSearchResults(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		count int
	}{
		{name: "array", body: `[{"isbn":"INB001","title":"A"},{"isbn":"INB002","title":"B"}]`, count: 2},
		{name: "single object", body: `{"isbn":"INB001","title":"Data Structures in Java","status":"Available"}`, count: 1},
		{name: "not found", body: `{"found": false}`, count: 0},
		{name: "empty", body: ``, count: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := DecodeSearchResults([]byte(tt.body))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(books) != tt.count {
				t.Fatalf("results = %d, want %d", len(books), tt.count)
			}
		})
	}

	if _, err := DecodeSearchResults([]byte(`{not json`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDecodeBookDetailsNotFound(t *testing.T) {
	if _, err := DecodeBookDetails([]byte(`{"found": false}`)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	details, err := DecodeBookDetails([]byte(`{"isbn":"INB003","title":"Operating System Concepts","status":"Available","reviews":3,"borrowHistory":[{"user":"John Doe","borrowedDate":"2023-12-01"}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if details.ISBN != "INB003" || details.Reviews != 3 || len(details.History) != 1 {
		t.Fatalf("details = %+v", details)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "plain text", body: "Book already borrowed\n", want: "Book already borrowed"},
		{name: "json error", body: `{"error": "User not found"}`, want: "User not found"},
		{name: "json message", body: `{"success": false, "message": "No copies left"}`, want: "No copies left"},
		{name: "empty", body: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("ErrorMessage(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}
