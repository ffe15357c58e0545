package coordinator

import (
	"slices"

	"github.com/aluiziolira/library-desk/models"
)

// Dataset is the fixed catalog served in demo mode. It is never mutated.
type Dataset struct {
	Books []models.Book
	Users []models.User
}

func borrowed(isbn, title, author, category, shelf, borrower, due string) models.Book {
	return models.Book{
		ISBN: isbn, Title: title, Author: author, Category: category, Shelf: shelf,
		Status: models.StatusBorrowed, BorrowedBy: borrower, DueDate: due,
	}
}

func available(isbn, title, author, category, shelf string, rating float64) models.Book {
	return models.Book{
		ISBN: isbn, Title: title, Author: author, Category: category, Shelf: shelf,
		Status: models.StatusAvailable, Available: true, Rating: rating,
	}
}

func member(name, contact string, holding, total int, joined string, status models.UserStatus) models.User {
	return models.User{
		ID:            models.DerivedUserID(name),
		Name:          name,
		Contact:       contact,
		BooksCount:    holding,
		TotalBorrowed: total,
		JoinDate:      joined,
		Status:        status,
	}
}

// DemoDataset returns a fresh copy of the demo catalog.
func DemoDataset() Dataset {
	return Dataset{
		Books: []models.Book{
			borrowed("INB001", "Data Structures in Java", "Prof. Rajesh Kumar", "CS", "Shelf-3", "Amit Sharma", "2024-08-18"),
			available("INB002", "Algorithms Unlocked", "Dr. Suresh Verma", "CS", "Shelf-2", 4.5),
			available("INB003", "Operating System Concepts", "Amitabh Tiwari", "CS", "Shelf-4", 4.8),
			borrowed("INB004", "Computer Networks", "Neha Gupta", "CS", "Shelf-3", "Priya Singh", "2024-08-20"),
			available("INB005", "Database System Concepts", "Deepak Joshi", "CS", "Shelf-5", 4.7),
			available("INB006", "Introduction to AI", "Priya Reddy", "CS", "Shelf-1", 4.3),
			available("INB007", "Discrete Mathematics", "Sanjay Yadav", "Math", "Shelf-2", 4.1),
			borrowed("INB008", "Design Patterns in Java", "Rohit Malhotra", "CS", "Shelf-4", "Rohan Kumar", "2024-08-15"),
		},
		Users: []models.User{
			member("Amit Sharma", "9876543210", 1, 5, "2024-01-15", models.UserActive),
			member("Priya Singh", "9876501234", 1, 3, "2024-02-20", models.UserActive),
			member("Rohan Kumar", "9812345678", 1, 8, "2024-03-10", models.UserActive),
			member("Neha Verma", "9900112233", 0, 2, "2024-04-05", models.UserActive),
			member("Sandeep Joshi", "9887766554", 0, 1, "2024-05-12", models.UserActive),
			member("Anita Patel", "9765432108", 0, 0, "2024-06-18", models.UserInactive),
			member("Vikram Singh", "9654321097", 2, 4, "2024-07-22", models.UserActive),
		},
	}
}

// Stats is computed from the collections so the snapshot is always consistent.
func (d Dataset) Stats() models.Stats {
	return models.ComputeStats(d.Books, d.Users)
}

// Collection returns a copy of the demo collection for kind.
func (d Dataset) Collection(kind Kind) Collection {
	switch kind {
	case KindBooks:
		return Collection{Kind: kind, Books: slices.Clone(d.Books)}
	case KindUsers:
		return Collection{Kind: kind, Users: slices.Clone(d.Users)}
	default:
		return Collection{Kind: KindStats, Stats: d.Stats()}
	}
}

// Details returns the demo lending record for isbn, or a generic sample.
func (d Dataset) Details(isbn string) models.BookDetails {
	book := models.Book{
		ISBN: isbn, Title: "Sample Book Title", Author: "Sample Author",
		Category: "Computer Science", Shelf: "Shelf-1",
		Status: models.StatusAvailable, Available: true, Rating: 4.5,
	}
	for _, b := range d.Books {
		if b.ISBN == isbn {
			book = b
			break
		}
	}
	return models.BookDetails{
		Book: book,
		History: []models.BorrowEvent{
			{User: "John Doe", BorrowedDate: "2023-12-01", ReturnedDate: "2023-12-15"},
			{User: "Jane Smith", BorrowedDate: "2023-11-15", ReturnedDate: "2023-11-29"},
		},
		Reviews: 12,
	}
}

// ShelfPath is the placeholder route shown without a backend.
func (d Dataset) ShelfPath(from, to string) models.ShelfPath {
	return models.ShelfPath{
		From:     from,
		To:       to,
		Found:    true,
		Distance: 9,
		Path:     []string{from, "Shelf-2", to},
	}
}

// Recommendations is the fixed list shown without a backend.
func (d Dataset) Recommendations() []models.Book {
	return []models.Book{
		available("REC001", "Advanced Algorithms", "Dr. Kumar Singh", "CS", "Shelf-2", 0),
		available("REC002", "Machine Learning Advanced", "Prof. Amit Patel", "CS", "Shelf-1", 0),
		available("REC003", "Data Mining Concepts", "Neha Sharma", "CS", "Shelf-5", 0),
	}
}

// localSearch filters books in memory, used when the backend cannot answer.
func localSearch(books []models.Book, query string, field models.SearchField) []models.Book {
	matches := make([]models.Book, 0)
	for _, b := range books {
		if b.Matches(query, field) {
			matches = append(matches, b)
		}
	}
	return matches
}
