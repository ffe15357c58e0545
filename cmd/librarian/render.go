package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aluiziolira/library-desk/coordinator"
	"github.com/aluiziolira/library-desk/models"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderBooks(w io.Writer, books []models.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ISBN\tTITLE\tAUTHOR\tCATEGORY\tSHELF\tSTATUS\tBORROWER\tDUE")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ISBN, b.Title, b.Author, b.Category, b.Shelf, b.Status, dash(b.BorrowedBy), dash(b.DueDate))
	}
	tw.Flush()
}

func renderUsers(w io.Writer, users []models.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tCONTACT\tHOLDING\tTOTAL\tJOINED\tSTATUS")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			u.Name, u.Contact, u.BooksCount, u.TotalBorrowed, dash(u.JoinDate), u.Status)
	}
	tw.Flush()
}

func renderStats(w io.Writer, s models.Stats) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total books\t%d\n", s.TotalBooks)
	fmt.Fprintf(tw, "Available\t%d\n", s.AvailableBooks)
	fmt.Fprintf(tw, "Borrowed\t%d\n", s.BorrowedBooks)
	fmt.Fprintf(tw, "Members\t%d\n", s.TotalUsers)
	tw.Flush()
}

func renderDashboard(w io.Writer, d models.Dashboard, state coordinator.State) {
	fmt.Fprintf(w, "Mode: %s\n\n", state)
	renderStats(w, d.Stats)

	if len(d.Categories) > 0 {
		fmt.Fprintln(w, "\nBooks by category")
		tw := newTable(w)
		for _, c := range d.Categories {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Category, c.Count, strings.Repeat("#", c.Count))
		}
		tw.Flush()
	}

	if len(d.Activity) > 0 {
		fmt.Fprintln(w, "\nRecent activity")
		for _, a := range d.Activity {
			fmt.Fprintf(w, "  %s: %s\n", a.Subject, a.Detail)
		}
	}
}

func renderDetails(w io.Writer, d models.BookDetails) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ISBN\t%s\n", d.ISBN)
	fmt.Fprintf(tw, "Title\t%s\n", d.Title)
	fmt.Fprintf(tw, "Author\t%s\n", d.Author)
	fmt.Fprintf(tw, "Category\t%s\n", d.Category)
	fmt.Fprintf(tw, "Shelf\t%s\n", d.Shelf)
	fmt.Fprintf(tw, "Status\t%s\n", d.Status)
	if d.Rating > 0 {
		fmt.Fprintf(tw, "Rating\t%.1f (%d reviews)\n", d.Rating, d.Reviews)
	}
	tw.Flush()

	if len(d.History) > 0 {
		fmt.Fprintln(w, "\nBorrow history")
		tw = newTable(w)
		for _, h := range d.History {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", h.User, h.BorrowedDate, dash(h.ReturnedDate))
		}
		tw.Flush()
	}
}

func renderPath(w io.Writer, p models.ShelfPath) {
	if !p.Found {
		fmt.Fprintf(w, "No path from %s to %s\n", p.From, p.To)
		return
	}
	fmt.Fprintf(w, "%s (distance %d)\n", strings.Join(p.Path, " -> "), p.Distance)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
