package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/library-desk/coordinator"
	"github.com/aluiziolira/library-desk/export"
	"github.com/aluiziolira/library-desk/models"
	"github.com/spf13/cobra"
)

// reported marks an error whose notification was already printed.
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }

// printNotes flushes the notification tray to stderr.
func (a *app) printNotes() {
	for _, n := range a.tray.Active() {
		fmt.Fprintf(a.errOut, "[%s] %s\n", n.Level, n.Message)
		a.tray.Dismiss(n.ID)
	}
}

// finish prints pending notifications and marks err as shown.
func (a *app) finish(err error) error {
	a.printNotes()
	if err != nil {
		return reported{err}
	}
	return nil
}

func (a *app) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show counts, categories and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := a.coord.Dashboard(cmd.Context(), false)
			renderDashboard(a.out, d, a.coord.State())
			return a.finish(nil)
		},
	}
}

func (a *app) collectionCmd(kind coordinator.Kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			col := a.coord.LoadCollection(cmd.Context(), kind, false)
			switch kind {
			case coordinator.KindBooks:
				renderBooks(a.out, col.Books)
			case coordinator.KindUsers:
				renderUsers(a.out, col.Users)
			default:
				renderStats(a.out, col.Stats)
			}
			return a.finish(nil)
		},
	}
}

func (a *app) addBookCmd() *cobra.Command {
	var draft models.BookDraft
	cmd := &cobra.Command{
		Use:   "add-book",
		Short: "Catalog a new book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.coord.Apply(cmd.Context(), coordinator.CreateBook(draft))
			if err == nil && res.Book != nil {
				renderBooks(a.out, []models.Book{*res.Book})
			}
			return a.finish(err)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&draft.ISBN, "isbn", "", "Book ISBN, e.g. LIB123")
	flags.StringVar(&draft.Title, "title", "", "Title")
	flags.StringVar(&draft.Author, "author", "", "Author")
	flags.StringVar(&draft.Category, "category", "", "Category")
	flags.StringVar(&draft.Shelf, "shelf", "", "Shelf, e.g. Shelf-3")
	return cmd
}

func (a *app) addUserCmd() *cobra.Command {
	var draft models.UserDraft
	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Register a library member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.coord.Apply(cmd.Context(), coordinator.CreateUser(draft))
			if err == nil && res.User != nil {
				renderUsers(a.out, []models.User{*res.User})
			}
			return a.finish(err)
		},
	}
	cmd.Flags().StringVar(&draft.Name, "name", "", "Member name")
	cmd.Flags().StringVar(&draft.Contact, "contact", "", "10 digit phone number")
	return cmd
}

func (a *app) borrowCmd() *cobra.Command {
	var user, isbn string
	cmd := &cobra.Command{
		Use:   "borrow",
		Short: "Lend a book to a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.coord.Apply(cmd.Context(), coordinator.Borrow(user, isbn))
			return a.finish(err)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Member name")
	cmd.Flags().StringVar(&isbn, "isbn", "", "Book ISBN")
	return cmd
}

func (a *app) returnCmd() *cobra.Command {
	var isbn string
	cmd := &cobra.Command{
		Use:   "return",
		Short: "Take a borrowed book back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.coord.Apply(cmd.Context(), coordinator.Return(isbn))
			return a.finish(err)
		},
	}
	cmd.Flags().StringVar(&isbn, "isbn", "", "Book ISBN")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var fieldFlag string
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search books by title, author, ISBN or category",
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := models.ParseSearchField(fieldFlag)
			if err != nil {
				return err
			}
			a.coord.View().SetSection(coordinator.SectionSearch)
			res, err := a.coord.Search(cmd.Context(), strings.Join(args, " "), field)
			if err == nil {
				renderBooks(a.out, res.Books)
			}
			return a.finish(err)
		},
	}
	cmd.Flags().StringVar(&fieldFlag, "type", "all", "Field to match: all, title, author, isbn, category")
	return cmd
}

func (a *app) detailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "details ISBN",
		Short: "Show a book with its lending history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.coord.BookDetails(cmd.Context(), args[0])
			if err == nil {
				renderDetails(a.out, d)
			}
			return a.finish(err)
		},
	}
}

func (a *app) pathCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Find the walking route between two shelves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.coord.View().SetSection(coordinator.SectionNavigation)
			p, err := a.coord.ShelfPath(cmd.Context(), from, to)
			if err == nil {
				renderPath(a.out, p)
			}
			return a.finish(err)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Starting shelf")
	cmd.Flags().StringVar(&to, "to", "", "Destination shelf")
	return cmd
}

func (a *app) recommendCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest books for a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.coord.View().SetSection(coordinator.SectionRecommendations)
			books, err := a.coord.Recommend(cmd.Context(), user)
			if err == nil {
				renderBooks(a.out, books)
			}
			return a.finish(err)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Member name")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var kind, query, fieldFlag, format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write books, users or search results to CSV, JSONL or both",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.cfg.OutputFormat
			}
			if output == "" {
				output = a.cfg.OutputFile
			}

			var (
				n   int
				err error
			)
			switch kind {
			case "books":
				col := a.coord.LoadCollection(cmd.Context(), coordinator.KindBooks, false)
				n, err = writeAll(format, output, export.BookSchema, col.Books)
			case "users":
				col := a.coord.LoadCollection(cmd.Context(), coordinator.KindUsers, false)
				n, err = writeAll(format, output, export.UserSchema, col.Users)
			case "search":
				field, perr := models.ParseSearchField(fieldFlag)
				if perr != nil {
					return perr
				}
				res, serr := a.coord.Search(cmd.Context(), query, field)
				if serr != nil {
					return a.finish(serr)
				}
				n, err = writeAll(format, output, export.BookSchema, res.Books)
			default:
				return fmt.Errorf("unknown export kind %q (books, users or search)", kind)
			}
			if err != nil {
				a.printNotes()
				return err
			}
			fmt.Fprintf(a.out, "Exported %d %s to %s\n", n, kind, output)
			return a.finish(nil)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&kind, "kind", "books", "What to export: books, users or search")
	flags.StringVar(&query, "query", "", "Search term when --kind=search")
	flags.StringVar(&fieldFlag, "type", "all", "Search field when --kind=search")
	flags.StringVar(&format, "format", "", "Output format: csv, json, or dual (default from config)")
	flags.StringVarP(&output, "output", "o", "", "Output file path (default from config)")
	return cmd
}

func writeAll[T any](format, filename string, schema export.Schema[T], records []T) (int, error) {
	w, err := export.Open(format, filename, schema)
	if err != nil {
		return 0, fmt.Errorf("create writer: %w", err)
	}
	if err := export.All(w, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (a *app) watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the dashboard current; type to search, empty line to go back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = a.cfg.RefreshInterval
			}
			ctx := cmd.Context()
			view := a.coord.View()

			var outMu sync.Mutex
			unsubscribe := view.Subscribe(func(u coordinator.Update) {
				outMu.Lock()
				defer outMu.Unlock()
				switch u.Kind {
				case coordinator.KindDashboard:
					if view.Section() == coordinator.SectionDashboard {
						fmt.Fprintf(a.out, "\n%s\n", time.Now().Format(time.TimeOnly))
						renderDashboard(a.out, u.Dashboard, a.coord.State())
					}
				case coordinator.KindSearch:
					fmt.Fprintf(a.out, "\nResults for %q\n", u.Search.Query)
					renderBooks(a.out, u.Search.Books)
				}
			})
			defer unsubscribe()

			view.SetSection(coordinator.SectionDashboard)
			a.coord.Dashboard(ctx, false)

			refresher := a.coord.NewRefresher(interval)
			done := make(chan struct{})
			go func() {
				refresher.Run(ctx)
				close(done)
			}()

			searcher := a.coord.NewSearcher(ctx, a.cfg.SearchDebounce, nil)
			go func() {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					line := scanner.Text()
					if strings.TrimSpace(line) == "" {
						searcher.Cancel()
						view.SetSection(coordinator.SectionDashboard)
						continue
					}
					view.SetSection(coordinator.SectionSearch)
					searcher.Input(line, models.SearchAll)
				}
			}()

			notes := time.NewTicker(time.Second)
			defer notes.Stop()
			for {
				select {
				case <-ctx.Done():
					searcher.Cancel()
					<-done
					a.printNotes()
					if errors.Is(ctx.Err(), context.Canceled) {
						return nil
					}
					return ctx.Err()
				case <-notes.C:
					outMu.Lock()
					a.printNotes()
					outMu.Unlock()
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (default from config)")
	return cmd
}
