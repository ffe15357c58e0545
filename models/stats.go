package models

import (
	"fmt"
	"sort"
)

// Stats is the aggregate snapshot shown on the dashboard.
type Stats struct {
	TotalBooks     int `json:"totalBooks"`
	AvailableBooks int `json:"availableBooks"`
	TotalUsers     int `json:"totalUsers"`
	BorrowedBooks  int `json:"borrowedBooks"`
}

// ComputeStats derives the snapshot from the book and user collections.
func ComputeStats(books []Book, users []User) Stats {
	stats := Stats{
		TotalBooks: len(books),
		TotalUsers: len(users),
	}
	for _, b := range books {
		if b.Available {
			stats.AvailableBooks++
		}
	}
	stats.BorrowedBooks = stats.TotalBooks - stats.AvailableBooks
	return stats
}

// ConsistentWith reports whether s matches what the collections imply.
func (s Stats) ConsistentWith(books []Book, users []User) error {
	want := ComputeStats(books, users)
	if s != want {
		return fmt.Errorf("stats %+v disagree with collections %+v", s, want)
	}
	return nil
}

// CategoryCount is one bar of the dashboard category chart.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Activity is one line of the dashboard activity feed.
type Activity struct {
	Kind    string `json:"kind"` // borrow or member
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
	Date    string `json:"date,omitempty"`
}

// Dashboard bundles the aggregate views built from one consistent load.
type Dashboard struct {
	Stats      Stats           `json:"stats"`
	Categories []CategoryCount `json:"categories"`
	Activity   []Activity      `json:"activity"`
}

// CountCategories returns per-category totals, largest first, ties by name.
func CountCategories(books []Book) []CategoryCount {
	counts := make(map[string]int)
	for _, b := range books {
		counts[b.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for category, count := range counts {
		out = append(out, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// RecentActivity lists current loans followed by the newest members, capped at limit.
func RecentActivity(books []Book, users []User, limit int) []Activity {
	var feed []Activity
	for _, b := range books {
		if b.Status != StatusBorrowed {
			continue
		}
		who := b.BorrowedBy
		if who == "" {
			who = "a member"
		}
		feed = append(feed, Activity{
			Kind:    "borrow",
			Subject: b.Title,
			Detail:  fmt.Sprintf("borrowed by %s", who),
			Date:    b.DueDate,
		})
	}

	members := make([]User, len(users))
	copy(members, users)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].JoinDate > members[j].JoinDate
	})
	for _, u := range members {
		feed = append(feed, Activity{
			Kind:    "member",
			Subject: u.Name,
			Detail:  "joined the library",
			Date:    u.JoinDate,
		})
	}

	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}
