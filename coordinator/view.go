package coordinator

import (
	"slices"
	"sync"

	"github.com/aluiziolira/library-desk/models"
)

// Collection is a loaded dataset of one kind. It carries no record of where
// it came from.
type Collection struct {
	Kind  Kind
	Books []models.Book
	Users []models.User
	Stats models.Stats
}

func (c Collection) clone() Collection {
	c.Books = slices.Clone(c.Books)
	c.Users = slices.Clone(c.Users)
	return c
}

// SearchResult is the outcome of one search.
type SearchResult struct {
	Query string
	Field models.SearchField
	Books []models.Book
}

// Update is sent to subscribers whenever the view commits new data.
type Update struct {
	Kind       Kind
	Collection Collection
	Dashboard  models.Dashboard
	Search     SearchResult
}

// View is the materialized state handed to the presentation layer. Every
// load takes a ticket before it starts; a result is committed only when no
// later ticket of the same kind has been committed already.
//
// Subscribers are called one update at a time and never see an update after
// a newer one of the same kind. They must not commit to the view themselves.
type View struct {
	mu          sync.Mutex
	deliver     sync.Mutex // serializes subscriber calls
	issued      map[Kind]uint64
	committed   map[Kind]uint64
	collections map[Kind]Collection
	dashboard   models.Dashboard
	search      SearchResult
	section     Section
	nextSub     int
	subscribers map[int]func(Update)
	metrics     *Metrics
}

func newView(metrics *Metrics) *View {
	return &View{
		issued:      make(map[Kind]uint64),
		committed:   make(map[Kind]uint64),
		collections: make(map[Kind]Collection),
		section:     SectionDashboard,
		subscribers: make(map[int]func(Update)),
		metrics:     metrics,
	}
}

func (v *View) ticket(kind Kind) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.issued[kind]++
	return v.issued[kind]
}

// commit applies update if ticket is newer than the last committed ticket for
// its kind, then notifies subscribers outside the state lock. Delivery is
// skipped when a newer update of the same kind committed in the meantime.
func (v *View) commit(ticket uint64, update Update) bool {
	v.mu.Lock()
	if ticket <= v.committed[update.Kind] {
		v.mu.Unlock()
		v.metrics.incStale(update.Kind)
		return false
	}
	v.committed[update.Kind] = ticket
	switch update.Kind {
	case KindDashboard:
		v.dashboard = update.Dashboard
	case KindSearch:
		v.search = update.Search
	default:
		v.collections[update.Kind] = update.Collection.clone()
	}
	v.mu.Unlock()

	v.deliver.Lock()
	defer v.deliver.Unlock()

	v.mu.Lock()
	superseded := ticket < v.committed[update.Kind]
	subs := make([]func(Update), 0, len(v.subscribers))
	for _, fn := range v.subscribers {
		subs = append(subs, fn)
	}
	v.mu.Unlock()
	if superseded {
		return true
	}

	for _, fn := range subs {
		fn(update)
	}
	return true
}

// Subscribe registers fn for every committed update. The returned function
// removes the subscription.
func (v *View) Subscribe(fn func(Update)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextSub
	v.nextSub++
	v.subscribers[id] = fn
	return func() {
		v.mu.Lock()
		delete(v.subscribers, id)
		v.mu.Unlock()
	}
}

// Books returns the committed book list, if any.
func (v *View) Books() ([]models.Book, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.collections[KindBooks]
	return slices.Clone(c.Books), ok
}

// Users returns the committed member list, if any.
func (v *View) Users() ([]models.User, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.collections[KindUsers]
	return slices.Clone(c.Users), ok
}

// Stats returns the committed stats snapshot, if any.
func (v *View) Stats() (models.Stats, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.collections[KindStats]
	return c.Stats, ok
}

// Dashboard returns the last committed dashboard aggregates.
func (v *View) Dashboard() models.Dashboard {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dashboard
}

// Search returns the last committed search result.
func (v *View) Search() SearchResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.search
}

// SetSection records which section is on screen.
func (v *View) SetSection(s Section) {
	v.mu.Lock()
	v.section = s
	v.mu.Unlock()
}

// Section returns the section on screen.
func (v *View) Section() Section {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.section
}
