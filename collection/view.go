package collection

import (
	"sync"

	"commhub/models"
	"commhub/utils"
)

// Item is a collection record with a stable identity.
type Item interface {
	ItemID() int64
}

// FetchFunc executes one backend list query.
type FetchFunc[T Item] func(q Query) (models.Page[T], error)

// CheckpointStore persists the last applied push sequence per collection so a
// restart does not re-apply events the view has already seen.
type CheckpointStore interface {
	LoadCheckpoint(collection string) (int64, error)
	SaveCheckpoint(collection string, seq int64) error
}

// View owns the displayed page of one collection. Fetches replace the page
// wholesale under a last-write-wins-by-issuance rule; push events mutate it
// through ApplyEvent under the pagination-consistency rules.
type View[T Item] struct {
	name    string
	fetchFn FetchFunc[T]

	// extract pulls the created/updated record out of a push envelope;
	// patch applies a status-changed event to a matching item in place.
	extract func(models.PushEvent) (T, bool)
	patch   func(*T, models.PushEvent) bool

	mu         sync.Mutex
	query      *Query
	page       models.Page[T]
	hasPage    bool
	fetchToken uint64
	lastSeq    int64

	checkpoints CheckpointStore
	log         *utils.Logger
}

func newView[T Item](name string, pageSize int, fetch FetchFunc[T],
	extract func(models.PushEvent) (T, bool), patch func(*T, models.PushEvent) bool) *View[T] {
	return &View[T]{
		name:    name,
		fetchFn: fetch,
		extract: extract,
		patch:   patch,
		query:   NewQuery(pageSize),
		log:     utils.Log.WithField("collection", name),
	}
}

// Name returns the collection discriminator this view reconciles.
func (v *View[T]) Name() string { return v.name }

// UseCheckpoints loads the persisted sequence checkpoint and keeps it updated
// as events are applied.
func (v *View[T]) UseCheckpoints(store CheckpointStore) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.checkpoints = store
	seq, err := store.LoadCheckpoint(v.name)
	if err != nil {
		v.log.Warn("Failed to load sequence checkpoint: %v", err)
		return
	}
	if seq > v.lastSeq {
		v.lastSeq = seq
	}
}

// SetFilter sets one filter; the page resets to 1.
func (v *View[T]) SetFilter(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query.SetFilter(name, value)
}

// ResetFilters clears all filters; the page resets to 1.
func (v *View[T]) ResetFilters() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query.ResetFilters()
}

// SetPage moves to page n, clamped against the known total.
func (v *View[T]) SetPage(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query.SetPage(n)
}

// SetPageSize changes the page size; the page resets to 1.
func (v *View[T]) SetPageSize(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query.SetPageSize(n)
}

// CurrentQuery returns a copy of the query as it would be fetched now.
func (v *View[T]) CurrentQuery() Query {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query.clone()
}

// CurrentPage returns the displayed page, if any fetch has succeeded yet.
func (v *View[T]) CurrentPage() (models.Page[T], bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page, v.hasPage
}

// Refresh executes the current query against the backend. Only the most
// recently issued fetch may update the view: if another Refresh was issued
// while this one was in flight, its result is discarded and ErrStaleResult is
// returned regardless of which response arrived first.
func (v *View[T]) Refresh() (models.Page[T], error) {
	v.mu.Lock()
	v.fetchToken++
	token := v.fetchToken
	q := v.query.clone()
	v.mu.Unlock()

	page, err := v.fetchFn(q)

	v.mu.Lock()
	defer v.mu.Unlock()
	if token != v.fetchToken {
		return models.Page[T]{}, utils.ErrStaleResult
	}
	if err != nil {
		return models.Page[T]{}, err
	}

	v.page = page
	v.hasPage = true
	v.query.setTotal(page.TotalCount)
	return page, nil
}
