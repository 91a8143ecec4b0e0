package resolver

import (
	"sync"
	"time"

	"commhub/models"
	"commhub/utils"
)

// DefaultDebounce is the quiescence window before a typeahead query is
// dispatched.
const DefaultDebounce = 300 * time.Millisecond

// Candidates is the visible typeahead result: users and groups matching the
// latest search.
type Candidates struct {
	Users  []models.User  `json:"users"`
	Groups []models.Group `json:"groups"`
}

// SearchUsersFunc and SearchGroupsFunc are the two collaborator typeahead
// endpoints.
type (
	SearchUsersFunc  func(search string) ([]models.User, error)
	SearchGroupsFunc func(search string) ([]models.Group, error)
)

// Resolver owns typeahead state for one compose session: a debounced search
// over the user and group endpoints, the candidate list the latest search
// produced, and the current selection set. Only the most recent search may
// update the candidate list; slower earlier responses are discarded.
type Resolver struct {
	searchUsers  SearchUsersFunc
	searchGroups SearchGroupsFunc
	debounce     time.Duration
	cache        *utils.MemoryCache
	log          *utils.Logger

	// Selected is the session's recipient selection set.
	Selected *Selection

	mu         sync.Mutex
	timer      *time.Timer
	token      uint64
	candidates Candidates
	lastErr    error
	inflight   sync.WaitGroup
}

// New creates a resolver over the two typeahead endpoints.
func New(users SearchUsersFunc, groups SearchGroupsFunc, debounce time.Duration) *Resolver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Resolver{
		searchUsers:  users,
		searchGroups: groups,
		debounce:     debounce,
		cache:        utils.NewMemoryCache(),
		log:          utils.Log.WithField("component", "resolver"),
		Selected:     NewSelection(),
	}
}

// Search schedules a typeahead query. Each call restarts the quiescence
// timer, so only the query standing after the debounce window is dispatched,
// and each dispatch carries a token so only the latest one's result lands.
func (r *Resolver) Search(query string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.token++
	token := r.token

	// A superseded timer that never fired still holds an inflight slot.
	if r.timer != nil && r.timer.Stop() {
		r.inflight.Done()
	}
	r.inflight.Add(1)
	r.timer = time.AfterFunc(r.debounce, func() {
		defer r.inflight.Done()
		r.dispatch(token, query)
	})
}

// dispatch queries both endpoints concurrently and applies the result only if
// no newer search has been issued since.
func (r *Resolver) dispatch(token uint64, query string) {
	r.mu.Lock()
	if token != r.token {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	if cached, ok := r.cache.Get("q:" + query); ok {
		r.apply(token, cached.(Candidates), nil)
		return
	}

	var (
		wg     sync.WaitGroup
		users  []models.User
		groups []models.Group
		uErr   error
		gErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		users, uErr = r.searchUsers(query)
	}()
	go func() {
		defer wg.Done()
		groups, gErr = r.searchGroups(query)
	}()
	wg.Wait()

	if uErr != nil {
		r.apply(token, Candidates{}, uErr)
		return
	}
	if gErr != nil {
		r.apply(token, Candidates{}, gErr)
		return
	}

	result := Candidates{Users: users, Groups: groups}
	r.cache.Set("q:"+query, result, 30*time.Second)
	r.apply(token, result, nil)
}

// apply installs a search result under the last-write-wins rule.
func (r *Resolver) apply(token uint64, result Candidates, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.token {
		r.log.Debug("Discarding stale typeahead result (token %d, latest %d)", token, r.token)
		return
	}
	if err != nil {
		r.lastErr = err
		r.log.Warn("Typeahead search failed: %v", err)
		return
	}
	r.candidates = result
	r.lastErr = nil
}

// Candidates returns the latest applied typeahead result and any error from
// the latest dispatch.
func (r *Resolver) Candidates() (Candidates, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.candidates, r.lastErr
}

// Wait blocks until every scheduled search has run. Intended for tests and
// shutdown.
func (r *Resolver) Wait() {
	r.inflight.Wait()
}

// Close releases the resolver's cache.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.timer != nil && r.timer.Stop() {
		r.inflight.Done()
	}
	r.mu.Unlock()
	r.cache.Close()
}
