package resolver

import (
	"sync"

	"commhub/models"
)

// Selection is the compose dialog's multi-select recipient set. It renders as
// an ordered sequence but is semantically a set keyed by (kind, id): the same
// user or group selected twice collapses to one entry, and removal works
// symmetrically for both kinds.
type Selection struct {
	mu      sync.Mutex
	keys    map[models.RecipientKey]struct{}
	ordered []models.Recipient
}

// NewSelection creates an empty selection set.
func NewSelection() *Selection {
	return &Selection{keys: make(map[models.RecipientKey]struct{})}
}

// Select adds a recipient. Returns false if it was already selected.
func (s *Selection) Select(r models.Recipient) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := r.Key()
	if _, exists := s.keys[key]; exists {
		return false
	}
	s.keys[key] = struct{}{}
	s.ordered = append(s.ordered, r)
	return true
}

// Deselect removes a recipient by identity. Returns false if it was not
// selected.
func (s *Selection) Deselect(key models.RecipientKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.keys[key]; !exists {
		return false
	}
	delete(s.keys, key)
	for i := range s.ordered {
		if s.ordered[i].Key() == key {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			break
		}
	}
	return true
}

// Recipients returns the selection in insertion order.
func (s *Selection) Recipients() []models.Recipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Recipient, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Len returns the number of selected recipients.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ordered)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[models.RecipientKey]struct{})
	s.ordered = nil
}

// Replace resets the selection to the given recipients, deduplicating by
// (kind, id). Used when editing an existing record.
func (s *Selection) Replace(recipients []models.Recipient) {
	s.mu.Lock()
	s.keys = make(map[models.RecipientKey]struct{})
	s.ordered = nil
	s.mu.Unlock()
	for _, r := range recipients {
		s.Select(r)
	}
}
