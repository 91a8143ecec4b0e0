package models

// RecipientKind discriminates the two recipient variants.
type RecipientKind string

const (
	KindUser  RecipientKind = "user"
	KindGroup RecipientKind = "group"
)

// Recipient is either an individual user or a group. A message or schedule
// addresses an ordered set of these, keyed by (kind, id).
type Recipient struct {
	Kind        RecipientKind `json:"kind"`
	ID          int64         `json:"id"`
	DisplayName string        `json:"display_name"`
	Email       string        `json:"email,omitempty"` // users only
}

// RecipientKey is the composite identity used for deduplication and removal.
type RecipientKey struct {
	Kind RecipientKind
	ID   int64
}

// Key returns the composite identity of the recipient.
func (r Recipient) Key() RecipientKey {
	return RecipientKey{Kind: r.Kind, ID: r.ID}
}

// UserRecipient wraps a user in the recipient union.
func UserRecipient(u User) Recipient {
	return Recipient{
		Kind:        KindUser,
		ID:          u.ID,
		DisplayName: u.DisplayName(),
		Email:       u.Email,
	}
}

// GroupRecipient wraps a group in the recipient union.
func GroupRecipient(g Group) Recipient {
	return Recipient{
		Kind:        KindGroup,
		ID:          g.ID,
		DisplayName: g.Name,
	}
}
