// internal/app/system/roledraft/roledraft.go

// Package roledraft holds the working set of roles a user composes in the
// collaboration editor before the backend writes complete. New roles get a
// temporary ID immediately so the editor stays responsive; when a write
// lands, the temp ID is swapped for the durable one. A failed write leaves
// the entry in place marked failed; nothing is rolled back.
//
// Entries are tracked by a stable local key that never changes across the
// temp-to-durable swap, so concurrent edits always address the same entry
// regardless of which ID the caller last saw.
package roledraft

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// TempIDPrefix marks role IDs that exist only in a draft list.
const TempIDPrefix = "temp-"

// NewTempID returns a placeholder ID of the form "temp-<ms>-<rand>".
func NewTempID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s%d-%s", TempIDPrefix, time.Now().UnixMilli(), suffix)
}

// IsTempID reports whether id is a draft placeholder rather than a durable
// store ID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// SyncState describes how far an entry has progressed toward the store.
type SyncState string

const (
	// SyncPending entries exist only locally.
	SyncPending SyncState = "pending"
	// SyncSynced entries carry a durable store ID.
	SyncSynced SyncState = "synced"
	// SyncFailed entries had a persistence attempt fail; they stay in the
	// list so the user's work is not thrown away.
	SyncFailed SyncState = "failed"
)

// Draft is one role as the editor sees it. ID is a temp placeholder until
// the entry is resolved, then the durable hex ID.
type Draft struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	RequiredSkills  []string          `json:"required_skills"`
	PreferredSkills []string          `json:"preferred_skills,omitempty"`
	Status          models.RoleStatus `json:"status"`
}

// Entry pairs a draft with its stable local key and sync state.
type Entry struct {
	Key   string    `json:"key"`
	Draft Draft     `json:"draft"`
	State SyncState `json:"state"`
}

// List is the mutable working set for one editing session. Safe for
// concurrent use.
type List struct {
	mu      sync.Mutex
	entries []*Entry
	idToKey map[string]string
	byKey   map[string]*Entry
}

// NewList returns an empty working set.
func NewList() *List {
	return &List{
		idToKey: make(map[string]string),
		byKey:   make(map[string]*Entry),
	}
}

// Seed loads already-durable roles into the list (edit mode). Existing
// entries are kept; seeded roles come in as synced.
func (l *List) Seed(roles []models.Role) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range roles {
		d := Draft{
			ID:              r.ID.Hex(),
			Title:           r.Title,
			Description:     r.Description,
			RequiredSkills:  r.RequiredSkills,
			PreferredSkills: r.PreferredSkills,
			Status:          r.Status,
		}
		l.append(d, SyncSynced)
	}
}

// Add inserts a new draft optimistically. It always succeeds: the draft gets
// a temp ID (unless one was provided), OPEN status when none is set, and a
// pending state. The stored entry is returned by value.
func (l *List) Add(d Draft) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if d.ID == "" {
		d.ID = NewTempID()
	}
	if d.Status == "" {
		d.Status = models.RoleOpen
	}
	e := l.append(d, SyncPending)
	return *e
}

// append assumes l.mu is held.
func (l *List) append(d Draft, state SyncState) *Entry {
	e := &Entry{
		Key:   uuid.NewString(),
		Draft: d,
		State: state,
	}
	l.entries = append(l.entries, e)
	l.byKey[e.Key] = e
	l.idToKey[d.ID] = e.Key
	return e
}

// Resolve swaps a temp entry for its durable counterpart after a successful
// write. The entry keeps its position and local key; the temp ID stops
// resolving and the durable ID takes over. Fields are replaced with the
// store's version so server-side normalization wins.
func (l *List) Resolve(tempID string, durable models.Role) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.lookup(tempID)
	if err != nil {
		return err
	}
	if !IsTempID(tempID) {
		return apperr.InvalidArgument("role is already durable")
	}

	delete(l.idToKey, tempID)
	e.Draft = Draft{
		ID:              durable.ID.Hex(),
		Title:           durable.Title,
		Description:     durable.Description,
		RequiredSkills:  durable.RequiredSkills,
		PreferredSkills: durable.PreferredSkills,
		Status:          durable.Status,
	}
	e.State = SyncSynced
	l.idToKey[e.Draft.ID] = e.Key
	return nil
}

// MarkFailed flags a pending entry whose write failed. The draft stays in
// the list under its temp ID.
func (l *List) MarkFailed(tempID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.lookup(tempID)
	if err != nil {
		return err
	}
	e.State = SyncFailed
	return nil
}

// Update replaces the editable fields of an entry, addressed by whichever ID
// it currently carries. The list is mutated before any store confirmation,
// matching the add path.
func (l *List) Update(id, title, description string, required, preferred []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.lookup(id)
	if err != nil {
		return err
	}
	e.Draft.Title = title
	e.Draft.Description = description
	e.Draft.RequiredSkills = required
	e.Draft.PreferredSkills = preferred
	return nil
}

// Remove deletes an entry by its current ID.
func (l *List) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key, ok := l.idToKey[id]
	if !ok {
		return apperr.NotFound("draft role not found")
	}
	e := l.byKey[key]
	delete(l.idToKey, e.Draft.ID)
	delete(l.byKey, key)
	for i, cur := range l.entries {
		if cur.Key == key {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the entry currently addressed by id.
func (l *List) Get(id string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.lookup(id)
	if err != nil {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns a snapshot of the working set in insertion order.
func (l *List) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	return out
}

// Pending returns the drafts still carrying temp IDs, in insertion order.
// This is the batch a submit action hands to the lifecycle manager.
func (l *List) Pending() []Draft {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Draft
	for _, e := range l.entries {
		if IsTempID(e.Draft.ID) {
			out = append(out, e.Draft)
		}
	}
	return out
}

// Len reports the number of entries.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// lookup assumes l.mu is held.
func (l *List) lookup(id string) (*Entry, error) {
	key, ok := l.idToKey[id]
	if !ok {
		return nil, apperr.NotFound("draft role not found")
	}
	return l.byKey[key], nil
}
