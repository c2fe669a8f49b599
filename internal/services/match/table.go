package match

import "github.com/mcoot/worduel/internal/model"

// Table indexes live and recently ended matches
type Table struct {
	matches map[model.MatchID]*model.Match
	byUser  map[string]model.MatchID
}

// NewTable creates an empty Table
func NewTable() *Table {
	return &Table{
		matches: make(map[model.MatchID]*model.Match),
		byUser:  make(map[string]model.MatchID),
	}
}

// Put adds m and indexes both of its players
func (t *Table) Put(m *model.Match) {
	t.matches[m.ID] = m
	for _, p := range m.Players {
		t.byUser[p.Username] = m.ID
	}
}

// Get returns the match with the given id
func (t *Table) Get(id model.MatchID) (*model.Match, bool) {
	m, ok := t.matches[id]
	return m, ok
}

// ForUser returns the match username is currently indexed against
func (t *Table) ForUser(username string) (*model.Match, bool) {
	id, ok := t.byUser[username]
	if !ok {
		return nil, false
	}
	return t.Get(id)
}

// Release drops the player index for m. The match itself stays until Delete.
func (t *Table) Release(m *model.Match) {
	for _, p := range m.Players {
		if t.byUser[p.Username] == m.ID {
			delete(t.byUser, p.Username)
		}
	}
}

// Delete removes m entirely
func (t *Table) Delete(id model.MatchID) {
	if m, ok := t.matches[id]; ok {
		t.Release(m)
		delete(t.matches, id)
	}
}

// Live counts matches that have not ended
func (t *Table) Live() int {
	n := 0
	for _, m := range t.matches {
		if m.Live() {
			n++
		}
	}
	return n
}

// Len counts all held matches, including ended ones awaiting purge
func (t *Table) Len() int {
	return len(t.matches)
}
