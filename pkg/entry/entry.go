// Package entry implements the ordered collection of secret entries that is
// sealed as a single unit inside a vault's content file.
//
// Ids are assigned as one more than the largest id currently present, so an
// id is unique among the entries of a Store at any instant but may be reused
// after the entry holding the maximum id is deleted.
package entry

// Entry is a stored secret with free-form notes.
type Entry struct {
	ID     int32  `json:"id"`
	Secret string `json:"secret"`
	Notes  string `json:"notes"`
}

// Store is an insertion-ordered sequence of entries.
// The zero value is an empty store ready to use.
type Store struct {
	entries []Entry
}

// Empty returns the seed state of a newly created vault.
func Empty() *Store {
	return &Store{}
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in insertion order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Find returns the entry with the given id.
func (s *Store) Find(id int32) (Entry, bool) {
	if i := s.index(id); i >= 0 {
		return s.entries[i], true
	}
	return Entry{}, false
}

// NextID returns the id the next Add will assign.
func (s *Store) NextID() int32 {
	var max int32
	for _, e := range s.entries {
		if e.ID > max {
			max = e.ID
		}
	}
	return max + 1
}

// Add appends a new entry and returns it.
func (s *Store) Add(secret, notes string) Entry {
	e := Entry{ID: s.NextID(), Secret: secret, Notes: notes}
	s.entries = append(s.entries, e)
	return e
}

// Update replaces the secret and notes of the entry with the given id,
// keeping its position. It reports whether an entry was changed.
func (s *Store) Update(id int32, secret, notes string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.entries[i].Secret = secret
	s.entries[i].Notes = notes
	return true
}

// Delete removes the first entry with the given id and reports whether one
// was removed.
func (s *Store) Delete(id int32) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

func (s *Store) index(id int32) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}
