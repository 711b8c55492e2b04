package vault

import (
	"fmt"

	"github.com/forest6511/pawnvault/pkg/entry"
)

// mutation changes store and reports whether it needs to be written back.
type mutation func(store *entry.Store) (changed bool, err error)

// withStore decrypts the vault, applies fn and re-seals the store when fn
// changed it. A nil fn only reads. The full entry list is returned.
func (r *Registry) withStore(name, masterKey string, fn mutation) ([]entry.Entry, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	unlock, err := r.lockNames(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	v, err := r.open(name)
	if err != nil {
		return nil, err
	}
	store, err := readStore(v.ContentPath, masterKey)
	if err != nil {
		return nil, err
	}

	if fn != nil {
		changed, err := fn(store)
		if err != nil {
			return nil, err
		}
		if changed {
			if err := r.writeStore(v.ContentPath, masterKey, store); err != nil {
				return nil, err
			}
		}
	}

	r.touch(v)
	return store.Entries(), nil
}

// ListEntries returns the entries of a vault in insertion order.
func (r *Registry) ListEntries(name, masterKey string) ([]entry.Entry, error) {
	return r.withStore(name, masterKey, nil)
}

// GetEntry returns the entry with the given id. A missing id reports false
// with a nil error.
func (r *Registry) GetEntry(name, masterKey string, id int32) (entry.Entry, bool, error) {
	var (
		found entry.Entry
		ok    bool
	)
	_, err := r.withStore(name, masterKey, func(store *entry.Store) (bool, error) {
		found, ok = store.Find(id)
		return false, nil
	})
	if err != nil {
		return entry.Entry{}, false, err
	}
	return found, ok, nil
}

// AddEntry appends an entry and returns the full list. An empty secret is
// replaced by one from the registry's Generator.
func (r *Registry) AddEntry(name, masterKey, secret, notes string) ([]entry.Entry, error) {
	return r.withStore(name, masterKey, func(store *entry.Store) (bool, error) {
		if secret == "" {
			generated, err := r.generator.Generate()
			if err != nil {
				return false, fmt.Errorf("vault: failed to generate secret: %w", err)
			}
			secret = generated
		}
		store.Add(secret, notes)
		return true, nil
	})
}

// UpdateEntry replaces the secret and notes of entry id in place. An unknown
// id leaves the vault unchanged.
func (r *Registry) UpdateEntry(name, masterKey string, id int32, secret, notes string) ([]entry.Entry, error) {
	return r.withStore(name, masterKey, func(store *entry.Store) (bool, error) {
		return store.Update(id, secret, notes), nil
	})
}

// DeleteEntry removes entry id. An unknown id leaves the vault unchanged.
func (r *Registry) DeleteEntry(name, masterKey string, id int32) ([]entry.Entry, error) {
	return r.withStore(name, masterKey, func(store *entry.Store) (bool, error) {
		return store.Delete(id), nil
	})
}

// NewEntry is the input of AddEntries.
type NewEntry struct {
	Secret string
	Notes  string
}

// AddEntries appends several entries in one decrypt and re-seal cycle, in
// order. Empty secrets are generated as in AddEntry. Nothing is written if
// any secret cannot be generated.
func (r *Registry) AddEntries(name, masterKey string, items []NewEntry) ([]entry.Entry, error) {
	return r.withStore(name, masterKey, func(store *entry.Store) (bool, error) {
		if len(items) == 0 {
			return false, nil
		}
		for _, item := range items {
			secret := item.Secret
			if secret == "" {
				generated, err := r.generator.Generate()
				if err != nil {
					return false, fmt.Errorf("vault: failed to generate secret: %w", err)
				}
				secret = generated
			}
			store.Add(secret, item.Notes)
		}
		return true, nil
	})
}
