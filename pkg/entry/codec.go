package entry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// Binary layout, all integers little-endian:
//
//	u32 count
//	count × ( i32 id | u32 len | secret | u32 len | notes )
//
// The layout carries no version; it is only ever read back inside an
// authenticated container.

// ErrMalformed indicates bytes that are not a well-formed encoded Store.
var ErrMalformed = errors.New("entry: malformed store encoding")

// minEntrySize is the encoded size of an entry with empty strings.
const minEntrySize = 4 + 4 + 4

// MarshalBinary encodes the store.
func (s *Store) MarshalBinary() ([]byte, error) {
	size := 4
	for _, e := range s.entries {
		size += minEntrySize + len(e.Secret) + len(e.Notes)
	}
	if uint64(len(s.entries)) > math.MaxUint32 {
		return nil, fmt.Errorf("entry: too many entries: %d", len(s.entries))
	}

	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.entries)))
	for _, e := range s.entries {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e.ID))
		buf = appendString(buf, e.Secret)
		buf = appendString(buf, e.Notes)
	}
	return buf, nil
}

// UnmarshalBinary replaces the store contents with the decoded data.
// Duplicate ids, invalid UTF-8 and trailing bytes are rejected.
func (s *Store) UnmarshalBinary(data []byte) error {
	d := decoder{buf: data}

	count, ok := d.uint32()
	if !ok {
		return fmt.Errorf("%w: missing entry count", ErrMalformed)
	}
	if uint64(count)*minEntrySize > uint64(len(d.buf)) {
		return fmt.Errorf("%w: entry count %d exceeds data size", ErrMalformed, count)
	}

	entries := make([]Entry, 0, count)
	seen := make(map[int32]struct{}, count)
	for i := uint32(0); i < count; i++ {
		raw, ok := d.uint32()
		if !ok {
			return fmt.Errorf("%w: entry %d: truncated id", ErrMalformed, i)
		}
		id := int32(raw)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrMalformed, id)
		}
		seen[id] = struct{}{}

		secret, err := d.string()
		if err != nil {
			return fmt.Errorf("%w: entry %d secret: %v", ErrMalformed, i, err)
		}
		notes, err := d.string()
		if err != nil {
			return fmt.Errorf("%w: entry %d notes: %v", ErrMalformed, i, err)
		}
		entries = append(entries, Entry{ID: id, Secret: secret, Notes: notes})
	}
	if len(d.buf) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(d.buf))
	}

	s.entries = entries
	return nil
}

// Encode is a convenience wrapper around MarshalBinary.
func Encode(s *Store) ([]byte, error) {
	return s.MarshalBinary()
}

// Decode parses data into a new Store.
func Decode(data []byte) (*Store, error) {
	s := &Store{}
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s, nil
}

func appendString(buf []byte, v string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v)))
	return append(buf, v...)
}

type decoder struct {
	buf []byte
}

func (d *decoder) uint32() (uint32, bool) {
	if len(d.buf) < 4 {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(d.buf)
	d.buf = d.buf[4:]
	return v, true
}

func (d *decoder) string() (string, error) {
	n, ok := d.uint32()
	if !ok {
		return "", errors.New("truncated length")
	}
	if uint64(n) > uint64(len(d.buf)) {
		return "", fmt.Errorf("length %d exceeds remaining %d bytes", n, len(d.buf))
	}
	raw := d.buf[:n]
	d.buf = d.buf[n:]
	if !utf8.Valid(raw) {
		return "", errors.New("invalid UTF-8")
	}
	return string(raw), nil
}
