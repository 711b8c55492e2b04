package entry

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"single", []Entry{{ID: 1, Secret: "p@ssw0rd!", Notes: "checking"}}},
		{"empty strings", []Entry{{ID: 5}}},
		{"unordered ids", []Entry{
			{ID: 3, Secret: "c", Notes: "third"},
			{ID: 1, Secret: "a", Notes: ""},
			{ID: -2, Secret: "", Notes: "négatif ✓"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{entries: tt.entries}
			data, err := Encode(s)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			decoded, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(decoded.Entries(), s.Entries()) {
				t.Errorf("Decode() = %v, want %v", decoded.Entries(), s.Entries())
			}

			again, err := decoded.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary() error = %v", err)
			}
			if !bytes.Equal(again, data) {
				t.Errorf("re-encoding differs: %x vs %x", again, data)
			}
		})
	}
}

func TestEncodeLayout(t *testing.T) {
	s := Empty()
	s.Add("ab", "c")

	data, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	want := []byte{
		1, 0, 0, 0, // count
		1, 0, 0, 0, // id
		2, 0, 0, 0, 'a', 'b',
		1, 0, 0, 0, 'c',
	}
	if !bytes.Equal(data, want) {
		t.Errorf("MarshalBinary() = %v, want %v", data, want)
	}
}

func TestDecodeEmptyStore(t *testing.T) {
	s, err := Decode([]byte{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestDecodeMalformed(t *testing.T) {
	valid := []byte{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 'x', 0, 0, 0, 0}

	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"short count", []byte{1, 0}},
		{"count too large", []byte{0xff, 0xff, 0xff, 0xff}},
		{"truncated entry", valid[:10]},
		{"length past end", []byte{1, 0, 0, 0, 1, 0, 0, 0, 9, 0, 0, 0, 'x', 0, 0, 0, 0}},
		{"trailing bytes", append(append([]byte(nil), valid...), 0)},
		{"invalid utf8", []byte{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0xff, 0, 0, 0, 0}},
		{"duplicate ids", []byte{
			2, 0, 0, 0,
			1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestUnmarshalFailureKeepsStore(t *testing.T) {
	s := Empty()
	s.Add("keep", "me")

	if err := s.UnmarshalBinary([]byte{9}); err == nil {
		t.Fatal("UnmarshalBinary() should fail")
	}
	if s.Len() != 1 {
		t.Errorf("failed UnmarshalBinary() modified store: len = %d", s.Len())
	}
}
