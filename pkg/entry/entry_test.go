package entry

import (
	"reflect"
	"testing"
)

func ids(entries []Entry) []int32 {
	out := make([]int32, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestEmpty(t *testing.T) {
	s := Empty()
	if s.Len() != 0 {
		t.Errorf("Empty().Len() = %d, want 0", s.Len())
	}
	if got := s.Entries(); len(got) != 0 {
		t.Errorf("Empty().Entries() = %v, want none", got)
	}
	if s.NextID() != 1 {
		t.Errorf("Empty().NextID() = %d, want 1", s.NextID())
	}
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	s := Empty()
	for _, notes := range []string{"a", "b", "c"} {
		s.Add("secret-"+notes, notes)
	}

	if got, want := ids(s.Entries()), []int32{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

func TestAddAfterDeleteUsesMaxPlusOne(t *testing.T) {
	s := Empty()
	s.Add("s1", "one")
	s.Add("s2", "two")
	s.Add("s3", "three")

	if !s.Delete(2) {
		t.Fatal("Delete(2) reported no entry removed")
	}
	e := s.Add("s4", "four")
	if e.ID != 4 {
		t.Errorf("Add() after Delete(2) id = %d, want 4", e.ID)
	}
	if got, want := ids(s.Entries()), []int32{1, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

func TestAddReusesDeletedMaximum(t *testing.T) {
	s := Empty()
	s.Add("s1", "one")
	s.Add("s2", "two")
	s.Delete(2)

	if e := s.Add("s3", "three"); e.ID != 2 {
		t.Errorf("Add() after deleting max id = %d, want 2", e.ID)
	}
}

func TestUpdate(t *testing.T) {
	s := Empty()
	s.Add("s1", "one")
	s.Add("s2", "two")
	s.Add("s3", "three")

	if !s.Update(2, "new-secret", "new-notes") {
		t.Fatal("Update(2) reported no entry changed")
	}
	want := []Entry{
		{ID: 1, Secret: "s1", Notes: "one"},
		{ID: 2, Secret: "new-secret", Notes: "new-notes"},
		{ID: 3, Secret: "s3", Notes: "three"},
	}
	if got := s.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}

	if s.Update(42, "x", "y") {
		t.Error("Update() of missing id should be a no-op")
	}
	if got := s.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Update() of missing id changed entries: %v", got)
	}
}

func TestDeleteMissingIsNoOp(t *testing.T) {
	s := Empty()
	s.Add("s1", "one")

	if s.Delete(7) {
		t.Error("Delete() of missing id reported removal")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	s := Empty()
	s.Add("s1", "one")

	got := s.Entries()
	got[0].Notes = "mutated"

	if e, _ := s.Find(1); e.Notes != "one" {
		t.Errorf("mutating Entries() result changed store: notes = %q", e.Notes)
	}
}

func TestFind(t *testing.T) {
	s := Empty()
	s.Add("s1", "one")

	if e, ok := s.Find(1); !ok || e.Secret != "s1" {
		t.Errorf("Find(1) = %v, %v", e, ok)
	}
	if _, ok := s.Find(2); ok {
		t.Error("Find(2) should report missing")
	}
}

func TestZeroValueStore(t *testing.T) {
	var s Store
	if e := s.Add("s", "n"); e.ID != 1 {
		t.Errorf("zero Store Add() id = %d, want 1", e.ID)
	}
}
