package security

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/forest6511/pawnvault/pkg/entry"
)

func TestAnalyze_Empty(t *testing.T) {
	report, err := NewAnalyzer().Analyze(nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.Overall != 100 || len(report.Issues) != 0 {
		t.Errorf("empty vault report = %+v, want perfect score", report)
	}
}

func TestAnalyze_Mixed(t *testing.T) {
	entries := []entry.Entry{
		{ID: 1, Secret: "password123456", Notes: "bank"},
		{ID: 2, Secret: "abc", Notes: "forum"},
		{ID: 3, Secret: "password123456", Notes: "mail"},
	}

	report, err := NewAnalyzer().Analyze(entries)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// strength: (34 + 0 + 34) / 3 = 22; uniqueness: 2 of 3 unique = 33
	if report.Components.StrengthScore != 22 {
		t.Errorf("StrengthScore = %d, want 22", report.Components.StrengthScore)
	}
	if report.Components.UniquenessScore != 33 {
		t.Errorf("UniquenessScore = %d, want 33", report.Components.UniquenessScore)
	}
	if report.Overall != 55 {
		t.Errorf("Overall = %d, want 55", report.Overall)
	}

	var weak, dup *SecurityIssue
	for i := range report.Issues {
		switch report.Issues[i].Type {
		case IssueWeakPassword:
			weak = &report.Issues[i]
		case IssueDuplicatePassword:
			dup = &report.Issues[i]
		}
	}
	if weak == nil || !slices.Equal(weak.EntryIDs, []int32{2}) {
		t.Errorf("weak issue = %+v", weak)
	}
	if dup == nil || !slices.Equal(dup.EntryIDs, []int32{1, 3}) {
		t.Errorf("duplicate issue = %+v", dup)
	}
	if len(report.Suggestions) != 2 {
		t.Errorf("Suggestions = %v", report.Suggestions)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "password123456") {
		t.Error("report must not contain secrets")
	}
}

func TestAnalyze_EmptySecret(t *testing.T) {
	report, err := NewAnalyzer().Analyze([]entry.Entry{{ID: 1, Secret: ""}})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Issues) != 1 || report.Issues[0].Type != IssueEmptySecret || report.Issues[0].Severity != SeverityCritical {
		t.Errorf("Issues = %+v", report.Issues)
	}
	if report.Components.UniquenessScore != 50 {
		t.Errorf("UniquenessScore = %d, want 50 when no secrets", report.Components.UniquenessScore)
	}
}

func TestFindDuplicates(t *testing.T) {
	entries := []entry.Entry{
		{ID: 1, Secret: "alpha-secret"},
		{ID: 2, Secret: "beta-secret"},
		{ID: 3, Secret: " alpha-secret "}, // trimmed before comparison
		{ID: 4, Secret: "beta-secret"},
		{ID: 5, Secret: "beta-secret"},
		{ID: 6, Secret: "caf\u00e9-secret"},
		{ID: 7, Secret: "cafe\u0301-secret"}, // NFC equal to 6
		{ID: 8, Secret: "unique"},
	}

	groups, err := NewAnalyzer().FindDuplicates(entries)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3: %+v", len(groups), groups)
	}
	if !slices.Equal(groups[0].EntryIDs, []int32{2, 4, 5}) || groups[0].Count != 3 {
		t.Errorf("largest group = %+v", groups[0])
	}
	if !slices.Equal(groups[1].EntryIDs, []int32{1, 3}) {
		t.Errorf("second group = %+v", groups[1])
	}
	if !slices.Equal(groups[2].EntryIDs, []int32{6, 7}) {
		t.Errorf("third group = %+v", groups[2])
	}
}

func TestFindDuplicates_SessionKey(t *testing.T) {
	a, b := NewAnalyzer(), NewAnalyzer()
	if _, err := a.FindDuplicates(nil); err != nil {
		t.Fatal(err)
	}
	if _, err := b.FindDuplicates(nil); err != nil {
		t.Fatal(err)
	}
	if computeValueHash("same", a.hmacKey) == computeValueHash("same", b.hmacKey) {
		t.Error("analyzers should use independent session keys")
	}
}
