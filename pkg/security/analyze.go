package security

import (
	"fmt"

	"github.com/forest6511/pawnvault/pkg/entry"
)

// Report represents the security assessment of one vault's entries.
type Report struct {
	// Overall is the total score (0-100).
	Overall int `json:"overall"`
	// Components breaks down the score into categories.
	Components ScoreComponents `json:"components"`
	// Issues contains the detected security issues.
	Issues []SecurityIssue `json:"issues"`
	// Suggestions provides actionable recommendations.
	Suggestions []string `json:"suggestions"`
}

// ScoreComponents breaks down the score. Each component contributes up to
// 50 points.
type ScoreComponents struct {
	// StrengthScore is based on average secret strength (0-50).
	StrengthScore int `json:"strength"`
	// UniquenessScore is based on the share of unique secrets (0-50).
	UniquenessScore int `json:"uniqueness"`
}

// IssueType identifies the type of security issue.
type IssueType string

const (
	// IssueWeakPassword indicates a secret with insufficient strength.
	IssueWeakPassword IssueType = "weak"
	// IssueDuplicatePassword indicates a secret reused across entries.
	IssueDuplicatePassword IssueType = "duplicate"
	// IssueEmptySecret indicates an entry without a secret.
	IssueEmptySecret IssueType = "empty"
)

// Severity indicates the urgency of a security issue.
type Severity string

const (
	// SeverityCritical requires immediate attention.
	SeverityCritical Severity = "critical"
	// SeverityWarning should be addressed soon.
	SeverityWarning Severity = "warning"
)

// SecurityIssue represents a detected security problem. Secrets are never
// included, only entry ids.
type SecurityIssue struct {
	Type        IssueType `json:"type"`
	Severity    Severity  `json:"severity"`
	EntryIDs    []int32   `json:"entry_ids"`
	Description string    `json:"description"`
	Suggestion  string    `json:"suggestion,omitempty"`
}

const maxComponentScore = 50

// Analyzer computes security reports. The zero value is ready to use; the
// duplicate-detection key is created on first use and lives only as long as
// the Analyzer.
type Analyzer struct {
	hmacKey []byte
}

// NewAnalyzer creates an analyzer with a fresh session key.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze computes the report for entries.
func (a *Analyzer) Analyze(entries []entry.Entry) (*Report, error) {
	// Empty vault: perfect score
	if len(entries) == 0 {
		return &Report{
			Overall:     2 * maxComponentScore,
			Components:  ScoreComponents{StrengthScore: maxComponentScore, UniquenessScore: maxComponentScore},
			Issues:      []SecurityIssue{},
			Suggestions: []string{},
		}, nil
	}

	strengthScore, weakIssues := a.strengthScore(entries)
	uniquenessScore, dupIssues, err := a.uniquenessScore(entries)
	if err != nil {
		return nil, err
	}

	issues := make([]SecurityIssue, 0, len(weakIssues)+len(dupIssues))
	issues = append(issues, weakIssues...)
	issues = append(issues, dupIssues...)

	return &Report{
		Overall: strengthScore + uniquenessScore,
		Components: ScoreComponents{
			StrengthScore:   strengthScore,
			UniquenessScore: uniquenessScore,
		},
		Issues:      issues,
		Suggestions: suggestions(issues),
	}, nil
}

// strengthScore averages the strength points of all entries.
func (a *Analyzer) strengthScore(entries []entry.Entry) (int, []SecurityIssue) {
	var issues []SecurityIssue
	totalPoints := 0

	for _, e := range entries {
		if e.Secret == "" {
			issues = append(issues, SecurityIssue{
				Type:        IssueEmptySecret,
				Severity:    SeverityCritical,
				EntryIDs:    []int32{e.ID},
				Description: "Entry has no secret",
				Suggestion:  "Set a secret or remove the entry",
			})
			continue
		}

		strength := SecretStrength(e.Secret)
		totalPoints += strength.Points()
		if strength == PasswordWeak {
			issues = append(issues, SecurityIssue{
				Type:        IssueWeakPassword,
				Severity:    SeverityWarning,
				EntryIDs:    []int32{e.ID},
				Description: fmt.Sprintf("Secret has insufficient strength (%s)", formatLength(len([]rune(e.Secret)))),
				Suggestion:  "Use a longer secret (14+ characters recommended)",
			})
		}
	}

	return min(totalPoints/len(entries), maxComponentScore), issues
}

// uniquenessScore scales the share of distinct secrets.
func (a *Analyzer) uniquenessScore(entries []entry.Entry) (int, []SecurityIssue, error) {
	duplicates, err := a.FindDuplicates(entries)
	if err != nil {
		return 0, nil, err
	}

	total := 0
	for _, e := range entries {
		if normalizeValue(e.Secret) != "" {
			total++
		}
	}
	// No secrets: full score (N/A)
	if total == 0 {
		return maxComponentScore, nil, nil
	}

	unique := total
	var issues []SecurityIssue
	for _, dup := range duplicates {
		unique -= dup.Count - 1
		issues = append(issues, SecurityIssue{
			Type:        IssueDuplicatePassword,
			Severity:    SeverityWarning,
			EntryIDs:    dup.EntryIDs,
			Description: fmt.Sprintf("%d entries share the same secret", dup.Count),
			Suggestion:  "Use unique secrets for each entry",
		})
	}

	return unique * maxComponentScore / total, issues, nil
}

// suggestions creates actionable recommendations based on issues.
func suggestions(issues []SecurityIssue) []string {
	var hasWeak, hasDuplicate, hasEmpty bool
	for _, issue := range issues {
		switch issue.Type {
		case IssueWeakPassword:
			hasWeak = true
		case IssueDuplicatePassword:
			hasDuplicate = true
		case IssueEmptySecret:
			hasEmpty = true
		}
	}

	result := []string{}
	if hasEmpty {
		result = append(result, "Fill in or remove entries without a secret")
	}
	if hasWeak {
		result = append(result, "Update weak secrets with stronger alternatives (14+ characters)")
	}
	if hasDuplicate {
		result = append(result, "Replace duplicate secrets with unique values")
	}
	return result
}

// formatLength returns a human-readable length description.
func formatLength(n int) string {
	if n == 1 {
		return "1 character"
	}
	return fmt.Sprintf("%d characters", n)
}
