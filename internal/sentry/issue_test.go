package sentry

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseIssue_EmptyList(t *testing.T) {
	if got := ParseIssue(json.RawMessage(`[]`), ""); got != nil {
		t.Errorf("ParseIssue([]) = %+v, want nil", got)
	}
}

func TestParseIssue_NotAList(t *testing.T) {
	for _, payload := range []string{`{"detail":"oops"}`, `"nope"`, `not json at all`, ``} {
		if got := ParseIssue(json.RawMessage(payload), ""); got != nil {
			t.Errorf("ParseIssue(%q) = %+v, want nil", payload, got)
		}
	}
}

func TestParseIssue_FullRecord(t *testing.T) {
	lastSeen := time.Now().UTC().Add(-3 * time.Hour).Format(time.RFC3339)
	payload := `[{"id":"99","title":"X","metadata":{"value":"V"},"isUnhandled":true,"lastSeen":"` + lastSeen + `"}]`

	issue := ParseIssue(json.RawMessage(payload), "https://ermcorporation.sentry.io")
	if issue == nil {
		t.Fatal("ParseIssue returned nil")
	}
	if issue.Title != "X" {
		t.Errorf("Title = %q, want X", issue.Title)
	}
	if issue.Description != "V" {
		t.Errorf("Description = %q, want V", issue.Description)
	}
	if issue.Unhandled == nil || !*issue.Unhandled {
		t.Errorf("Unhandled = %v, want true", issue.Unhandled)
	}
	if issue.UnhandledDisplay() != "true" {
		t.Errorf("UnhandledDisplay = %q", issue.UnhandledDisplay())
	}
	if !strings.Contains(issue.LastSeen, "ago") {
		t.Errorf("LastSeen = %q, want relative display", issue.LastSeen)
	}
	if issue.URL != "https://ermcorporation.sentry.io/issues/99/" {
		t.Errorf("URL = %q", issue.URL)
	}
}

func TestParseIssue_FirstElementWins(t *testing.T) {
	payload := `[{"title":"first"},{"title":"second"}]`
	issue := ParseIssue(json.RawMessage(payload), "")
	if issue == nil || issue.Title != "first" {
		t.Errorf("issue = %+v, want first element", issue)
	}
}

func TestParseIssue_Defaults(t *testing.T) {
	issue := ParseIssue(json.RawMessage(`[{}]`), "https://ermcorporation.sentry.io")
	if issue == nil {
		t.Fatal("ParseIssue returned nil")
	}
	if issue.Title != TitleUnavailable {
		t.Errorf("Title = %q", issue.Title)
	}
	if issue.Description != ValueUnavailable {
		t.Errorf("Description = %q", issue.Description)
	}
	if issue.Unhandled != nil {
		t.Errorf("Unhandled = %v, want nil", issue.Unhandled)
	}
	if issue.UnhandledDisplay() != UnhandledUnavailable {
		t.Errorf("UnhandledDisplay = %q", issue.UnhandledDisplay())
	}
	if issue.LastSeen != LastSeenUnavailable {
		t.Errorf("LastSeen = %q", issue.LastSeen)
	}
	if issue.URL != "" {
		t.Errorf("URL = %q, want empty without an ID", issue.URL)
	}
}

func TestParseIssue_MalformedTimestampDegrades(t *testing.T) {
	payload := `[{"title":"X","lastSeen":"yesterday-ish"}]`
	issue := ParseIssue(json.RawMessage(payload), "")
	if issue == nil {
		t.Fatal("ParseIssue returned nil; a bad timestamp must not drop the record")
	}
	if issue.LastSeen != LastSeenUnavailable {
		t.Errorf("LastSeen = %q, want %q", issue.LastSeen, LastSeenUnavailable)
	}
	if issue.Title != "X" {
		t.Errorf("Title = %q", issue.Title)
	}
}
