package sentry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Per-field placeholders used when the payload omits a value.
const (
	TitleUnavailable     = "Title not available"
	ValueUnavailable     = "Value not available"
	UnhandledUnavailable = "Handled information not available"
	LastSeenUnavailable  = "Last seen not available"
)

// Issue is the normalized view of one Sentry issue, built once per
// successful attempt and immutable afterwards.
type Issue struct {
	Title       string
	Description string
	Unhandled   *bool  // nil when the payload does not say
	LastSeen    string // relative display, e.g. "3 hours ago"
	URL         string // empty when the record carries no ID
}

// UnhandledDisplay renders the unhandled flag as display text.
func (i *Issue) UnhandledDisplay() string {
	if i.Unhandled == nil {
		return UnhandledUnavailable
	}
	return strconv.FormatBool(*i.Unhandled)
}

// rawIssue mirrors the fields extracted from one element of the search
// payload. Everything else in the response is ignored.
type rawIssue struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Metadata struct {
		Value string `json:"value"`
	} `json:"metadata"`
	IsUnhandled *bool  `json:"isUnhandled"`
	LastSeen    string `json:"lastSeen"`
}

// ParseIssue extracts the first issue from a raw search payload. It returns
// nil when the payload is empty or not a JSON list: that is the documented
// "no matching issue yet" condition, not an error. First element wins; the
// API returns newest-first and no ranking is applied here.
//
// issueURLBase is the organization's web origin (for example
// "https://ermcorporation.sentry.io"); the detail URL is only populated
// when the record carries an ID and the base is configured.
func ParseIssue(payload json.RawMessage, issueURLBase string) *Issue {
	var raw []rawIssue
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	first := raw[0]

	issue := &Issue{
		Title:       first.Title,
		Description: first.Metadata.Value,
		Unhandled:   first.IsUnhandled,
		LastSeen:    relativeLastSeen(first.LastSeen),
	}
	if issue.Title == "" {
		issue.Title = TitleUnavailable
	}
	if issue.Description == "" {
		issue.Description = ValueUnavailable
	}
	if first.ID != "" && issueURLBase != "" {
		issue.URL = fmt.Sprintf("%s/issues/%s/", issueURLBase, first.ID)
	}
	return issue
}

// relativeLastSeen converts an ISO-8601 UTC timestamp to a humanized
// relative string. A missing or malformed timestamp degrades to a
// placeholder instead of failing the whole record.
func relativeLastSeen(lastSeen string) string {
	if lastSeen == "" {
		return LastSeenUnavailable
	}
	t, err := time.Parse(time.RFC3339, lastSeen)
	if err != nil {
		return LastSeenUnavailable
	}
	return humanize.Time(t.UTC())
}
