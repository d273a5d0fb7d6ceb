package bot

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/NoahCxrest/ERMSupport/internal/sentry"
)

func testOrigin() *discordgo.Message {
	return &discordgo.Message{
		ID:        "origin-1",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
		Author:    &discordgo.User{ID: "user-1"},
	}
}

func TestReporter_SendsOnceThenEdits(t *testing.T) {
	s := &fakeSession{}
	r := newMessageReporter(s, testOrigin(), slog.Default())

	must := func(ev sentry.Event) {
		t.Helper()
		if err := r.Report(context.Background(), ev); err != nil {
			t.Fatalf("Report: %v", err)
		}
	}

	must(sentry.Event{Kind: sentry.KindFetching, ErrorID: "abc", Attempt: 1})
	must(sentry.Event{Kind: sentry.KindRetrying, ErrorID: "abc", Attempt: 1, Wait: 2 * time.Second})
	must(sentry.Event{Kind: sentry.KindResolved, ErrorID: "abc", Issue: &sentry.Issue{Title: "boom"}})

	if len(s.sends) != 1 {
		t.Fatalf("sent %d messages, want 1", len(s.sends))
	}
	if len(s.edits) != 2 {
		t.Fatalf("edited %d times, want 2", len(s.edits))
	}

	first := s.sends[0]
	if first.Content != "Fetching..." {
		t.Errorf("initial content = %q", first.Content)
	}
	if first.Reference == nil || first.Reference.MessageID != "origin-1" {
		t.Errorf("initial message does not reference the invocation: %+v", first.Reference)
	}

	retry := s.edits[0]
	if retry.ID != "m1" || retry.Channel != "chan-1" {
		t.Errorf("retry edit targets %s/%s", retry.Channel, retry.ID)
	}
	if retry.Content == nil || !strings.Contains(*retry.Content, "Retrying in 2.0 seconds") {
		t.Errorf("retry content = %v", retry.Content)
	}

	final := s.edits[1]
	if final.Content == nil || *final.Content != "" {
		t.Errorf("resolved content = %v, want cleared", final.Content)
	}
	if final.Embeds == nil {
		t.Fatal("resolved edit carries no embeds")
	}
	embeds := *final.Embeds
	if len(embeds) != 1 || !strings.Contains(embeds[0].Title, "boom") {
		t.Errorf("resolved embeds = %+v", embeds)
	}
}

func TestReporter_SendFailureSurfaces(t *testing.T) {
	s := &fakeSession{sendErr: context.DeadlineExceeded}
	r := newMessageReporter(s, testOrigin(), slog.Default())

	err := r.Report(context.Background(), sentry.Event{Kind: sentry.KindFetching, ErrorID: "abc"})
	if err == nil {
		t.Fatal("expected an error from the failed send")
	}
	if r.messageID != "" {
		t.Error("messageID was set despite the failed send")
	}
}

func TestRenderEvent(t *testing.T) {
	content, embed := renderEvent(sentry.Event{Kind: sentry.KindFetching})
	if content != "Fetching..." || embed != nil {
		t.Errorf("fetching = %q, %v", content, embed)
	}

	content, embed = renderEvent(sentry.Event{
		Kind: sentry.KindRetrying, ErrorID: "deadbeef", Wait: 2600 * time.Millisecond,
	})
	want := "No matching issues found for error ID: deadbeef... **Retrying in 2.6 seconds**."
	if content != want {
		t.Errorf("retrying = %q, want %q", content, want)
	}
	if embed != nil {
		t.Errorf("retrying embed = %v, want nil", embed)
	}

	content, embed = renderEvent(sentry.Event{Kind: sentry.KindExhausted, ErrorID: "deadbeef", Attempts: 4})
	want = "No matching issues found for error ID: deadbeef after 4 attempts."
	if content != want {
		t.Errorf("exhausted = %q, want %q", content, want)
	}
	if embed != nil {
		t.Errorf("exhausted embed = %v, want nil", embed)
	}

	content, embed = renderEvent(sentry.Event{Kind: sentry.KindResolved, Issue: &sentry.Issue{
		Title: "TypeError", URL: "https://example.sentry.io/issues/1/",
	}})
	if content != "" {
		t.Errorf("resolved content = %q, want empty", content)
	}
	if embed == nil || embed.Title != "Sentry Issue: TypeError" {
		t.Errorf("resolved embed = %+v", embed)
	}
}
