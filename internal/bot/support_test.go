package bot

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/NoahCxrest/ERMSupport/internal/sentry"
	"github.com/NoahCxrest/ERMSupport/internal/storage"
)

func testStore(t *testing.T) *storage.Store {
	t.Helper()
	st, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

type scriptedSearcher struct {
	payloads []string
	calls    int
}

func (s *scriptedSearcher) Search(_ context.Context, _ string) (json.RawMessage, error) {
	if s.calls >= len(s.payloads) {
		s.calls++
		return json.RawMessage(`[]`), nil
	}
	p := s.payloads[s.calls]
	s.calls++
	return json.RawMessage(p), nil
}

func supportRouter(sp *Support) *Router {
	r := NewRouter("?", "!", slog.Default())
	r.HasRole = func(*discordgo.MessageCreate, string) bool { return true }
	sp.Register(r)
	return r
}

func TestSentryCommand_ResolvesIntoEmbed(t *testing.T) {
	searcher := &scriptedSearcher{payloads: []string{
		`[{"id": "42", "title": "TypeError: nope", "metadata": {"value": "nope"}, "isUnhandled": true, "lastSeen": "` +
			time.Now().UTC().Format(time.RFC3339) + `"}]`,
	}}
	lookup := sentry.NewLookup(searcher, sentry.LookupConfig{
		MaxAttempts:  1,
		IssueURLBase: "https://example.sentry.io",
	})

	sp := &Support{Lookup: lookup, Store: testStore(t), SupportRole: "Support", Logger: slog.Default()}
	r := supportRouter(sp)

	s := &fakeSession{}
	r.Dispatch(context.Background(), s, incoming("?sentry deadbeef"))

	if len(s.sends) != 1 {
		t.Fatalf("sent %d messages, want 1", len(s.sends))
	}
	if s.sends[0].Content != "Fetching..." {
		t.Errorf("initial content = %q", s.sends[0].Content)
	}
	if len(s.edits) != 1 {
		t.Fatalf("edited %d times, want 1", len(s.edits))
	}
	if s.edits[0].Embeds == nil {
		t.Fatal("final edit carries no embeds")
	}
	embeds := *s.edits[0].Embeds
	if len(embeds) != 1 || embeds[0].Title != "Sentry Issue: TypeError: nope" {
		t.Errorf("final embeds = %+v", embeds)
	}
}

func TestSentryCommand_ExhaustionEditsInPlace(t *testing.T) {
	lookup := sentry.NewLookup(&scriptedSearcher{}, sentry.LookupConfig{MaxAttempts: 1})

	sp := &Support{Lookup: lookup, Store: testStore(t), SupportRole: "Support", Logger: slog.Default()}
	r := supportRouter(sp)

	s := &fakeSession{}
	r.Dispatch(context.Background(), s, incoming("?sentry deadbeef"))

	if len(s.edits) != 1 {
		t.Fatalf("edited %d times, want 1", len(s.edits))
	}
	got := s.edits[0].Content
	if got == nil || !strings.Contains(*got, "after 1 attempts") {
		t.Errorf("final content = %v", got)
	}
}

func TestCloseCommand(t *testing.T) {
	sp := &Support{Store: testStore(t), SupportRole: "Support", Logger: slog.Default()}
	r := supportRouter(sp)

	s := &fakeSession{}
	r.Dispatch(context.Background(), s, incoming("?close"))
	if !strings.Contains(s.lastSend(t).Content, "Ticket closed") {
		t.Errorf("first close reply = %q", s.lastSend(t).Content)
	}

	r.Dispatch(context.Background(), s, incoming("?close"))
	second := s.lastSend(t).Content
	if !strings.Contains(second, "already closed") {
		t.Errorf("second close reply = %q", second)
	}
	if !strings.Contains(second, "<@user-1>") {
		t.Errorf("second close reply %q does not name the closer", second)
	}
}

func TestTagLookup(t *testing.T) {
	st := testStore(t)
	if err := st.SaveTag(storage.Tag{Name: "faq", Content: "Read the FAQ first.", AuthorID: "user-1"}); err != nil {
		t.Fatalf("SaveTag: %v", err)
	}

	sp := &Support{Store: st, SupportRole: "Support", Logger: slog.Default()}
	r := supportRouter(sp)

	s := &fakeSession{}
	r.Dispatch(context.Background(), s, incoming("!faq"))
	if s.lastSend(t).Content != "Read the FAQ first." {
		t.Errorf("tag reply = %q", s.lastSend(t).Content)
	}
	if len(s.deleted) != 0 {
		t.Errorf("deleted %v without a referenced message", s.deleted)
	}
}

func TestTagLookup_MissStaysSilent(t *testing.T) {
	sp := &Support{Store: testStore(t), SupportRole: "Support", Logger: slog.Default()}
	r := supportRouter(sp)

	s := &fakeSession{}
	r.Dispatch(context.Background(), s, incoming("!nosuchtag"))
	if len(s.sends) != 0 {
		t.Errorf("sent %d messages, want 0", len(s.sends))
	}
}

func TestTagLookup_RetargetsReferencedMessage(t *testing.T) {
	st := testStore(t)
	if err := st.SaveTag(storage.Tag{Name: "faq", Content: "Read the FAQ first.", AuthorID: "user-1"}); err != nil {
		t.Fatalf("SaveTag: %v", err)
	}

	sp := &Support{Store: st, SupportRole: "Support", Logger: slog.Default()}
	r := supportRouter(sp)

	m := incoming("!faq")
	m.ReferencedMessage = &discordgo.Message{
		ID:        "asker-msg",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
	}

	s := &fakeSession{}
	r.Dispatch(context.Background(), s, m)

	sent := s.lastSend(t)
	if sent.Reference == nil || sent.Reference.MessageID != "asker-msg" {
		t.Errorf("reply reference = %+v, want the referenced message", sent.Reference)
	}
	if len(s.deleted) != 1 || s.deleted[0] != "msg-1" {
		t.Errorf("deleted = %v, want the invoking message", s.deleted)
	}
}
