package slackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/slack-go/slack"
)

type mockSlack struct {
	mu        sync.Mutex
	calls     map[string]int
	userCalls map[string]int
	posted    []string
	handler   func(w http.ResponseWriter, r *http.Request, call int) bool
}

// newMockSlack serves the Slack Web API methods used by Client. handler may
// take over a request by returning true.
func newMockSlack(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, call int) bool) (*Client, *mockSlack, *[]time.Duration) {
	t.Helper()

	m := &mockSlack{calls: map[string]int{}, userCalls: map[string]int{}, handler: handler}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		path := strings.TrimPrefix(r.URL.Path, "/api/")

		m.mu.Lock()
		m.calls[path]++
		call := m.calls[path]
		if path == "users.info" {
			m.userCalls[r.Form.Get("user")]++
		}
		if path == "chat.postMessage" {
			m.posted = append(m.posted, r.Form.Get("channel")+":"+r.Form.Get("text"))
		}
		m.mu.Unlock()

		if m.handler != nil && m.handler(w, r, call) {
			return
		}

		switch path {
		case "conversations.history":
			if r.Form.Get("cursor") == "" {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"ok": true,
					"messages": []map[string]any{
						{"type": "message", "user": "U1", "text": "first\nline", "ts": "1700000000.000100"},
						{"type": "message", "user": "U2", "text": "second", "ts": "1700003600.000200"},
					},
					"has_more":          true,
					"response_metadata": map[string]any{"next_cursor": "page2"},
				})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok": true,
				"messages": []map[string]any{
					{"type": "message", "user": "U1", "text": "third", "ts": "1700090000.000300"},
				},
				"response_metadata": map[string]any{"next_cursor": ""},
			})
		case "users.info":
			switch r.Form.Get("user") {
			case "U1":
				_ = json.NewEncoder(w).Encode(map[string]any{
					"ok": true,
					"user": map[string]any{
						"id": "U1", "name": "alice", "real_name": "Alice Real",
						"profile": map[string]any{"display_name": "Alice Display"},
					},
				})
			case "U2":
				_ = json.NewEncoder(w).Encode(map[string]any{
					"ok": true,
					"user": map[string]any{
						"id": "U2", "name": "bob", "real_name": "Bob Real",
						"profile": map[string]any{"display_name": ""},
					},
				})
			default:
				_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "user_not_found"})
			}
		case "users.list":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok": true,
				"members": []map[string]any{
					{"id": "U_BOB", "name": "bob", "real_name": "Bob Real", "profile": map[string]any{"display_name": "Bob Display"}},
				},
			})
		case "conversations.open":
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": map[string]any{"id": "D_" + r.Form.Get("users")}})
		case "chat.postMessage":
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": r.Form.Get("channel"), "ts": "1.23"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		}
	}))
	t.Cleanup(server.Close)

	api := slack.New("xoxb-test", slack.OptionAPIURL(server.URL+"/api/"))
	c := New(api, 3)
	var waits []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, m, &waits
}

func (m *mockSlack) count(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

func (m *mockSlack) userLookups(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userCalls[id]
}

func (m *mockSlack) posts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.posted...)
}

func TestFetchHistoryPaginates(t *testing.T) {
	c, m, _ := newMockSlack(t, nil)

	msgs, err := c.FetchHistory(context.Background(), "C1")
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}
	want := []Message{
		{Channel: "C1", TS: "1700000000.000100", User: "U1", Text: "first\nline"},
		{Channel: "C1", TS: "1700003600.000200", User: "U2", Text: "second"},
		{Channel: "C1", TS: "1700090000.000300", User: "U1", Text: "third"},
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Fatalf("unexpected messages (-want +got):\n%s", diff)
	}
	if m.count("conversations.history") != 2 {
		t.Fatalf("expected 2 history calls, got %d", m.count("conversations.history"))
	}
}

func TestFetchHistoryRetriesOnRateLimit(t *testing.T) {
	c, m, waits := newMockSlack(t, func(w http.ResponseWriter, r *http.Request, call int) bool {
		if strings.HasSuffix(r.URL.Path, "conversations.history") && call == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return true
		}
		return false
	})

	msgs, err := c.FetchHistory(context.Background(), "C1")
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages after retry, got %d", len(msgs))
	}
	if m.count("conversations.history") != 3 {
		t.Fatalf("expected 3 history calls, got %d", m.count("conversations.history"))
	}
	if diff := cmp.Diff([]time.Duration{2 * time.Second}, *waits); diff != "" {
		t.Fatalf("unexpected waits (-want +got):\n%s", diff)
	}
}

func TestFetchHistoryGivesUpAfterMaxRetries(t *testing.T) {
	c, m, waits := newMockSlack(t, func(w http.ResponseWriter, r *http.Request, call int) bool {
		if strings.HasSuffix(r.URL.Path, "conversations.history") {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return true
		}
		return false
	})

	msgs, err := c.FetchHistory(context.Background(), "C1")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
	if m.count("conversations.history") != 3 || len(*waits) != 2 {
		t.Fatalf("expected 3 attempts and 2 waits, got %d calls %d waits", m.count("conversations.history"), len(*waits))
	}
}

func TestFetchHistoryDoesNotRetryAPIErrors(t *testing.T) {
	c, m, waits := newMockSlack(t, func(w http.ResponseWriter, r *http.Request, call int) bool {
		if strings.HasSuffix(r.URL.Path, "conversations.history") {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
			return true
		}
		return false
	})

	if _, err := c.FetchHistory(context.Background(), "C404"); err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("expected channel_not_found, got %v", err)
	}
	if m.count("conversations.history") != 1 || len(*waits) != 0 {
		t.Fatalf("expected a single call without waits, got %d calls %d waits", m.count("conversations.history"), len(*waits))
	}
}

func TestFetchChannelsKeepsOrderAndPartialFailures(t *testing.T) {
	c, _, _ := newMockSlack(t, func(w http.ResponseWriter, r *http.Request, call int) bool {
		if strings.HasSuffix(r.URL.Path, "conversations.history") && r.Form.Get("channel") == "CBAD" {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "not_in_channel"})
			return true
		}
		return false
	})

	msgs, err := c.FetchChannels(context.Background(), []string{"CA", "CBAD", "CB"}, 2)
	if err == nil || !strings.Contains(err.Error(), "CBAD") {
		t.Fatalf("expected joined error naming CBAD, got %v", err)
	}
	if len(msgs) != 6 {
		t.Fatalf("expected 6 messages from the two good channels, got %d", len(msgs))
	}
	if msgs[0].Channel != "CA" || msgs[5].Channel != "CB" {
		t.Fatalf("channel order not preserved: first=%s last=%s", msgs[0].Channel, msgs[5].Channel)
	}
}

func TestUserNameCachesAndFallsBack(t *testing.T) {
	c, m, _ := newMockSlack(t, nil)
	ctx := context.Background()

	tests := []struct {
		id   string
		want string
	}{
		{id: "U1", want: "Alice Display"},
		{id: "U2", want: "Bob Real"},
		{id: "U404", want: "U404"},
		{id: "U1", want: "Alice Display"},
		{id: "U404", want: "U404"},
		{id: "", want: ""},
	}
	for _, tc := range tests {
		if got := c.UserName(ctx, tc.id); got != tc.want {
			t.Fatalf("UserName(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
	for _, id := range []string{"U1", "U2", "U404"} {
		if m.userLookups(id) != 1 {
			t.Fatalf("expected one users.info call for %s, got %d", id, m.userLookups(id))
		}
	}
	if c.NameLookups() != 3 {
		t.Fatalf("expected 3 lookups, got %d", c.NameLookups())
	}
}

func TestWriteExport(t *testing.T) {
	c, _, _ := newMockSlack(t, nil)
	msgs := []Message{
		{Channel: "C1", TS: "1.1", User: "U1", Text: "multi\nline\r\ntext"},
		{Channel: "C1", TS: "1.2", User: "", Text: "bot, message"},
	}
	var buf bytes.Buffer
	if err := c.WriteExport(context.Background(), &buf, msgs); err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	want := "channel,ts,user,text\nC1,1.1,Alice Display,multi line text\nC1,1.2,,\"bot, message\"\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("unexpected export (-want +got):\n%s", diff)
	}
}

func TestComputeActivityAndRender(t *testing.T) {
	c, _, _ := newMockSlack(t, nil)
	msgs := []Message{
		{User: "U2", TS: "1700000000.000100"},
		{User: "U1", TS: "1700000100.000100"},
		{User: "U1", TS: "1700090000.000300"},
		{User: "", TS: "1700090001.000000"},
		{User: "U2", TS: "bogus"},
	}

	a := c.ComputeActivity(context.Background(), msgs, time.UTC)
	wantUsers := []UserCount{
		{UserID: "U1", Name: "Alice Display", Count: 2},
		{UserID: "U2", Name: "Bob Real", Count: 2},
	}
	if diff := cmp.Diff(wantUsers, a.Users); diff != "" {
		t.Fatalf("unexpected users (-want +got):\n%s", diff)
	}
	wantDays := []DayCount{{Day: "2023-11-14", Count: 2}, {Day: "2023-11-15", Count: 2}}
	if diff := cmp.Diff(wantDays, a.Days); diff != "" {
		t.Fatalf("unexpected days (-want +got):\n%s", diff)
	}
	if a.Total != 5 {
		t.Fatalf("Total = %d, want 5", a.Total)
	}

	html, err := RenderActivityHTML(a)
	if err != nil {
		t.Fatalf("RenderActivityHTML failed: %v", err)
	}
	for _, part := range []string{"<td>Alice Display</td><td>2</td>", "<td>2023-11-15</td><td>2</td>", "height: 200px", "5 messages"} {
		if !strings.Contains(html, part) {
			t.Fatalf("html missing %q:\n%s", part, html)
		}
	}
}

func TestParseTS(t *testing.T) {
	got, ok := parseTS("1700000000.5")
	if !ok || !got.Equal(time.Unix(1700000000, 500000000)) {
		t.Fatalf("parseTS = %v %v", got, ok)
	}
	if _, ok := parseTS("x.1"); ok {
		t.Fatal("expected failure for non-numeric ts")
	}
}

func TestNotifyPostsAndDMs(t *testing.T) {
	c, m, _ := newMockSlack(t, nil)

	err := c.Notify(context.Background(), "C_REPORT", []string{"UABCDEFGH1", "bob display", "nobody"}, "summary text")
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	want := []string{
		"C_REPORT:summary text",
		"D_UABCDEFGH1:summary text",
		"D_U_BOB:summary text",
	}
	if diff := cmp.Diff(want, m.posts()); diff != "" {
		t.Fatalf("unexpected posts (-want +got):\n%s", diff)
	}
}

func TestResolveUserIDs(t *testing.T) {
	c, m, _ := newMockSlack(t, nil)
	ctx := context.Background()

	ids, unresolved, err := c.ResolveUserIDs(ctx, []string{"bob", "UABCDEFGH1", "Bob Display", "  ", "nobody", "UABCDEFGH1", "BOB REAL"})
	if err != nil {
		t.Fatalf("ResolveUserIDs failed: %v", err)
	}
	if diff := cmp.Diff([]string{"U_BOB", "UABCDEFGH1"}, ids); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"nobody"}, unresolved); diff != "" {
		t.Fatalf("unexpected unresolved (-want +got):\n%s", diff)
	}

	if _, _, err := c.ResolveUserIDs(ctx, []string{"bob"}); err != nil {
		t.Fatalf("second ResolveUserIDs failed: %v", err)
	}
	if got := m.count("users.list"); got != 1 {
		t.Fatalf("expected users.list once per client, got %d", got)
	}

	if got := c.UserName(ctx, "U_BOB"); got != "Bob Display" {
		t.Fatalf("UserName(U_BOB) = %q, want seeded display name", got)
	}
	if got := m.userLookups("U_BOB"); got != 0 {
		t.Fatalf("expected no users.info call for a directory member, got %d", got)
	}
}

func TestResolveUserIDsOnlyIDsSkipsDirectory(t *testing.T) {
	c, m, _ := newMockSlack(t, nil)

	ids, unresolved, err := c.ResolveUserIDs(context.Background(), []string{"W12345678", "U12345678"})
	if err != nil {
		t.Fatalf("ResolveUserIDs failed: %v", err)
	}
	if diff := cmp.Diff([]string{"W12345678", "U12345678"}, ids); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}
	if len(unresolved) != 0 || m.count("users.list") != 0 {
		t.Fatalf("expected no directory load, unresolved=%v users.list=%d", unresolved, m.count("users.list"))
	}
}

func TestLooksLikeUserID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"U12345678", true},
		{"W12345678", true},
		{"u12345678", false},
		{"U1234", false},
		{"Ualice-bob", false},
	}
	for _, tc := range tests {
		if got := looksLikeUserID(tc.in); got != tc.want {
			t.Fatalf("looksLikeUserID(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
