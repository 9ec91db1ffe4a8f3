package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSettings struct {
	kind, id string
	hasKind  bool
	url      string
	hasURL   bool
}

func (s *stubSettings) NotifyTarget(ctx context.Context) (string, string, bool, error) {
	return s.kind, s.id, s.hasKind, nil
}
func (s *stubSettings) AnnounceWebhookURL(ctx context.Context) (string, bool, error) {
	return s.url, s.hasURL, nil
}

func captureServer(t *testing.T, got *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		*got = append(*got, payload["content"])
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestNotifyRequest_MentionsRole(t *testing.T) {
	var got []string
	srv := captureServer(t, &got)
	defer srv.Close()

	n := NewWebhookNotifier(&stubSettings{kind: "role", id: "12345", hasKind: true, url: srv.URL, hasURL: true})
	n.NotifyRequest(context.Background(), "新しい貸出申請があります。")

	require.Len(t, got, 1)
	require.Equal(t, "<@&12345> 新しい貸出申請があります。", got[0])
}

func TestNotifyRequest_MentionsUser(t *testing.T) {
	var got []string
	srv := captureServer(t, &got)
	defer srv.Close()

	n := NewWebhookNotifier(&stubSettings{kind: "user", id: "777", hasKind: true, url: srv.URL, hasURL: true})
	n.NotifyRequest(context.Background(), "test")

	require.Len(t, got, 1)
	require.Equal(t, "<@777> test", got[0])
}

func TestNotifyRequest_NoTargetNoMention(t *testing.T) {
	var got []string
	srv := captureServer(t, &got)
	defer srv.Close()

	n := NewWebhookNotifier(&stubSettings{url: srv.URL, hasURL: true})
	n.NotifyRequest(context.Background(), "test")

	require.Len(t, got, 1)
	require.Equal(t, "test", got[0])
}

// Webhook 未設定なら何も送らない（エラーにもしない）
func TestPost_SkipsWhenURLUnset(t *testing.T) {
	var got []string
	srv := captureServer(t, &got)
	defer srv.Close()

	n := NewWebhookNotifier(&stubSettings{})
	n.Announce(context.Background(), "test")
	n.NotifyRequest(context.Background(), "test")

	require.Empty(t, got)
}

func TestAnnounce_PrefixesMegaphone(t *testing.T) {
	var got []string
	srv := captureServer(t, &got)
	defer srv.Close()

	n := NewWebhookNotifier(&stubSettings{url: srv.URL, hasURL: true})
	n.Announce(context.Background(), "文化祭期間を設定しました。")

	require.Len(t, got, 1)
	require.Equal(t, "📢 文化祭期間を設定しました。", got[0])
}
