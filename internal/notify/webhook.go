package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Settings は通知に必要な設定値の読み出し口（settings.Service が満たす）
type Settings interface {
	NotifyTarget(ctx context.Context) (kind, id string, ok bool, err error)
	AnnounceWebhookURL(ctx context.Context) (string, bool, error)
}

// WebhookNotifier はチャットの Incoming Webhook に JSON を POST する。
// 送信失敗は呼び出し元の操作を失敗させない（ログのみ）。
type WebhookNotifier struct {
	settings Settings
	client   *http.Client
}

func NewWebhookNotifier(settings Settings) *WebhookNotifier {
	return &WebhookNotifier{
		settings: settings,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Announce(ctx context.Context, text string) {
	n.post(ctx, "📢 "+text)
}

func (n *WebhookNotifier) NotifyRequest(ctx context.Context, text string) {
	mention := ""
	kind, id, ok, err := n.settings.NotifyTarget(ctx)
	if err != nil {
		log.Printf("[WARN] notify: failed to load notify target: %v", err)
	} else if ok {
		switch kind {
		case "role":
			mention = fmt.Sprintf("<@&%s>", id)
		case "user":
			mention = fmt.Sprintf("<@%s>", id)
		}
	}
	if mention != "" {
		text = mention + " " + text
	}
	n.post(ctx, text)
}

func (n *WebhookNotifier) post(ctx context.Context, content string) {
	url, ok, err := n.settings.AnnounceWebhookURL(ctx)
	if err != nil {
		log.Printf("[WARN] notify: failed to load webhook url: %v", err)
		return
	}
	if !ok {
		// 未設定なら黙ってスキップ（元実装の fallback と同じ扱い）
		return
	}

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		log.Printf("[WARN] notify: marshal failed: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("[WARN] notify: request build failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("[WARN] notify: post failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("[WARN] notify: webhook returned %d", resp.StatusCode)
	}
}
