// Package notify は申請通知・お知らせの送信口。
// 宛先は settings の Webhook URL とメンション対象から解決する。
package notify

import "context"

type Notifier interface {
	// Announce: お知らせチャンネルへの単純送信
	Announce(ctx context.Context, text string)
	// NotifyRequest: 貸出申請通知。設定されたロール/ユーザーをメンションする
	NotifyRequest(ctx context.Context, text string)
}

// Nop はテストや通知無効時に使う
type Nop struct{}

func (Nop) Announce(ctx context.Context, text string)      {}
func (Nop) NotifyRequest(ctx context.Context, text string) {}
