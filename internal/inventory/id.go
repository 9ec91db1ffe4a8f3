package inventory

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	maxPrefixLen   = 8
	fallbackPrefix = "CAT"
	sequenceDigits = 3
)

// MakePrefix はカテゴリ名から機材IDの接頭辞を作る。
// 英数字のみ大文字化して最大8文字。残らなければ "CAT"。
func MakePrefix(category string) string {
	var b strings.Builder
	for _, ch := range category {
		if (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
			b.WriteRune(ch)
		}
	}
	p := strings.ToUpper(b.String())
	if p == "" {
		return fallbackPrefix
	}
	if len(p) > maxPrefixLen {
		p = p[:maxPrefixLen]
	}
	return p
}

// NextItemID は既存IDの最大連番+1を返す。欠番は再利用しない。
// 現在の在庫だけで決まる純粋関数（同じ入力なら同じIDを返す）。
func NextItemID(prefix string, existing []string) string {
	maxN := 0
	for _, id := range existing {
		rest, ok := strings.CutPrefix(id, prefix+"-")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			continue
		}
		if n > maxN {
			maxN = n
		}
	}
	return fmt.Sprintf("%s-%0*d", prefix, sequenceDigits, maxN+1)
}
