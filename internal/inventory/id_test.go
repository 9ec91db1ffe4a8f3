package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakePrefix(t *testing.T) {
	cases := []struct {
		category string
		want     string
	}{
		{"HMD", "HMD"},
		{"hmd", "HMD"},
		{"三脚", "CAT"},
		{"カメラ(Camera)", "CAMERA"},
		{"LongCategoryName", "LONGCATE"},
		{"", "CAT"},
		{"!!!", "CAT"},
		{"PC-2", "PC2"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, MakePrefix(tc.category), "category=%q", tc.category)
	}
}

func TestNextItemID_First(t *testing.T) {
	require.Equal(t, "HMD-001", NextItemID("HMD", nil))
}

func TestNextItemID_Increments(t *testing.T) {
	require.Equal(t, "HMD-003", NextItemID("HMD", []string{"HMD-001", "HMD-002"}))
}

// 同じ在庫に対しては何度呼んでも同じIDが返る
func TestNextItemID_Pure(t *testing.T) {
	existing := []string{"HMD-001"}
	require.Equal(t, "HMD-002", NextItemID("HMD", existing))
	require.Equal(t, "HMD-002", NextItemID("HMD", existing))
}

// 欠番は再利用しない
func TestNextItemID_NoGapReuse(t *testing.T) {
	require.Equal(t, "HMD-004", NextItemID("HMD", []string{"HMD-001", "HMD-003"}))
}

func TestNextItemID_IgnoresOtherPrefixes(t *testing.T) {
	require.Equal(t, "HMD-001", NextItemID("HMD", []string{"CAM-005", "HMDX-009"}))
}

func TestNextItemID_OverflowsPadding(t *testing.T) {
	require.Equal(t, "HMD-1000", NextItemID("HMD", []string{"HMD-999"}))
}

func TestNextID_RequiresCategory(t *testing.T) {
	svc := &Service{}
	_, err := svc.NextID(context.Background(), "  ")
	require.Error(t, err)
}
