package paging

import (
	"math"
	"testing"
)

// TestFromQuery はFromQuery関数を検証する。
func TestFromQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		value      string
		size       int
		wantNumber int
		wantSize   int
		wantOffset int
	}{
		{name: "未指定は1ページ目", value: "", size: 10, wantNumber: 1, wantSize: 10, wantOffset: 0},
		{name: "2ページ目", value: "2", size: 10, wantNumber: 2, wantSize: 10, wantOffset: 10},
		{name: "数値でない値は1ページ目", value: "abc", size: 10, wantNumber: 1, wantSize: 10, wantOffset: 0},
		{name: "0は1ページ目", value: "0", size: 10, wantNumber: 1, wantSize: 10, wantOffset: 0},
		{name: "負の値は1ページ目", value: "-3", size: 10, wantNumber: 1, wantSize: 10, wantOffset: 0},
		{name: "件数が0以下の場合はデフォルト", value: "3", size: 0, wantNumber: 3, wantSize: DefaultSize, wantOffset: 2 * DefaultSize},
		{name: "件数8で3ページ目", value: "3", size: 8, wantNumber: 3, wantSize: 8, wantOffset: 16},
		{name: "オフセットがあふれるページ番号は丸める", value: "9223372036854775807", size: 10, wantNumber: math.MaxInt / 10, wantSize: 10, wantOffset: (math.MaxInt/10 - 1) * 10},
		{name: "intの範囲外のページ番号は丸める", value: "99999999999999999999", size: 10, wantNumber: math.MaxInt / 10, wantSize: 10, wantOffset: (math.MaxInt/10 - 1) * 10},
		{name: "範囲外の負の値は1ページ目", value: "-99999999999999999999", size: 10, wantNumber: 1, wantSize: 10, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := FromQuery(tt.value, tt.size)
			if p.Number != tt.wantNumber {
				t.Errorf("Number = %d, want %d", p.Number, tt.wantNumber)
			}
			if p.Size != tt.wantSize || p.Limit() != tt.wantSize {
				t.Errorf("Size = %d, Limit() = %d, want %d", p.Size, p.Limit(), tt.wantSize)
			}
			if p.Offset() != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", p.Offset(), tt.wantOffset)
			}
			if p.Offset() < 0 {
				t.Errorf("Offset() = %d は負であってはならない", p.Offset())
			}
		})
	}
}
