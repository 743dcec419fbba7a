// Package paging は一覧APIのページ番号の解釈とオフセット計算を提供する。
package paging

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultSize は1ページあたりの件数のデフォルト値。
const DefaultSize = 10

// Page は一覧取得のページ指定。
type Page struct {
	// Number は1始まりのページ番号。
	Number int
	// Size は1ページあたりの件数。
	Size int
}

// FromQuery はクエリパラメータの値からページ指定を生成する。
// 空、数値でない、または1未満の値は1ページ目として扱う。
// オフセットがintに収まらないページ番号は、収まる最大のページ番号に丸める。
func FromQuery(value string, size int) Page {
	if size <= 0 {
		size = DefaultSize
	}
	maxNumber := math.MaxInt / size
	n, err := strconv.Atoi(value)
	switch {
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(value, "-"):
		n = maxNumber
	case err != nil || n < 1:
		n = 1
	case n > maxNumber:
		n = maxNumber
	}
	return Page{Number: n, Size: size}
}

// Offset は先頭から読み飛ばす件数を返す。
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit は取得する最大件数を返す。
func (p Page) Limit() int {
	return p.Size
}
