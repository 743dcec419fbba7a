package casting

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。internal/casting/db のクエリと同期すること。
const schema = `
CREATE TABLE IF NOT EXISTS actors (
    -- 俳優の一意識別子
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    -- 氏名
    name TEXT NOT NULL,
    -- 年齢
    age INTEGER NOT NULL CHECK (age >= 0),
    -- 性別
    gender TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS movies (
    -- 映画の一意識別子
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    -- タイトル
    title TEXT NOT NULL,
    -- 公開日（YYYY-MM-DD）
    release_date TEXT NOT NULL
);

-- タイトル検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_movies_title
    ON movies(title);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
