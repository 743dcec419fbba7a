package db

// Actor は俳優テーブルの行。
type Actor struct {
	ID     int64
	Name   string
	Age    int64
	Gender string
}

// Movie は映画テーブルの行。
type Movie struct {
	ID          int64
	Title       string
	ReleaseDate string
}
