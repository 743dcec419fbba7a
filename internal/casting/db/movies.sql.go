package db

import (
	"context"
)

const createMovie = `-- name: CreateMovie :one
INSERT INTO movies (title, release_date)
VALUES (?, ?)
RETURNING id, title, release_date
`

// CreateMovieParams はCreateMovieの引数。
type CreateMovieParams struct {
	Title       string
	ReleaseDate string
}

// CreateMovie は映画を登録し、登録した行を返す。
func (q *Queries) CreateMovie(ctx context.Context, arg CreateMovieParams) (Movie, error) {
	row := q.db.QueryRowContext(ctx, createMovie, arg.Title, arg.ReleaseDate)
	var i Movie
	err := row.Scan(&i.ID, &i.Title, &i.ReleaseDate)
	return i, err
}

const getMovie = `-- name: GetMovie :one
SELECT id, title, release_date FROM movies
WHERE id = ?
`

func (q *Queries) GetMovie(ctx context.Context, id int64) (Movie, error) {
	row := q.db.QueryRowContext(ctx, getMovie, id)
	var i Movie
	err := row.Scan(&i.ID, &i.Title, &i.ReleaseDate)
	return i, err
}

const listMovies = `-- name: ListMovies :many
SELECT id, title, release_date FROM movies
WHERE title LIKE '%' || ? || '%' ESCAPE '\'
ORDER BY id
LIMIT ? OFFSET ?
`

// ListMoviesParams はListMoviesの引数。
// Searchはタイトルの部分一致条件で、空文字列の場合はすべての映画に一致する。
type ListMoviesParams struct {
	Search string
	Limit  int64
	Offset int64
}

func (q *Queries) ListMovies(ctx context.Context, arg ListMoviesParams) ([]Movie, error) {
	rows, err := q.db.QueryContext(ctx, listMovies, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Movie
	for rows.Next() {
		var i Movie
		if err := rows.Scan(&i.ID, &i.Title, &i.ReleaseDate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countMovies = `-- name: CountMovies :one
SELECT COUNT(*) FROM movies
WHERE title LIKE '%' || ? || '%' ESCAPE '\'
`

func (q *Queries) CountMovies(ctx context.Context, search string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countMovies, search)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateMovie = `-- name: UpdateMovie :one
UPDATE movies
SET title = ?, release_date = ?
WHERE id = ?
RETURNING id, title, release_date
`

// UpdateMovieParams はUpdateMovieの引数。
type UpdateMovieParams struct {
	Title       string
	ReleaseDate string
	ID          int64
}

// UpdateMovie は映画を更新し、更新後の行を返す。
func (q *Queries) UpdateMovie(ctx context.Context, arg UpdateMovieParams) (Movie, error) {
	row := q.db.QueryRowContext(ctx, updateMovie, arg.Title, arg.ReleaseDate, arg.ID)
	var i Movie
	err := row.Scan(&i.ID, &i.Title, &i.ReleaseDate)
	return i, err
}

const deleteMovie = `-- name: DeleteMovie :execrows
DELETE FROM movies WHERE id = ?
`

// DeleteMovie は映画を削除し、削除した行数を返す。
func (q *Queries) DeleteMovie(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMovie, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
