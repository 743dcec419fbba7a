package db

import (
	"context"
)

const createActor = `-- name: CreateActor :one
INSERT INTO actors (name, age, gender)
VALUES (?, ?, ?)
RETURNING id, name, age, gender
`

// CreateActorParams はCreateActorの引数。
type CreateActorParams struct {
	Name   string
	Age    int64
	Gender string
}

// CreateActor は俳優を登録し、登録した行を返す。
func (q *Queries) CreateActor(ctx context.Context, arg CreateActorParams) (Actor, error) {
	row := q.db.QueryRowContext(ctx, createActor, arg.Name, arg.Age, arg.Gender)
	var i Actor
	err := row.Scan(&i.ID, &i.Name, &i.Age, &i.Gender)
	return i, err
}

const getActor = `-- name: GetActor :one
SELECT id, name, age, gender FROM actors
WHERE id = ?
`

func (q *Queries) GetActor(ctx context.Context, id int64) (Actor, error) {
	row := q.db.QueryRowContext(ctx, getActor, id)
	var i Actor
	err := row.Scan(&i.ID, &i.Name, &i.Age, &i.Gender)
	return i, err
}

const listActors = `-- name: ListActors :many
SELECT id, name, age, gender FROM actors
ORDER BY id
LIMIT ? OFFSET ?
`

// ListActorsParams はListActorsの引数。
type ListActorsParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListActors(ctx context.Context, arg ListActorsParams) ([]Actor, error) {
	rows, err := q.db.QueryContext(ctx, listActors, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Actor
	for rows.Next() {
		var i Actor
		if err := rows.Scan(&i.ID, &i.Name, &i.Age, &i.Gender); err != nil {
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

const countActors = `-- name: CountActors :one
SELECT COUNT(*) FROM actors
`

func (q *Queries) CountActors(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countActors)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateActor = `-- name: UpdateActor :one
UPDATE actors
SET name = ?, age = ?, gender = ?
WHERE id = ?
RETURNING id, name, age, gender
`

// UpdateActorParams はUpdateActorの引数。
type UpdateActorParams struct {
	Name   string
	Age    int64
	Gender string
	ID     int64
}

// UpdateActor は俳優を更新し、更新後の行を返す。
func (q *Queries) UpdateActor(ctx context.Context, arg UpdateActorParams) (Actor, error) {
	row := q.db.QueryRowContext(ctx, updateActor, arg.Name, arg.Age, arg.Gender, arg.ID)
	var i Actor
	err := row.Scan(&i.ID, &i.Name, &i.Age, &i.Gender)
	return i, err
}

const deleteActor = `-- name: DeleteActor :execrows
DELETE FROM actors WHERE id = ?
`

// DeleteActor は俳優を削除し、削除した行数を返す。
func (q *Queries) DeleteActor(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteActor, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
