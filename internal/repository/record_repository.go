package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/records-service/internal/model"
)

type RecordRepo struct{ DB *sql.DB }

func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{DB: db} }

// RecordPatch lists the mutable record fields.  Nil fields are left unchanged.
type RecordPatch struct {
	Title   *string
	Content *string
}

// Create inserts rec and fills in its ID and CreatedAt.
func (r *RecordRepo) Create(ctx context.Context, rec *model.Record) error {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO records (title, content, author_id, created_at) VALUES (?,?,?,?)",
		rec.Title, rec.Content, rec.AuthorID, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	rec.CreatedAt = now
	return nil
}

// GetByID fetches a single record.  When withAuthor is set the author's
// email and names are joined in.
func (r *RecordRepo) GetByID(ctx context.Context, id uint64, withAuthor bool) (model.RecordWithAuthor, error) {
	if !withAuthor {
		var rec model.Record
		err := r.DB.QueryRowContext(ctx,
			"SELECT id, title, content, author_id, created_at FROM records WHERE id=? LIMIT 1", id).
			Scan(&rec.ID, &rec.Title, &rec.Content, &rec.AuthorID, &rec.CreatedAt)
		if err != nil {
			return model.RecordWithAuthor{}, notFound(err)
		}
		return model.RecordWithAuthor{Record: rec}, nil
	}
	row := r.DB.QueryRowContext(ctx, recordWithAuthorQuery+" WHERE r.id=? LIMIT 1", id)
	rec, err := scanRecordWithAuthor(row)
	return rec, notFound(err)
}

// ListAll returns every record, newest first, with author info.
func (r *RecordRepo) ListAll(ctx context.Context) ([]model.RecordWithAuthor, error) {
	rows, err := r.DB.QueryContext(ctx, recordWithAuthorQuery+" ORDER BY r.created_at DESC, r.id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RecordWithAuthor
	for rows.Next() {
		rec, err := scanRecordWithAuthor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListByAuthor returns the author's records, newest first.
func (r *RecordRepo) ListByAuthor(ctx context.Context, authorID uint64) ([]model.Record, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, title, content, author_id, created_at FROM records WHERE author_id=? ORDER BY created_at DESC, id DESC",
		authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Record
	for rows.Next() {
		var rec model.Record
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Content, &rec.AuthorID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Update applies p to the record.
func (r *RecordRepo) Update(ctx context.Context, id uint64, p RecordPatch) error {
	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets = append(sets, "title=?")
		args = append(args, *p.Title)
	}
	if p.Content != nil {
		sets = append(sets, "content=?")
		args = append(args, *p.Content)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, "UPDATE records SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 when values are unchanged, so confirm existence
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM records WHERE id=?", id).Scan(&one); err != nil {
			return notFound(err)
		}
	}
	return nil
}

// Delete removes a record by id.
func (r *RecordRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM records WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const recordWithAuthorQuery = `SELECT r.id, r.title, r.content, r.author_id, r.created_at,
       u.email, u.first_name, u.last_name
  FROM records r
  JOIN users u ON u.id = r.author_id`

func scanRecordWithAuthor(s scanner) (model.RecordWithAuthor, error) {
	var (
		rec       model.RecordWithAuthor
		email     string
		firstName sql.NullString
		lastName  sql.NullString
	)
	err := s.Scan(&rec.ID, &rec.Title, &rec.Content, &rec.AuthorID, &rec.CreatedAt, &email, &firstName, &lastName)
	if err != nil {
		return model.RecordWithAuthor{}, err
	}
	rec.Author = &model.AuthorInfo{Email: email, FirstName: nullToPtr(firstName), LastName: nullToPtr(lastName)}
	return rec, nil
}
