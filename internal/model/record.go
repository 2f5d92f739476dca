package model

import "time"

// Record mirrors a row in the `records` table.  A record is owned by the
// user that created it (AuthorID).
type Record struct {
	ID        uint64    // records.id
	Title     string    // records.title
	Content   string    // records.content
	AuthorID  uint64    // records.author_id (references users.id)
	CreatedAt time.Time // records.created_at
}

// AuthorInfo is the subset of user columns joined onto records for admins.
type AuthorInfo struct {
	Email     string
	FirstName *string
	LastName  *string
}

// RecordWithAuthor is a record optionally carrying its author's public
// profile.  Author is nil when the join was not requested.
type RecordWithAuthor struct {
	Record
	Author *AuthorInfo
}
