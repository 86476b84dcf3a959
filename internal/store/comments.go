package store

import (
	"context"
	"time"
)

const createComment = `
INSERT INTO comments (text, author_id, post_id, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, text, author_id, post_id, created_at
`

// CreateCommentParams holds the fields for CreateComment.
type CreateCommentParams struct {
	Text      string
	AuthorID  int64
	PostID    int64
	CreatedAt time.Time
}

// CreateComment inserts a new comment and returns the created row.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, createComment,
		arg.Text, arg.AuthorID, arg.PostID, arg.CreatedAt)
	var c Comment
	err := row.Scan(&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.CreatedAt)
	return c, err
}

const listCommentsByPost = `
SELECT c.id, c.text, c.author_id, c.post_id, c.created_at,
       u.name AS author_name, u.email AS author_email
FROM comments c
JOIN users u ON u.id = c.author_id
WHERE c.post_id = ?
ORDER BY c.id ASC
`

// ListCommentsByPostRow is the result shape for ListCommentsByPost.
type ListCommentsByPostRow struct {
	Comment
	AuthorName  string
	AuthorEmail string
}

// ListCommentsByPost returns the comments on a single post, oldest first,
// with each author's display name and email.
func (q *Queries) ListCommentsByPost(ctx context.Context, postID int64) ([]ListCommentsByPostRow, error) {
	rows, err := q.db.QueryContext(ctx, listCommentsByPost, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []ListCommentsByPostRow
	for rows.Next() {
		var c ListCommentsByPostRow
		if err := rows.Scan(&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.CreatedAt,
			&c.AuthorName, &c.AuthorEmail); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

const countCommentsByPost = `SELECT COUNT(*) FROM comments WHERE post_id = ?`

// CountCommentsByPost returns the number of comments on a single post.
func (q *Queries) CountCommentsByPost(ctx context.Context, postID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCommentsByPost, postID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
