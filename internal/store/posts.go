package store

import (
	"context"
	"time"
)

const createPost = `
INSERT INTO posts (title, subtitle, slug, date, body, img_url, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, title, subtitle, slug, date, body, img_url, author_id, created_at, updated_at
`

// CreatePostParams holds the fields for CreatePost.
type CreatePostParams struct {
	Title     string
	Subtitle  string
	Slug      string
	Date      string
	Body      string
	ImgURL    string
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePost inserts a new post and returns the created row.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.Title, arg.Subtitle, arg.Slug, arg.Date, arg.Body, arg.ImgURL,
		arg.AuthorID, arg.CreatedAt, arg.UpdatedAt)
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Slug, &p.Date, &p.Body,
		&p.ImgURL, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getPostByID = `
SELECT p.id, p.title, p.subtitle, p.slug, p.date, p.body, p.img_url, p.author_id,
       p.created_at, p.updated_at, u.name AS author_name
FROM posts p
JOIN users u ON u.id = p.author_id
WHERE p.id = ?
`

// GetPostByIDRow is the result shape for GetPostByID.
type GetPostByIDRow struct {
	Post
	AuthorName string
}

// GetPostByID fetches a post with its author's display name.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (GetPostByIDRow, error) {
	row := q.db.QueryRowContext(ctx, getPostByID, id)
	var p GetPostByIDRow
	err := row.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Slug, &p.Date, &p.Body,
		&p.ImgURL, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt, &p.AuthorName)
	return p, err
}

const getPostBySlug = `
SELECT p.id, p.title, p.subtitle, p.slug, p.date, p.body, p.img_url, p.author_id,
       p.created_at, p.updated_at, u.name AS author_name
FROM posts p
JOIN users u ON u.id = p.author_id
WHERE p.slug = ?
`

// GetPostBySlug fetches a post by its URL slug.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (GetPostByIDRow, error) {
	row := q.db.QueryRowContext(ctx, getPostBySlug, slug)
	var p GetPostByIDRow
	err := row.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Slug, &p.Date, &p.Body,
		&p.ImgURL, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt, &p.AuthorName)
	return p, err
}

const listPosts = `
SELECT p.id, p.title, p.subtitle, p.slug, p.date, p.body, p.img_url, p.author_id,
       p.created_at, p.updated_at, u.name AS author_name
FROM posts p
JOIN users u ON u.id = p.author_id
ORDER BY p.id ASC
`

// ListPostsRow is the result shape for ListPosts.
type ListPostsRow struct {
	Post
	AuthorName string
}

// ListPosts returns all posts in insertion order (id ascending).
func (q *Queries) ListPosts(ctx context.Context) ([]ListPostsRow, error) {
	rows, err := q.db.QueryContext(ctx, listPosts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []ListPostsRow
	for rows.Next() {
		var p ListPostsRow
		if err := rows.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Slug, &p.Date, &p.Body,
			&p.ImgURL, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt, &p.AuthorName); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

const countPosts = `SELECT COUNT(*) FROM posts`

// CountPosts returns the total number of posts.
func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPosts)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updatePost = `
UPDATE posts
SET title = ?, subtitle = ?, slug = ?, body = ?, img_url = ?, author_id = ?, updated_at = ?
WHERE id = ?
RETURNING id, title, subtitle, slug, date, body, img_url, author_id, created_at, updated_at
`

// UpdatePostParams holds the fields for UpdatePost. The date column is
// deliberately absent: it is fixed at creation time.
type UpdatePostParams struct {
	ID        int64
	Title     string
	Subtitle  string
	Slug      string
	Body      string
	ImgURL    string
	AuthorID  int64
	UpdatedAt time.Time
}

// UpdatePost overwrites a post's editable fields and returns the updated row.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, updatePost,
		arg.Title, arg.Subtitle, arg.Slug, arg.Body, arg.ImgURL,
		arg.AuthorID, arg.UpdatedAt, arg.ID)
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Slug, &p.Date, &p.Body,
		&p.ImgURL, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const deletePost = `DELETE FROM posts WHERE id = ?`

// DeletePost removes a post. Its comments are removed by the
// ON DELETE CASCADE foreign key constraint.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}

const titleExists = `SELECT COUNT(*) FROM posts WHERE title = ?`

// TitleExists returns the number of posts with the given title.
func (q *Queries) TitleExists(ctx context.Context, title string) (int64, error) {
	row := q.db.QueryRowContext(ctx, titleExists, title)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const titleExistsExcluding = `SELECT COUNT(*) FROM posts WHERE title = ? AND id != ?`

// TitleExistsExcludingParams holds the fields for TitleExistsExcluding.
type TitleExistsExcludingParams struct {
	Title string
	ID    int64
}

// TitleExistsExcluding returns the number of posts other than the given one
// that carry the given title.
func (q *Queries) TitleExistsExcluding(ctx context.Context, arg TitleExistsExcludingParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, titleExistsExcluding, arg.Title, arg.ID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const slugExists = `SELECT COUNT(*) FROM posts WHERE slug = ?`

// SlugExists returns the number of posts with the given slug.
func (q *Queries) SlugExists(ctx context.Context, slug string) (int64, error) {
	row := q.db.QueryRowContext(ctx, slugExists, slug)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const slugExistsExcluding = `SELECT COUNT(*) FROM posts WHERE slug = ? AND id != ?`

// SlugExistsExcludingParams holds the fields for SlugExistsExcluding.
type SlugExistsExcludingParams struct {
	Slug string
	ID   int64
}

// SlugExistsExcluding returns the number of posts other than the given one
// that carry the given slug.
func (q *Queries) SlugExistsExcluding(ctx context.Context, arg SlugExistsExcludingParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, slugExistsExcluding, arg.Slug, arg.ID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
