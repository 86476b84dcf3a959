package handler

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
)

// testDB creates an in-memory SQLite database with the required schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME
		);
		CREATE INDEX idx_users_email ON users(email);

		CREATE TABLE posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL UNIQUE,
			subtitle TEXT NOT NULL DEFAULT '',
			slug TEXT NOT NULL,
			date TEXT NOT NULL,
			body TEXT NOT NULL,
			img_url TEXT NOT NULL DEFAULT '',
			author_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (author_id) REFERENCES users(id)
		);
		CREATE UNIQUE INDEX idx_posts_slug ON posts(slug);

		CREATE TABLE comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			author_id INTEGER NOT NULL,
			post_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (author_id) REFERENCES users(id),
			FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE
		);
		CREATE INDEX idx_comments_post_id ON comments(post_id);

		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// testTemplates is a minimal template set covering every page the
// handlers render. Each page dumps enough of its data to assert on.
var testTemplates = fstest.MapFS{
	"layouts/base.html": &fstest.MapFile{Data: []byte(
		`{{define "base"}}<title>{{.Title}}</title>{{if .Flash}}<div class="flash">{{.Flash}}</div>{{end}}{{template "content" .}}{{end}}`)},
	"pages/home.html": &fstest.MapFile{Data: []byte(
		`{{define "content"}}{{range .Data.Posts}}<h2>{{.Title}}</h2>{{end}}{{end}}`)},
	"pages/post.html": &fstest.MapFile{Data: []byte(
		`{{define "content"}}<h1>{{.Data.Post.Title}}</h1>{{range .Data.Comments}}<p class="comment">{{.Text}} by {{.AuthorName}}</p>{{end}}{{range $k, $v := .Data.Errors}}<span class="error">{{$v}}</span>{{end}}{{end}}`)},
	"pages/post_form.html": &fstest.MapFile{Data: []byte(
		`{{define "content"}}<form>{{.Data.FormValues.title}}</form>{{range $k, $v := .Data.Errors}}<span class="error">{{$v}}</span>{{end}}{{end}}`)},
	"pages/register.html": &fstest.MapFile{Data: []byte(
		`{{define "content"}}<form id="register">{{.Data.FormValues.email}}</form>{{range $k, $v := .Data.Errors}}<span class="error">{{$v}}</span>{{end}}{{end}}`)},
	"pages/login.html": &fstest.MapFile{Data: []byte(
		`{{define "content"}}<form id="login"></form>{{end}}`)},
	"pages/page.html": &fstest.MapFile{Data: []byte(
		`{{define "content"}}<h1>{{.Data.Heading}}</h1>{{.Data.Content}}{{end}}`)},
	"pages/404.html": &fstest.MapFile{Data: []byte(
		`{{define "content"}}<h1>Page Not Found</h1>{{end}}`)},
}

// testContentFS holds markdown sources for the static pages.
var testContentFS = fstest.MapFS{
	"about.md":   &fstest.MapFile{Data: []byte("# About\n\nA blog.\n")},
	"contact.md": &fstest.MapFile{Data: []byte("# Contact\n\nWrite to us.\n")},
}

// testRenderer creates a renderer over the minimal template set.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	r, err := render.New(render.Config{
		TemplatesFS:    testTemplates,
		SessionManager: sm,
		SiteName:       "Test Blog",
	})
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	return r
}

// testEnv bundles the pieces every handler needs.
type testEnv struct {
	db       *sql.DB
	sm       *scs.SessionManager
	renderer *render.Renderer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testDB(t)
	sm := testSessionManager(t)
	return &testEnv{db: db, sm: sm, renderer: testRenderer(t, sm)}
}

// testUser describes a user row to insert.
type testUser struct {
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// createTestUser inserts a user row directly.
func createTestUser(t *testing.T, db *sql.DB, user testUser) store.User {
	t.Helper()

	if user.PasswordHash == "" {
		user.PasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$c29tZXNhbHQ$RdescudvJCsgt3ub+b+dWRWJTmaaJObG"
	}

	now := time.Now()
	result, err := db.Exec(
		`INSERT INTO users (email, password_hash, role, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.Role, user.Name, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.User{
		ID:           id,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		Name:         user.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// createTestPost inserts a post row directly.
func createTestPost(t *testing.T, db *sql.DB, title string, authorID int64) store.Post {
	t.Helper()

	now := time.Now()
	slug := util.Slugify(title)
	result, err := db.Exec(
		`INSERT INTO posts (title, subtitle, slug, date, body, img_url, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		title, "A subtitle", slug, now.Format(postDateFormat),
		"<p>Body</p>", "https://example.com/img.jpg", authorID, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.Post{
		ID:       id,
		Title:    title,
		Slug:     slug,
		AuthorID: authorID,
	}
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithUser places a user in the request context the way the
// user-loading middleware does.
func requestWithUser(r *http.Request, user store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, user))
}

// requestWithSession wraps a request with session context.
func requestWithSession(t *testing.T, sm *scs.SessionManager, r *http.Request) *http.Request {
	t.Helper()
	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	return r.WithContext(ctx)
}

// assertStatus checks the response status code.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertRedirect checks for a redirect to the given location.
func assertRedirect(t *testing.T, rec interface {
	Header() http.Header
}, statusGot, statusWant int, location string) {
	t.Helper()
	assertStatus(t, statusGot, statusWant)
	if got := rec.Header().Get("Location"); got != location {
		t.Errorf("Location = %q; want %q", got, location)
	}
}
