package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/olegiv/oblog-go/internal/store"
)

func newTestPostsHandler(t *testing.T) (*PostsHandler, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	return NewPostsHandler(env.db, env.renderer), env
}

func validPostForm(title string) url.Values {
	return url.Values{
		"title":    {title},
		"subtitle": {"A subtitle"},
		"body":     {"<p>Hello world</p>"},
		"img_url":  {"https://example.com/header.jpg"},
	}
}

func TestCreatePostHandler(t *testing.T) {
	h, env := newTestPostsHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})

	req := requestWithSession(t, env.sm, postForm("/new-post", validPostForm("My First Post")))
	req = requestWithUser(req, store.User{ID: admin.ID, Email: admin.Email, Name: admin.Name, Role: admin.Role})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, "/post/1")

	row, err := store.New(env.db).GetPostByID(req.Context(), 1)
	if err != nil {
		t.Fatalf("created post not found: %v", err)
	}
	if row.Slug != "my-first-post" {
		t.Errorf("Slug = %q, want %q", row.Slug, "my-first-post")
	}
	if row.AuthorID != admin.ID {
		t.Errorf("AuthorID = %d, want %d", row.AuthorID, admin.ID)
	}
	if row.Date == "" {
		t.Error("Date is empty")
	}
}

func TestCreatePostHandler_SanitizesBody(t *testing.T) {
	h, env := newTestPostsHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})

	form := validPostForm("Scripted Post")
	form.Set("body", `<p>fine</p><script>alert(1)</script>`)

	req := requestWithSession(t, env.sm, postForm("/new-post", form))
	req = requestWithUser(req, store.User{ID: admin.ID, Role: admin.Role})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assertStatus(t, rec.Code, http.StatusSeeOther)

	row, err := store.New(env.db).GetPostByID(req.Context(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(row.Body, "<script>") {
		t.Errorf("body kept script tag: %q", row.Body)
	}
	if !strings.Contains(row.Body, "<p>fine</p>") {
		t.Errorf("body lost safe markup: %q", row.Body)
	}
}

func TestCreatePostHandler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(url.Values)
		wantErr string
	}{
		{
			name:    "missing title",
			mutate:  func(v url.Values) { v.Set("title", "") },
			wantErr: "Title is required",
		},
		{
			name:    "missing body",
			mutate:  func(v url.Values) { v.Set("body", "") },
			wantErr: "Body is required",
		},
		{
			name:    "missing image",
			mutate:  func(v url.Values) { v.Set("img_url", "") },
			wantErr: "Header image URL is required",
		},
		{
			name:    "bad image scheme",
			mutate:  func(v url.Values) { v.Set("img_url", "ftp://example.com/x.jpg") },
			wantErr: "must start with http:// or https://",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, env := newTestPostsHandler(t)
			admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})

			form := validPostForm("A Post")
			tt.mutate(form)

			req := requestWithSession(t, env.sm, postForm("/new-post", form))
			req = requestWithUser(req, store.User{ID: admin.ID, Role: admin.Role})
			rec := httptest.NewRecorder()

			h.Create(rec, req)

			assertStatus(t, rec.Code, http.StatusOK)
			if !strings.Contains(rec.Body.String(), tt.wantErr) {
				t.Errorf("body missing error %q:\n%s", tt.wantErr, rec.Body.String())
			}
		})
	}
}

func TestCreatePostHandler_DuplicateTitle(t *testing.T) {
	h, env := newTestPostsHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	createTestPost(t, env.db, "Taken Title", admin.ID)

	req := requestWithSession(t, env.sm, postForm("/new-post", validPostForm("Taken Title")))
	req = requestWithUser(req, store.User{ID: admin.ID, Role: admin.Role})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "A post with this title already exists") {
		t.Errorf("body missing duplicate title error:\n%s", rec.Body.String())
	}
}

func TestCreatePostHandler_SlugCollision(t *testing.T) {
	h, env := newTestPostsHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})

	// "Hello!" and "Hello?" are distinct titles but slugify identically.
	for i, title := range []string{"Hello!", "Hello?"} {
		req := requestWithSession(t, env.sm, postForm("/new-post", validPostForm(title)))
		req = requestWithUser(req, store.User{ID: admin.ID, Role: admin.Role})
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assertStatus(t, rec.Code, http.StatusSeeOther)

		row, err := store.New(env.db).GetPostByID(req.Context(), int64(i+1))
		if err != nil {
			t.Fatalf("post %d not found: %v", i+1, err)
		}
		want := "hello"
		if i == 1 {
			want = "hello-2"
		}
		if row.Slug != want {
			t.Errorf("post %d Slug = %q, want %q", i+1, row.Slug, want)
		}
	}
}

func TestUpdatePostHandler(t *testing.T) {
	h, env := newTestPostsHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	post := createTestPost(t, env.db, "Old Title", admin.ID)

	var originalDate string
	if err := env.db.QueryRow("SELECT date FROM posts WHERE id = ?", post.ID).Scan(&originalDate); err != nil {
		t.Fatal(err)
	}

	req := requestWithSession(t, env.sm, postForm("/edit-post/1", validPostForm("New Title")))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	req = requestWithUser(req, store.User{ID: admin.ID, Role: admin.Role})
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, "/post/1")

	row, err := store.New(env.db).GetPostByID(req.Context(), post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if row.Title != "New Title" {
		t.Errorf("Title = %q, want %q", row.Title, "New Title")
	}
	if row.Slug != "new-title" {
		t.Errorf("Slug = %q, want %q", row.Slug, "new-title")
	}
	// The publication date stays fixed across edits
	if row.Date != originalDate {
		t.Errorf("Date = %q changed, want %q", row.Date, originalDate)
	}
}

func TestUpdatePostHandler_KeepOwnTitle(t *testing.T) {
	h, env := newTestPostsHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	post := createTestPost(t, env.db, "Same Title", admin.ID)

	req := requestWithSession(t, env.sm, postForm("/edit-post/1", validPostForm("Same Title")))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	req = requestWithUser(req, store.User{ID: admin.ID, Role: admin.Role})
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	// Keeping its own title is not a uniqueness conflict
	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, "/post/1")

	row, err := store.New(env.db).GetPostByID(req.Context(), post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if row.Title != "Same Title" {
		t.Errorf("Title = %q, want %q", row.Title, "Same Title")
	}
	// Its own slug is not a collision either, so no suffix appears
	if row.Slug != "same-title" {
		t.Errorf("Slug = %q, want %q", row.Slug, "same-title")
	}
}

func TestEditFormHandler_NotFound(t *testing.T) {
	h, env := newTestPostsHandler(t)

	req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodGet, "/edit-post/99", nil))
	req = requestWithURLParams(req, map[string]string{"id": "99"})
	rec := httptest.NewRecorder()

	h.EditForm(rec, req)

	assertStatus(t, rec.Code, http.StatusNotFound)
}

func TestDeletePostHandler(t *testing.T) {
	h, env := newTestPostsHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	reader := createTestUser(t, env.db, testUser{Email: "bob@example.com", Name: "Bob", Role: store.RoleUser})
	post := createTestPost(t, env.db, "Doomed Post", admin.ID)

	if _, err := env.db.Exec(
		`INSERT INTO comments (text, author_id, post_id) VALUES (?, ?, ?)`,
		"Nice post", reader.ID, post.ID,
	); err != nil {
		t.Fatal(err)
	}

	req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodPost, "/delete/1", nil))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, "/")

	var posts, comments int64
	if err := env.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&posts); err != nil {
		t.Fatal(err)
	}
	if err := env.db.QueryRow("SELECT COUNT(*) FROM comments").Scan(&comments); err != nil {
		t.Fatal(err)
	}
	if posts != 0 {
		t.Errorf("post count = %d, want 0", posts)
	}
	if comments != 0 {
		t.Errorf("comment count = %d after cascade, want 0", comments)
	}
}

func TestDeletePostHandler_NotFound(t *testing.T) {
	h, env := newTestPostsHandler(t)

	req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodPost, "/delete/42", nil))
	req = requestWithURLParams(req, map[string]string{"id": "42"})
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assertStatus(t, rec.Code, http.StatusNotFound)
}

func TestNewFormHandler(t *testing.T) {
	h, env := newTestPostsHandler(t)

	req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodGet, "/new-post", nil))
	rec := httptest.NewRecorder()

	h.NewForm(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "<form>") {
		t.Errorf("body missing form:\n%s", rec.Body.String())
	}
}
