package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/olegiv/oblog-go/internal/store"
)

func newTestFrontendHandler(t *testing.T) (*FrontendHandler, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	h, err := NewFrontendHandler(env.db, env.renderer, env.sm, testContentFS)
	if err != nil {
		t.Fatalf("failed to create frontend handler: %v", err)
	}
	return h, env
}

func TestHome_ListsPostsInOrder(t *testing.T) {
	h, env := newTestFrontendHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	createTestPost(t, env.db, "First Post", admin.ID)
	createTestPost(t, env.db, "Second Post", admin.ID)

	req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodGet, "/", nil))
	rec := httptest.NewRecorder()

	h.Home(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	body := rec.Body.String()
	first := strings.Index(body, "First Post")
	second := strings.Index(body, "Second Post")
	if first == -1 || second == -1 {
		t.Fatalf("body missing posts:\n%s", body)
	}
	if first > second {
		t.Error("posts not listed in publication order")
	}
}

func TestHome_Empty(t *testing.T) {
	h, env := newTestFrontendHandler(t)

	req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodGet, "/", nil))
	rec := httptest.NewRecorder()

	h.Home(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
}

func TestShowPost_ByID(t *testing.T) {
	h, env := newTestFrontendHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	post := createTestPost(t, env.db, "Visible Post", admin.ID)

	req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodGet, "/post/1", nil))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	h.ShowPost(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), post.Title) {
		t.Errorf("body missing post title:\n%s", rec.Body.String())
	}
}

func TestShowPost_BySlug(t *testing.T) {
	h, env := newTestFrontendHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	post := createTestPost(t, env.db, "Slugged Post", admin.ID)

	req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodGet, "/post/"+post.Slug, nil))
	req = requestWithURLParams(req, map[string]string{"id": post.Slug})
	rec := httptest.NewRecorder()

	h.ShowPost(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), post.Title) {
		t.Errorf("body missing post title:\n%s", rec.Body.String())
	}
}

func TestShowPost_NotFound(t *testing.T) {
	h, env := newTestFrontendHandler(t)

	req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodGet, "/post/99", nil))
	req = requestWithURLParams(req, map[string]string{"id": "99"})
	rec := httptest.NewRecorder()

	h.ShowPost(rec, req)

	assertStatus(t, rec.Code, http.StatusNotFound)
}

func TestShowPost_ScopedComments(t *testing.T) {
	h, env := newTestFrontendHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	reader := createTestUser(t, env.db, testUser{Email: "bob@example.com", Name: "Bob", Role: store.RoleUser})
	first := createTestPost(t, env.db, "First Post", admin.ID)
	second := createTestPost(t, env.db, "Second Post", admin.ID)

	for _, c := range []struct {
		text   string
		postID int64
	}{
		{"on the first post", first.ID},
		{"on the second post", second.ID},
	} {
		if _, err := env.db.Exec(
			`INSERT INTO comments (text, author_id, post_id) VALUES (?, ?, ?)`,
			c.text, reader.ID, c.postID,
		); err != nil {
			t.Fatal(err)
		}
	}

	req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodGet, "/post/1", nil))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	h.ShowPost(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "on the first post") {
		t.Errorf("body missing own comment:\n%s", body)
	}
	if strings.Contains(body, "on the second post") {
		t.Errorf("body leaked another post's comment:\n%s", body)
	}
	if !strings.Contains(body, "by Bob") {
		t.Errorf("body missing comment author name:\n%s", body)
	}
}

func TestAddComment(t *testing.T) {
	h, env := newTestFrontendHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	reader := createTestUser(t, env.db, testUser{Email: "bob@example.com", Name: "Bob", Role: store.RoleUser})
	post := createTestPost(t, env.db, "Open Post", admin.ID)

	req := requestWithSession(t, env.sm, postForm("/post/1", url.Values{"text": {"Great read!"}}))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	env.sm.Put(req.Context(), SessionKeyUserID, reader.ID)
	rec := httptest.NewRecorder()

	h.AddComment(rec, req)

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, "/post/1")

	comments, err := store.New(env.db).ListCommentsByPost(req.Context(), post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 {
		t.Fatalf("comment count = %d, want 1", len(comments))
	}
	if comments[0].Text != "Great read!" {
		t.Errorf("Text = %q, want %q", comments[0].Text, "Great read!")
	}
	if comments[0].AuthorName != "Bob" {
		t.Errorf("AuthorName = %q, want %q", comments[0].AuthorName, "Bob")
	}
}

func TestAddComment_RequiresLogin(t *testing.T) {
	h, env := newTestFrontendHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	createTestPost(t, env.db, "Open Post", admin.ID)

	req := requestWithSession(t, env.sm, postForm("/post/1", url.Values{"text": {"drive-by"}}))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()

	h.AddComment(rec, req)

	assertRedirect(t, rec, rec.Code, http.StatusSeeOther, "/login")

	var count int64
	if err := env.db.QueryRow("SELECT COUNT(*) FROM comments").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("comment count = %d, want 0", count)
	}
}

func TestAddComment_StripsMarkup(t *testing.T) {
	h, env := newTestFrontendHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	reader := createTestUser(t, env.db, testUser{Email: "bob@example.com", Name: "Bob", Role: store.RoleUser})
	post := createTestPost(t, env.db, "Open Post", admin.ID)

	req := requestWithSession(t, env.sm, postForm("/post/1", url.Values{
		"text": {`hi <script>alert(1)</script><b>there</b>`},
	}))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	env.sm.Put(req.Context(), SessionKeyUserID, reader.ID)
	rec := httptest.NewRecorder()

	h.AddComment(rec, req)

	assertStatus(t, rec.Code, http.StatusSeeOther)

	comments, err := store.New(env.db).ListCommentsByPost(req.Context(), post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 {
		t.Fatalf("comment count = %d, want 1", len(comments))
	}
	if strings.Contains(comments[0].Text, "<") {
		t.Errorf("comment kept markup: %q", comments[0].Text)
	}
}

func TestAddComment_TooLong(t *testing.T) {
	h, env := newTestFrontendHandler(t)
	admin := createTestUser(t, env.db, testUser{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin})
	reader := createTestUser(t, env.db, testUser{Email: "bob@example.com", Name: "Bob", Role: store.RoleUser})
	createTestPost(t, env.db, "Open Post", admin.ID)

	req := requestWithSession(t, env.sm, postForm("/post/1", url.Values{
		"text": {strings.Repeat("x", MaxCommentLength+1)},
	}))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	env.sm.Put(req.Context(), SessionKeyUserID, reader.ID)
	rec := httptest.NewRecorder()

	h.AddComment(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "limited to") {
		t.Errorf("body missing length error:\n%s", rec.Body.String())
	}

	var count int64
	if err := env.db.QueryRow("SELECT COUNT(*) FROM comments").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("comment count = %d, want 0", count)
	}
}

func TestAboutAndContact(t *testing.T) {
	h, env := newTestFrontendHandler(t)

	for _, tt := range []struct {
		path    string
		handler http.HandlerFunc
		want    string
	}{
		{"/about", h.About, "A blog."},
		{"/contact", h.Contact, "Write to us."},
	} {
		req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodGet, tt.path, nil))
		rec := httptest.NewRecorder()

		tt.handler(rec, req)

		assertStatus(t, rec.Code, http.StatusOK)
		if !strings.Contains(rec.Body.String(), tt.want) {
			t.Errorf("%s body missing %q:\n%s", tt.path, tt.want, rec.Body.String())
		}
	}
}

func TestNotFoundHandler(t *testing.T) {
	h, env := newTestFrontendHandler(t)

	req := requestWithSession(t, env.sm, httptest.NewRequest(http.MethodGet, "/nope", nil))
	rec := httptest.NewRecorder()

	h.NotFound(rec, req)

	assertStatus(t, rec.Code, http.StatusNotFound)
	if !strings.Contains(rec.Body.String(), "Page Not Found") {
		t.Errorf("body missing 404 page:\n%s", rec.Body.String())
	}
}
