// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
)

// FrontendHandler handles the public reading routes.
type FrontendHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager

	aboutHTML   template.HTML
	contactHTML template.HTML
}

// NewFrontendHandler creates a new FrontendHandler. contentFS holds the
// markdown sources for the static pages, rendered once here.
func NewFrontendHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, contentFS fs.FS) (*FrontendHandler, error) {
	h := &FrontendHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}

	var err error
	if h.aboutHTML, err = renderContentPage(contentFS, "about.md"); err != nil {
		return nil, err
	}
	if h.contactHTML, err = renderContentPage(contentFS, "contact.md"); err != nil {
		return nil, err
	}

	return h, nil
}

func renderContentPage(contentFS fs.FS, name string) (template.HTML, error) {
	raw, err := fs.ReadFile(contentFS, name)
	if err != nil {
		return "", fmt.Errorf("read content page %s: %w", name, err)
	}
	html, err := service.RenderMarkdown(raw)
	if err != nil {
		return "", fmt.Errorf("render content page %s: %w", name, err)
	}
	return html, nil
}

// HomePageData holds data for the home template.
type HomePageData struct {
	Posts []store.ListPostsRow
}

// Home handles GET / - lists all posts in publication order.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queries.ListPosts(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	renderOrInternalError(w, r, h.renderer, "home", render.TemplateData{
		Data: HomePageData{Posts: posts},
	})
}

// PostPageData holds data for the single post template.
type PostPageData struct {
	Post     store.GetPostByIDRow
	Comments []store.ListCommentsByPostRow
	Errors   map[string]string
	Draft    string
}

// ShowPost handles GET /post/{id}. The parameter is normally the numeric
// post id. A slug is accepted too so older links keep working.
func (h *FrontendHandler) ShowPost(w http.ResponseWriter, r *http.Request) {
	row, ok := h.lookupPost(w, r)
	if !ok {
		return
	}
	h.renderPost(w, r, row, nil, "")
}

// AddComment handles POST /post/{id} - the comment form submission.
func (h *FrontendHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	row, ok := h.lookupPost(w, r)
	if !ok {
		return
	}

	postURL := "/post/" + strconv.FormatInt(row.ID, 10)

	userID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID)
	if userID == 0 {
		flashError(w, r, h.renderer, RouteLogin, "Please log in to comment.")
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, postURL, "Invalid form data")
		return
	}

	text := strings.TrimSpace(r.FormValue("text"))

	formErrors := make(map[string]string)
	if text == "" {
		formErrors["text"] = "Comment text is required"
	} else if utf8.RuneCountInString(text) > MaxCommentLength {
		formErrors["text"] = fmt.Sprintf("Comments are limited to %d characters", MaxCommentLength)
	}

	if len(formErrors) > 0 {
		h.renderPost(w, r, row, formErrors, text)
		return
	}

	comment, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		Text:      service.SanitizeText(text),
		AuthorID:  userID,
		PostID:    row.ID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create comment", "error", err)
		return
	}

	slog.Info("comment added", "comment_id", comment.ID, "post_id", row.ID, "author_id", userID)

	flashSuccess(w, r, h.renderer, postURL, "Comment added.")
}

func (h *FrontendHandler) renderPost(w http.ResponseWriter, r *http.Request, row store.GetPostByIDRow, formErrors map[string]string, draft string) {
	comments, err := h.queries.ListCommentsByPost(r.Context(), row.ID)
	if err != nil {
		logAndInternalError(w, "failed to list comments", "error", err, "post_id", row.ID)
		return
	}

	if formErrors == nil {
		formErrors = make(map[string]string)
	}

	renderOrInternalError(w, r, h.renderer, "post", render.TemplateData{
		Title: row.Title,
		Data: PostPageData{
			Post:     row,
			Comments: comments,
			Errors:   formErrors,
			Draft:    draft,
		},
	})
}

// lookupPost resolves the {id} URL parameter to a post, trying the slug
// when it is not numeric. Writes the 404 page on a miss.
func (h *FrontendHandler) lookupPost(w http.ResponseWriter, r *http.Request) (store.GetPostByIDRow, bool) {
	param := chi.URLParam(r, "id")

	var (
		row store.GetPostByIDRow
		err error
	)
	if id, parseErr := strconv.ParseInt(param, 10, 64); parseErr == nil {
		row, err = h.queries.GetPostByID(r.Context(), id)
	} else if util.IsValidSlug(param) {
		row, err = h.queries.GetPostBySlug(r.Context(), param)
	} else {
		renderNotFound(w, r, h.renderer)
		return store.GetPostByIDRow{}, false
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			renderNotFound(w, r, h.renderer)
		} else {
			logAndInternalError(w, "failed to fetch post", "error", err, "param", param)
		}
		return store.GetPostByIDRow{}, false
	}

	return row, true
}

// PageData holds data for the static page template.
type PageData struct {
	Heading string
	Content template.HTML
}

// About handles GET /about.
func (h *FrontendHandler) About(w http.ResponseWriter, r *http.Request) {
	renderOrInternalError(w, r, h.renderer, "page", render.TemplateData{
		Title: "About",
		Data:  PageData{Heading: "About", Content: h.aboutHTML},
	})
}

// Contact handles GET /contact.
func (h *FrontendHandler) Contact(w http.ResponseWriter, r *http.Request) {
	renderOrInternalError(w, r, h.renderer, "page", render.TemplateData{
		Title: "Contact", Data: PageData{Heading: "Contact", Content: h.contactHTML},
	})
}

// NotFound handles unmatched routes.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderNotFound(w, r, h.renderer)
}

// renderNotFound writes the 404 page.
func renderNotFound(w http.ResponseWriter, r *http.Request, renderer *render.Renderer) {
	err := renderer.RenderStatus(w, r, "404", http.StatusNotFound, render.TemplateData{Title: "Page Not Found"})
	if err != nil {
		slog.Error("render error", "error", err, "template", "404")
		http.Error(w, "Page not found", http.StatusNotFound)
	}
}
