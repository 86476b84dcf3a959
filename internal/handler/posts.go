// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
)

// PostsHandler handles post authoring routes. All of them sit behind the
// administrator guard in the router.
type PostsHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewPostsHandler creates a new PostsHandler.
func NewPostsHandler(db *sql.DB, renderer *render.Renderer) *PostsHandler {
	return &PostsHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// PostFormData holds data for the post form template.
type PostFormData struct {
	Post       *store.Post
	Errors     map[string]string
	FormValues map[string]string
	IsEdit     bool
}

// NewForm handles GET /new-post - displays the post creation form.
func (h *PostsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	data := PostFormData{
		Errors:     make(map[string]string),
		FormValues: make(map[string]string),
	}

	renderOrInternalError(w, r, h.renderer, "post_form", render.TemplateData{
		Title: "New Post",
		Data:  data,
	})
}

// Create handles POST /new-post.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, RouteNewPost, "Invalid form data")
		return
	}

	formValues, formErrors := h.validatePostForm(r, 0)

	if len(formErrors) > 0 {
		data := PostFormData{
			Errors:     formErrors,
			FormValues: formValues,
		}
		renderOrInternalError(w, r, h.renderer, "post_form", render.TemplateData{
			Title: "New Post",
			Data:  data,
		})
		return
	}

	user := middleware.GetUser(r)
	if user == nil {
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	slug, err := h.uniqueSlug(r.Context(), formValues["title"], 0)
	if err != nil {
		logAndInternalError(w, "failed to derive post slug", "error", err)
		return
	}

	now := time.Now()
	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:     formValues["title"],
		Subtitle:  formValues["subtitle"],
		Slug:      slug,
		Date:      now.Format(postDateFormat),
		Body:      service.SanitizeHTML(formValues["body"]),
		ImgURL:    formValues["img_url"],
		AuthorID:  user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		logAndInternalError(w, "failed to create post", "error", err)
		return
	}

	slog.Info("post created", "post_id", post.ID, "title", post.Title, "author_id", user.ID)

	flashSuccess(w, r, h.renderer, "/post/"+strconv.FormatInt(post.ID, 10), "Post published.")
}

// EditForm handles GET /edit-post/{id} - displays the edit form pre-filled.
func (h *PostsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	row, ok := h.requirePost(w, r)
	if !ok {
		return
	}

	data := PostFormData{
		Post:   &row.Post,
		Errors: make(map[string]string),
		FormValues: map[string]string{
			"title":    row.Title,
			"subtitle": row.Subtitle,
			"body":     row.Body,
			"img_url":  row.ImgURL,
		},
		IsEdit: true,
	}

	renderOrInternalError(w, r, h.renderer, "post_form", render.TemplateData{
		Title: "Edit Post",
		Data:  data,
	})
}

// Update handles POST /edit-post/{id}.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	row, ok := h.requirePost(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, "/edit-post/"+strconv.FormatInt(row.ID, 10), "Invalid form data")
		return
	}

	formValues, formErrors := h.validatePostForm(r, row.ID)

	if len(formErrors) > 0 {
		data := PostFormData{
			Post:       &row.Post,
			Errors:     formErrors,
			FormValues: formValues,
			IsEdit:     true,
		}
		renderOrInternalError(w, r, h.renderer, "post_form", render.TemplateData{
			Title: "Edit Post",
			Data:  data,
		})
		return
	}

	user := middleware.GetUser(r)
	if user == nil {
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	slug, err := h.uniqueSlug(r.Context(), formValues["title"], row.ID)
	if err != nil {
		logAndInternalError(w, "failed to derive post slug", "error", err)
		return
	}

	// The editor becomes the post author. The original publication
	// date is kept.
	updated, err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		ID:        row.ID,
		Title:     formValues["title"],
		Subtitle:  formValues["subtitle"],
		Slug:      slug,
		Body:      service.SanitizeHTML(formValues["body"]),
		ImgURL:    formValues["img_url"],
		AuthorID:  user.ID,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to update post", "error", err)
		return
	}

	slog.Info("post updated", "post_id", updated.ID, "editor_id", user.ID)

	flashSuccess(w, r, h.renderer, "/post/"+strconv.FormatInt(updated.ID, 10), "Post updated.")
}

// Delete handles GET and POST /delete/{id}. Comments go with the post
// through the foreign key cascade.
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	row, ok := h.requirePost(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeletePost(r.Context(), row.ID); err != nil {
		logAndInternalError(w, "failed to delete post", "error", err)
		return
	}

	slog.Info("post deleted", "post_id", row.ID, "title", row.Title)

	flashSuccess(w, r, h.renderer, RouteRoot, "Post deleted.")
}

// uniqueSlug derives a URL slug from the title, appending a numeric
// suffix when another post already holds it. Different titles can
// slugify to the same string ("Hello!" and "Hello?" both become
// "hello"), and the slug column carries a unique index. excludeID is
// the post being edited, or 0 on creation, so a post keeping its own
// slug is not counted as a collision.
func (h *PostsHandler) uniqueSlug(ctx context.Context, title string, excludeID int64) (string, error) {
	base := util.Slugify(title)
	slug := base
	for n := 2; ; n++ {
		var (
			count int64
			err   error
		)
		if excludeID > 0 {
			count, err = h.queries.SlugExistsExcluding(ctx, store.SlugExistsExcludingParams{
				Slug: slug,
				ID:   excludeID,
			})
		} else {
			count, err = h.queries.SlugExists(ctx, slug)
		}
		if err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}

// requirePost fetches the post named by the {id} URL parameter, writing a
// 404 page when it does not exist.
func (h *PostsHandler) requirePost(w http.ResponseWriter, r *http.Request) (store.GetPostByIDRow, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		renderNotFound(w, r, h.renderer)
		return store.GetPostByIDRow{}, false
	}

	row, err := h.queries.GetPostByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			renderNotFound(w, r, h.renderer)
		} else {
			logAndInternalError(w, "failed to fetch post", "error", err, "post_id", id)
		}
		return store.GetPostByIDRow{}, false
	}

	return row, true
}

// validatePostForm checks the post form fields. excludeID is the post
// being edited, or 0 on creation, so a post keeping its own title does
// not trip the uniqueness check.
func (h *PostsHandler) validatePostForm(r *http.Request, excludeID int64) (map[string]string, map[string]string) {
	title := strings.TrimSpace(r.FormValue("title"))
	subtitle := strings.TrimSpace(r.FormValue("subtitle"))
	body := strings.TrimSpace(r.FormValue("body"))
	imgURL := strings.TrimSpace(r.FormValue("img_url"))

	formValues := map[string]string{
		"title":    title,
		"subtitle": subtitle,
		"body":     body,
		"img_url":  imgURL,
	}

	formErrors := make(map[string]string)

	if title == "" {
		formErrors["title"] = "Title is required"
	} else if len(title) < 2 {
		formErrors["title"] = "Title must be at least 2 characters"
	}

	if body == "" {
		formErrors["body"] = "Body is required"
	}

	if imgURL == "" {
		formErrors["img_url"] = "Header image URL is required"
	} else if !strings.HasPrefix(imgURL, "http://") && !strings.HasPrefix(imgURL, "https://") {
		formErrors["img_url"] = "Header image URL must start with http:// or https://"
	}

	if formErrors["title"] == "" {
		var (
			count int64
			err   error
		)
		if excludeID > 0 {
			count, err = h.queries.TitleExistsExcluding(r.Context(), store.TitleExistsExcludingParams{
				Title: title,
				ID:    excludeID,
			})
		} else {
			count, err = h.queries.TitleExists(r.Context(), title)
		}
		if err != nil {
			slog.Error("database error checking title", "error", err)
		} else if count > 0 {
			formErrors["title"] = "A post with this title already exists"
		}
	}

	return formValues, formErrors
}
