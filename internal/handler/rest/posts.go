package rest

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/gate"
	"github.com/carrec/platform/internal/service"
	"github.com/go-chi/chi/v5"
)

const postNotFound = "Post not found"

type PostHandler struct {
	posts    service.Poster
	listGate *gate.Gate
	errorMapper
}

func NewPostHandler(cfg *config.Config, posts service.Poster, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		posts:       posts,
		listGate:    gate.New("list_posts", cfg.Gate.ListPosts),
		errorMapper: errorMapper{logger: logger.With("component", "rest")},
	}
}

func (h *PostHandler) Routes(r chi.Router) {
	r.Route("/api/posts", func(r chi.Router) {
		r.Post("/", h.create)
		r.With(h.listGate.Middleware).Get("/", h.list)
		r.Get("/{postID}", h.get)
		r.Put("/{postID}", h.update)
		r.Delete("/{postID}", h.delete)
		r.Get("/{postID}/comments", h.comments)
	})
}

func (h *PostHandler) create(w http.ResponseWriter, r *http.Request) {
	var in model.PostInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	p, err := h.posts.CreatePost(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PostHandler) list(w http.ResponseWriter, r *http.Request) {
	var f model.PostFilter
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.fail(w, r, &model.ValidationError{Field: "user_id", Reason: "must be a positive integer"}, postNotFound)
			return
		}
		f.UserID = id
	}

	posts, err := h.posts.ListPosts(r.Context(), f)
	if err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "postID")
	if err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	p, err := h.posts.GetPost(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PostHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "postID")
	if err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	var in model.PostInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	if _, err := h.posts.UpdatePost(r.Context(), id, in); err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Post updated successfully"})
}

func (h *PostHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "postID")
	if err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	if err := h.posts.DeletePost(r.Context(), id); err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Post deleted successfully"})
}

func (h *PostHandler) comments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "postID")
	if err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	comments, err := h.posts.ListComments(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, postNotFound)
		return
	}
	if comments == nil {
		comments = []model.PersistedComment{}
	}
	writeJSON(w, http.StatusOK, comments)
}
