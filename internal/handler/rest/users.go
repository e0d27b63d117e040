package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/gate"
	"github.com/carrec/platform/internal/service"
	"github.com/go-chi/chi/v5"
)

const userNotFound = "User not found"

type tokenBody struct {
	Token string `json:"token"`
}

type UserHandler struct {
	users       service.Userer
	postsGate   *gate.Gate
	processGate *gate.Gate
	errorMapper
}

func NewUserHandler(cfg *config.Config, users service.Userer, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:       users,
		postsGate:   gate.New("user_posts", cfg.Gate.UserPosts),
		processGate: gate.New("process", cfg.Gate.Process),
		errorMapper: errorMapper{logger: logger.With("component", "rest")},
	}
}

func (h *UserHandler) Routes(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser(h.users, h.errorMapper))
			r.Get("/me", h.me)
			r.Put("/me", h.updateMe)
		})

		r.Get("/{userID}", h.get)
		r.Post("/{userID}/posts", h.createPost)
		r.With(h.postsGate.Middleware).Get("/{userID}/posts", h.posts)
	})
	r.With(h.processGate.Middleware).Get("/process", h.process)
}

func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	var in model.UserCreate
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	u, err := h.users.Register(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	var in model.UserLogin
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	token, err := h.users.Login(r.Context(), in)
	if errors.Is(err, model.ErrUnauthorized) {
		writeDetail(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	if err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tokenBody{Token: token})
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())
	var in model.UserUpdate
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	if _, err := h.users.UpdateUser(r.Context(), u.ID, in); err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Profile updated successfully"})
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	u, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) createPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	var in model.PostInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	p, err := h.users.CreatePost(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *UserHandler) posts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	up, err := h.users.UserPosts(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, userNotFound)
		return
	}
	if up.Posts == nil {
		up.Posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, up)
}

func (h *UserHandler) process(w http.ResponseWriter, r *http.Request) {
	msg, err := h.users.Process(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msg})
}
