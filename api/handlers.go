package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/devblog/postsapi"
	"github.com/devblog/postsapi/post"
)

// MessageResponse is returned by endpoints that have no resource to answer with.
type MessageResponse struct {
	Msg string `json:"msg"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type handlers struct {
	posts     post.Store
	logger    postsapi.LoggerAdapter
	readLimit int64
}

func (h handlers) Health(w http.ResponseWriter, r *http.Request) error {
	render.JSON(w, r, HealthResponse{Status: "ok"})
	return nil
}

func (h handlers) Search(w http.ResponseWriter, r *http.Request) error {
	posts, err := h.posts.Search(r.Context(), r.URL.Query().Get("text"))
	if err != nil {
		return err
	}

	renderPosts(w, r, posts)
	return nil
}

func (h handlers) List(w http.ResponseWriter, r *http.Request) error {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		return err
	}

	renderPosts(w, r, posts)
	return nil
}

func (h handlers) Create(w http.ResponseWriter, r *http.Request) error {
	p, err := h.decodePost(w, r)
	if err != nil {
		return err
	}

	created, err := h.posts.Create(r.Context(), p)
	if err != nil {
		return err
	}

	render.JSON(w, r, created)
	return nil
}

func (h handlers) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := post.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	p, err := h.posts.Get(r.Context(), id)
	if err != nil {
		return err
	}

	render.JSON(w, r, p)
	return nil
}

func (h handlers) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := post.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	p, err := h.decodePost(w, r)
	if err != nil {
		return err
	}

	updated, err := h.posts.Update(r.Context(), id, p)
	if err != nil {
		return err
	}

	render.JSON(w, r, updated)
	return nil
}

func (h handlers) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := post.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	if _, err := h.posts.Delete(r.Context(), id); err != nil {
		return err
	}

	render.JSON(w, r, MessageResponse{Msg: "Deleted"})
	return nil
}

func (h handlers) decodePost(w http.ResponseWriter, r *http.Request) (post.Post, error) {
	var p *post.Post

	body := http.MaxBytesReader(w, r.Body, h.readLimit)
	if err := render.DecodeJSON(body, &p); err != nil {
		return post.Post{}, errors.Wrapf(ErrMalformedBody, "cannot decode post (%s)", err)
	}
	// null decodes without error
	if p == nil {
		return post.Post{}, errors.Wrap(ErrMalformedBody, "post must be a JSON object")
	}

	return *p, nil
}

// renderPosts always answers with an array, never null.
func renderPosts(w http.ResponseWriter, r *http.Request, posts []post.Post) {
	if posts == nil {
		posts = []post.Post{}
	}
	render.JSON(w, r, posts)
}
