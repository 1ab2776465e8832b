package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	boardAuth "github.com/MrEthical07/boardAuth"
	"github.com/MrEthical07/boardAuth/internal/board"
)

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type postResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   int64     `json:"authorId"`
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

func postOf(p board.Post) postResponse {
	return postResponse{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		AuthorID:   p.AuthorID,
		Author:     p.AuthorNickname,
		CreatedAt:  p.CreatedAt,
		ModifiedAt: p.ModifiedAt,
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return 0, false
	}
	return id, true
}

func (h *Handler) postError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, board.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, board.ErrForbidden):
		writeError(w, http.StatusForbidden, "only the author may change this post")
	case errors.Is(err, board.ErrPostNotFound):
		writeError(w, http.StatusNotFound, "post not found")
	case errors.Is(err, board.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	default:
		h.internal(w, r, "post operation failed", err)
	}
}

func (h *Handler) SavePost(w http.ResponseWriter, r *http.Request, id boardAuth.Identity, _ bool) {
	var req postRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.board.SavePost(r.Context(), id, board.PostInput{Title: req.Title, Content: req.Content})
	if !res.OK() {
		h.postError(w, r, res.Err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: res.Value})
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request, id boardAuth.Identity, _ bool) {
	postID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req postRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.board.UpdatePost(r.Context(), id, postID, board.PostInput{Title: req.Title, Content: req.Content})
	if !res.OK() {
		h.postError(w, r, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: res.Value})
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request, id boardAuth.Identity, _ bool) {
	postID, ok := pathID(w, r)
	if !ok {
		return
	}
	res := h.board.DeletePost(r.Context(), id, postID)
	if !res.OK() {
		h.postError(w, r, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: res.Value})
}

func (h *Handler) FindPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r)
	if !ok {
		return
	}
	res := h.board.FindPost(r.Context(), postID)
	if !res.OK() {
		h.postError(w, r, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, postOf(res.Value))
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	res := h.board.ListPosts(r.Context())
	if !res.OK() {
		h.postError(w, r, res.Err)
		return
	}
	out := make([]postResponse, 0, len(res.Value))
	for _, p := range res.Value {
		out = append(out, postOf(p))
	}
	writeJSON(w, http.StatusOK, out)
}
