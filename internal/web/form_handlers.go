package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/evcraddock/fluent-comments/internal/auth"
	"github.com/evcraddock/fluent-comments/internal/comment"
	"github.com/evcraddock/fluent-comments/internal/contenttype"
)

type formData struct {
	Action    string
	ObjectPK  string
	Security  map[string]string
	Name      string
	Email     string
	MaxLength int
}

type listData struct {
	ContentType string
	ObjectPK    string
	Items       []commentData
}

// resolveQueryTarget resolves the target named by the query string.
// On failure it has already written the response.
func (s *Server) resolveQueryTarget(w http.ResponseWriter, r *http.Request) (*contenttype.Target, bool) {
	q := r.URL.Query()
	_, hasType := q[comment.FieldContentType]
	_, hasPK := q[comment.FieldObjectPK]
	if !hasType || !hasPK {
		s.badRequest(w, r, "Missing content_type or object_pk field.")
		return nil, false
	}

	target, err := s.types.Lookup(r.Context(), q.Get(comment.FieldContentType), q.Get(comment.FieldObjectPK))
	if err != nil {
		if msg, ok := targetErrorMessage(err); ok {
			s.badRequest(w, r, msg)
			return nil, false
		}
		s.serverError(w, r, err)
		return nil, false
	}
	return target, true
}

// handleCommentForm renders a fresh comment form for a target, signed
// so that it can be posted to the Ajax endpoint.
func (s *Server) handleCommentForm(w http.ResponseWriter, r *http.Request) {
	target, ok := s.resolveQueryTarget(w, r)
	if !ok {
		return
	}

	fields, err := s.signer.Fields(target)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data := formData{
		Action:    "/comments/post/ajax/",
		ObjectPK:  target.PK(),
		Security:  make(map[string]string, len(fields)),
		MaxLength: comment.MaxLength,
	}
	for name := range fields {
		data.Security[name] = fields.Get(name)
	}
	if caller := auth.CallerFrom(r.Context()); caller != nil {
		data.Name = caller.Name()
		data.Email = caller.Email
	}

	s.render(w, r, "comments/form.html", data)
}

// handleCommentList renders the public comments of a target.
func (s *Server) handleCommentList(w http.ResponseWriter, r *http.Request) {
	target, ok := s.resolveQueryTarget(w, r)
	if !ok {
		return
	}

	comments, err := s.comments.ListForTarget(r.Context(), target.ContentType, target.PK())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data := listData{ContentType: target.ContentType, ObjectPK: target.PK()}
	for _, c := range comments {
		data.Items = append(data.Items, commentData{Comment: c})
	}
	s.render(w, r, "comments/list.html", data)
}

func (s *Server) handleCommentDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	c, err := s.comments.GetByID(r.Context(), id)
	if errors.Is(err, comment.ErrNotFound) || (err == nil && (c.IsRemoved || !c.IsPublic)) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, "comments/comment.html", commentData{Comment: c})
}
