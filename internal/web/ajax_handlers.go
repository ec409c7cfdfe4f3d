package web

import (
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"

	"github.com/evcraddock/fluent-comments/internal/auth"
	"github.com/evcraddock/fluent-comments/internal/comment"
	"github.com/evcraddock/fluent-comments/internal/contenttype"
	"github.com/evcraddock/fluent-comments/internal/logging"
)

// handlePostCommentAjax accepts a comment submission from an Ajax form
// and answers with a JSON envelope. A request carrying a "preview" field
// is validated and rendered but never saved.
func (s *Server) handlePostCommentAjax(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !isAjax(r) {
		s.badRequest(w, r, "Expecting Ajax call")
		return
	}
	if err := r.ParseForm(); err != nil {
		s.badRequest(w, r, "Bad request")
		return
	}

	data := cloneValues(r.PostForm)
	caller := auth.CallerFrom(r.Context())
	if caller != nil {
		if data.Get("name") == "" {
			data.Set("name", caller.Name())
		}
		if data.Get("email") == "" {
			data.Set("email", caller.Email)
		}
	}

	_, hasType := data[comment.FieldContentType]
	_, hasPK := data[comment.FieldObjectPK]
	if !hasType || !hasPK {
		s.badRequest(w, r, "Missing content_type or object_pk field.")
		return
	}

	target, err := s.types.Lookup(r.Context(), data.Get(comment.FieldContentType), data.Get(comment.FieldObjectPK))
	if err != nil {
		if msg, ok := targetErrorMessage(err); ok {
			s.badRequest(w, r, msg)
			return
		}
		s.serverError(w, r, err)
		return
	}

	_, preview := data["preview"]

	form := comment.NewForm(target, data, s.signer)
	if sec := form.SecurityErrors(); len(sec) > 0 {
		s.badRequest(w, r, "The comment form failed security verification: "+html.EscapeString(sec.String()))
		return
	}

	if preview {
		var c *comment.Comment
		if form.Valid() {
			c, err = form.CommentObject()
			if err != nil {
				s.serverError(w, r, err)
				return
			}
		}
		s.writeAjaxResult(w, r, form, actionPreview, c)
		return
	}
	if !form.Valid() {
		s.writeAjaxResult(w, r, form, actionPost, nil)
		return
	}

	c, err := form.CommentObject()
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	c.IPAddress = remoteIP(r)
	if caller != nil {
		c.UserID = caller.UserID()
	}

	if err := s.listeners.BeforeSave(r.Context(), c, r); err != nil {
		var veto *comment.VetoError
		if errors.As(err, &veto) {
			s.badRequest(w, r, veto.Error())
			return
		}
		s.serverError(w, r, err)
		return
	}

	if err := s.comments.Save(r.Context(), c); err != nil {
		s.serverError(w, r, fmt.Errorf("saving comment: %w", err))
		return
	}
	logging.FromContext(r.Context()).Debug("comment saved", "id", c.ID, "content_type", c.ContentType, "object_pk", c.ObjectPK)

	if err := s.listeners.AfterSave(r.Context(), c, r); err != nil {
		s.serverError(w, r, err)
		return
	}

	s.writeAjaxResult(w, r, form, actionPost, c)
}

// targetErrorMessage maps a resolution failure to the client diagnostic.
// It reports false for storage errors, which are not the client's fault.
func targetErrorMessage(err error) (string, bool) {
	var (
		invalid  *contenttype.InvalidError
		unknown  *contenttype.UnknownTypeError
		notFound *contenttype.NotFoundError
		badKey   *contenttype.InvalidKeyError
	)
	switch {
	case errors.As(err, &invalid):
		return fmt.Sprintf("Invalid content_type value: %q", html.EscapeString(invalid.Value)), true
	case errors.As(err, &unknown):
		return fmt.Sprintf("The given content-type %q does not resolve to a valid model.",
			html.EscapeString(unknown.Value)), true
	case errors.As(err, &notFound):
		return fmt.Sprintf("No object matching content-type %q and object PK %q exists.",
			html.EscapeString(notFound.Value), html.EscapeString(notFound.PK)), true
	case errors.As(err, &badKey):
		return fmt.Sprintf("Attempting go get content-type %q and object PK %q exists raised %s",
			html.EscapeString(badKey.Value), html.EscapeString(badKey.PK), badKey.Kind()), true
	}
	return "", false
}

// isAjax reports whether the request was sent by script.
func isAjax(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" || r.Header.Get("HX-Request") == "true"
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
