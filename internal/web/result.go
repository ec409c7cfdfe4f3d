package web

import (
	"encoding/json"
	"net/http"

	"github.com/evcraddock/fluent-comments/internal/comment"
	"github.com/evcraddock/fluent-comments/internal/logging"
)

const (
	actionPost    = "post"
	actionPreview = "preview"
)

// ajaxResult is the JSON envelope returned for every handled submission.
type ajaxResult struct {
	Success   bool              `json:"success"`
	Action    string            `json:"action"`
	Errors    map[string]string `json:"errors"`
	HTML      *string           `json:"html"`
	CommentID *int64            `json:"comment_id"`
}

type fieldErrorsData struct {
	Field          string
	Errors         []string
	FormShowErrors bool
}

type commentData struct {
	Comment *comment.Comment
	Action  string
	Preview bool
}

// writeAjaxResult renders the envelope for form, optionally including c.
// comment_id is set only once c has been saved.
func (s *Server) writeAjaxResult(w http.ResponseWriter, r *http.Request, form *comment.Form, action string, c *comment.Comment) {
	errs, err := s.renderErrors(form.Errors())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	result := ajaxResult{
		Success: len(errs) == 0,
		Action:  action,
		Errors:  errs,
	}

	if c != nil {
		out, err := s.renderString("comments/comment.html", commentData{
			Comment: c,
			Action:  action,
			Preview: action == actionPreview,
		})
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		result.HTML = &out
		if c.Saved() {
			id := c.ID
			result.CommentID = &id
		}
	}

	logging.FromContext(r.Context()).Debug("ajax result", "action", action, "success", result.Success)
	writeJSON(w, result, http.StatusOK)
}

// renderErrors renders each field's messages through the configured pack.
func (s *Server) renderErrors(fieldErrs comment.FieldErrors) (map[string]string, error) {
	out := make(map[string]string, len(fieldErrs))
	for _, field := range fieldErrs.Fields() {
		html, err := s.renderString(s.cfg.fieldErrorsTemplate(), fieldErrorsData{
			Field:          field,
			Errors:         fieldErrs[field],
			FormShowErrors: true,
		})
		if err != nil {
			return nil, err
		}
		out[field] = html
	}
	return out, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}
