package comment

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/evcraddock/fluent-comments/internal/contenttype"
)

// MaxLength is the longest comment body accepted.
const MaxLength = 3000

const (
	msgRequired = "This field is required."
	msgHoneypot = "If you enter anything in this field your comment will be treated as spam"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("form")
	})
	if err := validate.RegisterValidation("honeypot", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == ""
	}); err != nil {
		panic(err)
	}
}

// Fields is the cleaned, user-editable part of a comment form.
type Fields struct {
	Name     string `form:"name" validate:"required,max=50"`
	Email    string `form:"email" validate:"required,email,max=254"`
	URL      string `form:"url" validate:"omitempty,url,max=200"`
	Comment  string `form:"comment" validate:"required,max=3000"`
	Honeypot string `form:"honeypot" validate:"honeypot"`
}

// FieldErrors maps a form field name to its error messages.
type FieldErrors map[string][]string

func (e FieldErrors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Fields returns the names of fields with errors, sorted.
func (e FieldErrors) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e FieldErrors) String() string {
	parts := make([]string, 0, len(e))
	for _, name := range e.Fields() {
		parts = append(parts, name+": "+strings.Join(e[name], " "))
	}
	return strings.Join(parts, "; ")
}

// Form binds posted data to a comment target.
type Form struct {
	Target *contenttype.Target

	data     url.Values
	signer   *Signer
	cleaned  Fields
	errors   FieldErrors
	security FieldErrors
}

// NewForm binds data to target. Validation runs lazily on first use.
func NewForm(target *contenttype.Target, data url.Values, signer *Signer) *Form {
	return &Form{Target: target, data: data, signer: signer}
}

// SecurityErrors returns errors on the anti-tamper fields only.
func (f *Form) SecurityErrors() FieldErrors {
	f.run()
	return f.security
}

// Errors returns all field errors, security fields included.
func (f *Form) Errors() FieldErrors {
	f.run()
	return f.errors
}

// Valid reports whether the form has no errors.
func (f *Form) Valid() bool {
	return len(f.Errors()) == 0
}

// Validate returns the cleaned fields and all field errors.
func (f *Form) Validate() (Fields, FieldErrors) {
	f.run()
	return f.cleaned, f.errors
}

// CommentObject builds an unsaved comment from a valid form.
func (f *Form) CommentObject() (*Comment, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("form has errors: %s", f.errors)
	}
	return &Comment{
		ContentType: f.Target.ContentType,
		ObjectPK:    f.Target.PK(),
		UserName:    f.cleaned.Name,
		UserEmail:   f.cleaned.Email,
		UserURL:     f.cleaned.URL,
		Body:        f.cleaned.Comment,
		IsPublic:    true,
		SubmitDate:  f.signer.now(),
		Target:      f.Target,
	}, nil
}

func (f *Form) run() {
	if f.errors != nil {
		return
	}

	f.security = f.signer.check(f.data)
	f.errors = FieldErrors{}
	for name, msgs := range f.security {
		f.errors[name] = append([]string(nil), msgs...)
	}

	f.cleaned = Fields{
		Name:     strings.TrimSpace(f.data.Get("name")),
		Email:    strings.TrimSpace(f.data.Get("email")),
		URL:      normalizeURL(f.data.Get("url")),
		Comment:  strings.TrimSpace(f.data.Get("comment")),
		Honeypot: f.data.Get("honeypot"),
	}

	err := validate.Struct(&f.cleaned)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			f.errors.add(e.Field(), fieldMessage(e))
		}
	}
}

// fieldMessage turns a validator failure into a user-facing message.
func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return msgRequired
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).",
			e.Param(), utf8.RuneCountInString(e.Value().(string)))
	case "honeypot":
		return msgHoneypot
	}
	return fmt.Sprintf("Invalid value (%s).", e.Tag())
}

// normalizeURL trims the value and assumes http:// when no scheme is given.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "http://" + raw
}
