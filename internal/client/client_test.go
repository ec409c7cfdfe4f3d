package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testForm = `<form action="/comments/post/ajax/" method="post">
  <input type="hidden" name="content_type" value="listings.property">
  <input type="hidden" name="object_pk" value="7">
  <input type="hidden" name="security_hash" value="abc.def.ghi">
  <input type="hidden" name="timestamp" value="1700000000">
  <input type="text" name="honeypot" id="id_honeypot">
  <input type="text" name="name" value="Prefilled">
  <input type="submit" name="post" value="Post">
  <input type="submit" name="preview" value="Preview">
</form>`

func testServer(t *testing.T, post func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/comments/form/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("content_type") != "listings.property" || r.URL.Query().Get("object_pk") != "7" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(testForm)); err != nil {
			t.Errorf("write: %v", err)
		}
	})
	mux.HandleFunc("/comments/post/ajax/", post)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPostSendsSignedForm(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			t.Error("expected X-Requested-With header")
		}
		if r.Header.Get("Authorization") != "Bearer testkey" {
			t.Error("expected Bearer testkey")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("security_hash") != "abc.def.ghi" {
			t.Errorf("security_hash = %q", r.PostForm.Get("security_hash"))
		}
		if r.PostForm.Get("comment") != "Great yard" {
			t.Errorf("comment = %q", r.PostForm.Get("comment"))
		}
		if r.PostForm.Get("name") != "" {
			t.Errorf("name = %q, want blank for server autofill", r.PostForm.Get("name"))
		}
		if _, ok := r.PostForm["preview"]; ok {
			t.Error("unexpected preview field")
		}
		if _, ok := r.PostForm["post"]; ok {
			t.Error("submit buttons should not be sent")
		}

		id := int64(12)
		html := "<div>Great yard</div>"
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(Result{Success: true, Action: "post", HTML: &html, CommentID: &id}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	})

	c := New(srv.URL, "testkey")
	res, err := c.Post(context.Background(), Submission{
		ContentType: "listings.property",
		ObjectPK:    "7",
		Comment:     "Great yard",
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !res.Success || res.Action != "post" {
		t.Errorf("result = %+v", res)
	}
	if res.CommentID == nil || *res.CommentID != 12 {
		t.Errorf("comment_id = %v, want 12", res.CommentID)
	}
}

func TestPostPreview(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if _, ok := r.PostForm["preview"]; !ok {
			t.Error("expected preview field")
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"success":true,"action":"preview","errors":{},"html":"<p>x</p>","comment_id":null}`)); err != nil {
			t.Fatalf("write: %v", err)
		}
	})

	res, err := New(srv.URL, "").Post(context.Background(), Submission{
		ContentType: "listings.property", ObjectPK: "7", Comment: "x", Preview: true,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if res.Action != "preview" || res.CommentID != nil {
		t.Errorf("result = %+v", res)
	}
}

func TestPostValidationErrors(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"success":false,"action":"post","errors":{"comment":"<span>This field is required.</span>"},"html":null,"comment_id":null}`)); err != nil {
			t.Fatalf("write: %v", err)
		}
	})

	res, err := New(srv.URL, "").Post(context.Background(), Submission{ContentType: "listings.property", ObjectPK: "7"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if res.Success {
		t.Error("success = true, want false")
	}
	if !strings.Contains(res.Errors["comment"], "required") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestPostBadRequest(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `comment_will_be_posted receiver "closed_types" killed the comment`, http.StatusBadRequest)
	})

	_, err := New(srv.URL, "").Post(context.Background(), Submission{ContentType: "listings.property", ObjectPK: "7", Comment: "x"})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "closed_types") {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestFormFieldsTargetError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "No object matching content-type", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").FormFields(context.Background(), "listings.property", "99")
	if err == nil || !strings.Contains(err.Error(), "No object matching") {
		t.Errorf("err = %v", err)
	}
}

func TestParseFormFieldsRequiresSecurity(t *testing.T) {
	if _, err := parseFormFields(strings.NewReader(`<form><input name="name" value="x"></form>`)); err == nil {
		t.Error("expected error for form without security fields")
	}

	fields, err := parseFormFields(strings.NewReader(testForm))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fields.Get("timestamp") != "1700000000" || fields.Get("name") != "Prefilled" {
		t.Errorf("fields = %v", fields)
	}
	if _, ok := fields["honeypot"]; !ok {
		t.Error("expected honeypot field")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}))
	defer srv.Close()

	if err := New(srv.URL+"/", "").Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}
