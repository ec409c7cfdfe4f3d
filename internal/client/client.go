// Package client provides an HTTP client for the Ajax comment endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Client posts comments the way the browser form does.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new client. apiKey may be empty for anonymous posting.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Submission is a comment to post on a target.
type Submission struct {
	ContentType string
	ObjectPK    string
	Name        string
	Email       string
	URL         string
	Comment     string
	Preview     bool
}

// Result is the JSON envelope returned by the submission endpoint.
type Result struct {
	Success   bool              `json:"success"`
	Action    string            `json:"action"`
	Errors    map[string]string `json:"errors"`
	HTML      *string           `json:"html"`
	CommentID *int64            `json:"comment_id"`
}

// Error is a non-200 answer from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", resp.Status)
	}
	return nil
}

// FormFields fetches a fresh comment form for the target and returns
// the values of its inputs, including the signed security fields.
func (c *Client) FormFields(ctx context.Context, contentType, objectPK string) (url.Values, error) {
	q := url.Values{"content_type": {contentType}, "object_pk": {objectPK}}
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/comments/form/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return parseFormFields(bytes.NewReader(body))
}

// Post submits a comment. Validation failures come back as a Result with
// Success false; transport and request errors are returned as errors.
func (c *Client) Post(ctx context.Context, sub Submission) (*Result, error) {
	data, err := c.FormFields(ctx, sub.ContentType, sub.ObjectPK)
	if err != nil {
		return nil, fmt.Errorf("fetching form: %w", err)
	}

	// Blank name and email are filled in by the server for known callers.
	data.Set("name", sub.Name)
	data.Set("email", sub.Email)
	data.Set("url", sub.URL)
	data.Set("comment", sub.Comment)
	if sub.Preview {
		data.Set("preview", "")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/comments/post/ajax/", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &res, nil
}

// do executes an HTTP request with the auth header and returns the body.
func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// parseFormFields collects name/value pairs of the form's input elements.
func parseFormFields(r io.Reader) (url.Values, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}

	fields := url.Values{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			var name, value, typ string
			for _, a := range n.Attr {
				switch a.Key {
				case "name":
					name = a.Val
				case "value":
					value = a.Val
				case "type":
					typ = a.Val
				}
			}
			if name != "" && typ != "submit" {
				fields.Set(name, value)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if fields.Get("security_hash") == "" {
		return nil, fmt.Errorf("form has no security fields")
	}
	return fields, nil
}
