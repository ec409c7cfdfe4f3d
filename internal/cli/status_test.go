package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const goodKey = "fc_validkey1234567890abc"

func healthServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "", "Bearer " + goodKey:
		default:
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckStatus(t *testing.T) {
	srv := healthServer(t)

	tests := []struct {
		name   string
		server string
		key    string
		want   string
	}{
		{"anonymous", srv.URL, "", stateConnected},
		{"good key", srv.URL, goodKey, stateAuthenticated},
		{"bad key", srv.URL, "fc_badkey1234567890abcde", stateBadKey},
		{"unreachable", "http://127.0.0.1:1", "", stateUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("FC_SERVER_URL", tt.server)
			t.Setenv("FC_API_KEY", tt.key)

			rep := checkStatus(context.Background())
			if rep.State != tt.want {
				t.Errorf("state = %q, want %q (detail %q)", rep.State, tt.want, rep.Detail)
			}
			if rep.Server != tt.server {
				t.Errorf("server = %q", rep.Server)
			}
			if tt.key != "" && (rep.KeyHint == "" || rep.KeyHint == tt.key) {
				t.Errorf("key hint = %q, want a shortened key", rep.KeyHint)
			}
		})
	}
}

func TestCheckStatusUnexpectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("FC_SERVER_URL", srv.URL)
	t.Setenv("FC_API_KEY", "")

	rep := checkStatus(context.Background())
	if rep.State != stateUnexpected || !strings.Contains(rep.Detail, "503") {
		t.Errorf("report = %+v", rep)
	}
}

func TestCheckStatusShowsCommenter(t *testing.T) {
	srv := healthServer(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FC_SERVER_URL", srv.URL)
	t.Setenv("FC_API_KEY", "")
	if err := saveConfig(CLIConfig{Name: "Alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if got := checkStatus(context.Background()).Commenter; got != "Alice <alice@example.com>" {
		t.Errorf("commenter = %q", got)
	}
}

func TestRunStatusNeverFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FC_SERVER_URL", "http://127.0.0.1:1")
	t.Setenv("FC_API_KEY", "fc_ab")

	if err := runStatus(); err != nil {
		t.Fatalf("status: %v", err)
	}
}
