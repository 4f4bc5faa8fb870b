package xclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOAuth1SigningAddsHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "OAuth ") {
			t.Errorf("missing OAuth header, got %q", auth)
		}
		if !strings.Contains(auth, "oauth_signature=") {
			t.Errorf("unsigned request: %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id_str":"9","screen_name":"alice","name":"Alice"}`))
	}))
	defer ts.Close()

	base := newTestClient()
	base.httpClient = ts.Client()
	v1 := NewV1Client(base, "ck", "cs", "at", "as")
	v1.baseURL = ts.URL

	u, err := v1.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "9" || u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestV1GetFollowersCursorPagination(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "-1":
			_, _ = w.Write([]byte(`{"users":[{"id_str":"1","screen_name":"a","name":"A","followers_count":10}],"next_cursor_str":"42"}`))
		case "42":
			_, _ = w.Write([]byte(`{"users":[{"id_str":"2","screen_name":"b","name":"B"}],"next_cursor_str":"0"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer ts.Close()

	base := newTestClient()
	base.httpClient = ts.Client()
	v1 := NewV1Client(base, "ck", "cs", "at", "as")
	v1.baseURL = ts.URL

	users, err := v1.GetFollowers(context.Background(), "9", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 || users[0].ID != "1" || users[1].ID != "2" {
		t.Fatalf("unexpected users: %+v", users)
	}
	if users[0].FollowersCount != 10 {
		t.Fatalf("counters not mapped: %+v", users[0])
	}
}
