package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJpath(t *testing.T) {
	jobj := map[string]any{
		"success": true,
		"rates":   map[string]any{"CZK": 24.5},
		"list":    []any{"first", "second"},
	}

	v, err := jpath(jobj, "$.success")
	if err != nil || v != true {
		t.Errorf("jpath($.success) = %v, %v", v, err)
	}

	v, err = jpath(jobj, "$.rates.CZK")
	if err != nil || v != 24.5 {
		t.Errorf("jpath($.rates.CZK) = %v, %v", v, err)
	}

	// list answers collapse to their first element
	v, err = jpath(jobj, "$.list")
	if err != nil || v != "first" {
		t.Errorf("jpath($.list) = %v, %v", v, err)
	}

	if _, err := jpath(jobj, "$.missing"); err == nil {
		t.Error("want error for a missing path")
	}
}

func TestDailyClientCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	client := Daily()
	for i := 0; i < 2; i++ {
		var data any
		if err := jwget(context.Background(), client, srv.URL+"/quota", &data); err != nil {
			t.Fatal(err)
		}
	}

	if hits != 1 {
		t.Errorf("got %d upstream hits for two identical requests, want 1", hits)
	}
}

func TestDailyClientSkipsCachingErrors(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := Daily()
	for i := 0; i < 2; i++ {
		var data any
		if err := jwget(context.Background(), client, srv.URL+"/broken", &data); err == nil {
			t.Fatal("want error on a 429 response")
		}
	}

	if hits != 2 {
		t.Errorf("got %d upstream hits, want 2: error responses must not be cached", hits)
	}
}
