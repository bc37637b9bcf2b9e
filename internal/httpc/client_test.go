package httpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"state":"normal","speed":100}`))
		case "/bad":
			w.Write([]byte(`{not json`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var got struct {
		State string  `json:"state"`
		Speed float64 `json:"speed"`
	}
	if err := GetJSON(context.Background(), srv.URL+"/ok", &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got.State != "normal" || got.Speed != 100 {
		t.Errorf("decoded %+v", got)
	}

	if err := GetJSON(context.Background(), srv.URL+"/bad", &got); err == nil {
		t.Error("expected decode error")
	}

	err := GetJSON(context.Background(), srv.URL+"/missing", &got)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.Code != http.StatusNotFound {
		t.Errorf("Code = %d, want 404", se.Code)
	}
}

func TestGetJSON_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var v map[string]any
	if err := GetJSON(ctx, "http://127.0.0.1:1/", &v); err == nil {
		t.Error("expected error for cancelled context")
	}
}
