package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func overpassStub(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		q := r.FormValue("data")
		for marker, body := range responses {
			if strings.Contains(q, marker) {
				fmt.Fprint(w, body)
				return
			}
		}
		fmt.Fprint(w, `{"elements":[]}`)
	}))
}

func TestNeighborhoods(t *testing.T) {
	srv := overpassStub(t, map[string]string{
		"neighbourhood|suburb": `{"elements":[
			{"tags":{"name":"Zamalek"}},
			{"tags":{"name":"Maadi"}},
			{"tags":{"name":"Zamalek"}},
			{"tags":{"name":""}},
			{"tags":{"name":"Heliopolis"}}
		]}`,
	})
	defer srv.Close()

	c := NewClient(WithEndpoint(srv.URL))
	got, err := c.Neighborhoods(context.Background(), "Cairo")
	if err != nil {
		t.Fatalf("Neighborhoods: %v", err)
	}

	want := []string{"Heliopolis", "Maadi", "Zamalek"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("name %d = %q, want %q (sorted, deduplicated)", i, got[i], want[i])
		}
	}
}

func TestNeighborhoodsFallsBackToDistricts(t *testing.T) {
	srv := overpassStub(t, map[string]string{
		"quarter|district": `{"elements":[{"tags":{"name":"Old Town"}}]}`,
	})
	defer srv.Close()

	c := NewClient(WithEndpoint(srv.URL))
	got, err := c.Neighborhoods(context.Background(), "Smalltown")
	if err != nil {
		t.Fatalf("Neighborhoods: %v", err)
	}
	if len(got) != 1 || got[0] != "Old Town" {
		t.Errorf("got %v, want [Old Town]", got)
	}
}

func TestNeighborhoodsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(WithEndpoint(srv.URL))
	if _, err := c.Neighborhoods(context.Background(), "Cairo"); err == nil {
		t.Fatal("expected an error for a 429 response")
	}
}

func TestNeighborhoodsCancellation(t *testing.T) {
	srv := overpassStub(t, nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(WithEndpoint(srv.URL))
	if _, err := c.Neighborhoods(ctx, "Cairo"); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
