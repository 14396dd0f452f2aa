package ads

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matsen/adsbib/internal/journal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-token", WithBaseURL(server.URL), WithRateLimit(1000))
}

func TestFetchLibrary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/biblib/libraries/abc123" {
			t.Errorf("path = %s, want /biblib/libraries/abc123", r.URL.Path)
		}
		if got := r.URL.Query().Get("rows"); got != "10000" {
			t.Errorf("rows = %q, want 10000", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{
			"documents": ["2020ApJ...900....1A", "2021ApJ...901....2B"],
			"metadata": {"name": "Thesis", "date_last_modified": "2024-01-01T00:00:00", "id": "abc123"}
		}`))
	})

	lib, err := client.FetchLibrary(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("FetchLibrary() error = %v", err)
	}
	if lib.Name != "Thesis" {
		t.Errorf("Name = %q, want Thesis", lib.Name)
	}
	if lib.LastModified != "2024-01-01T00:00:00" {
		t.Errorf("LastModified = %q", lib.LastModified)
	}
	if len(lib.Bibcodes) != 2 || lib.Bibcodes[1] != "2021ApJ...901....2B" {
		t.Errorf("Bibcodes = %v", lib.Bibcodes)
	}
}

func TestFetchLibrary_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error": "Unauthorized"}`, IsAuthError},
		{"forbidden", http.StatusForbidden, `{}`, IsAuthError},
		{"not json", http.StatusOK, `<html>maintenance</html>`, IsTransient},
		{"empty body", http.StatusOK, ``, IsTransient},
		{"server error", http.StatusBadGateway, `bad gateway`, IsTransient},
		{"rate limited", http.StatusTooManyRequests, `{}`, IsTransient},
		{"missing metadata", http.StatusOK, `{"documents": []}`, IsProtocolError},
		{"missing documents", http.StatusOK, `{"metadata": {"name": "x", "date_last_modified": "y"}}`, IsProtocolError},
		{"missing timestamp", http.StatusOK, `{"documents": [], "metadata": {"name": "x"}}`, IsProtocolError},
		{"not found", http.StatusNotFound, `{"error": "library does not exist"}`, IsProtocolError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := client.FetchLibrary(context.Background(), "abc123")
			if err == nil {
				t.Fatal("FetchLibrary() expected error")
			}
			if !tt.check(err) {
				t.Errorf("FetchLibrary() error = %v, wrong class", err)
			}
		})
	}
}

func TestFetchLibrary_NetworkErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient("t", WithBaseURL(url), WithRateLimit(1000))
	_, err := client.FetchLibrary(context.Background(), "abc")
	if !IsTransient(err) {
		t.Errorf("FetchLibrary() error = %v, want transient", err)
	}
}

func TestAPIError_IsProtocol(t *testing.T) {
	err := error(&APIError{StatusCode: 404, Endpoint: "/x"})
	if !errors.Is(err, ErrProtocol) {
		t.Error("APIError should match ErrProtocol")
	}
	if IsTransient(err) || IsAuthError(err) {
		t.Error("APIError misclassified")
	}
}

type exportRequest struct {
	Bibcode []string `json:"bibcode"`
	Sort    string   `json:"sort"`
	Format  *string  `json:"format"`
}

func TestExport_FormatSelection(t *testing.T) {
	known := append(append(append([]string{}, TaggedFormats...), LaTeXFormats...), XMLFormats...)

	for _, format := range known {
		t.Run(format, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/export/"+format {
					t.Errorf("path = %s, want /export/%s", r.URL.Path, format)
				}
				var req exportRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decoding request: %v", err)
					return
				}
				if req.Format != nil {
					t.Errorf("format field sent for named format: %q", *req.Format)
				}
				w.Write([]byte(`{"export": "ok"}`))
			})
			opts := ExportOptions{Format: format, Journal: journal.Native}
			if _, err := client.Export(context.Background(), []string{"2020ApJ...900....1A"}, opts); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
		})
	}

	for _, template := range []string{"%R  # %3h_%Y_%q_%V_%p %T", "%l (%Y)", "BibTeX"} {
		t.Run("custom "+template, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/export/custom" {
					t.Errorf("path = %s, want /export/custom", r.URL.Path)
				}
				var req exportRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decoding request: %v", err)
					return
				}
				if req.Format == nil || *req.Format != template {
					t.Errorf("format = %v, want %q", req.Format, template)
				}
				w.Write([]byte(`{"export": "ok"}`))
			})
			opts := ExportOptions{Format: template, Journal: journal.Native}
			if _, err := client.Export(context.Background(), []string{"2020ApJ...900....1A"}, opts); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
		})
	}
}

func TestExport_RequestBodyAndTransform(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req exportRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decoding request: %v", err)
			return
		}
		if req.Sort != "date asc" {
			t.Errorf("sort = %q, want date asc", req.Sort)
		}
		if len(req.Bibcode) != 2 {
			t.Errorf("bibcode = %v", req.Bibcode)
		}
		w.Write([]byte(`{"export": "@ARTICLE{2020ApJ...900....1A,\n  journal = {\\apjl},\n}\n"}`))
	})

	opts := ExportOptions{Sort: "date asc", Format: "bibtex", Journal: journal.Expanded}
	got, err := client.Export(context.Background(), []string{"2020ApJ...900....1A", "2020ApJ...900....1A"}, opts)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(got, "journal = {Astrophysical Journal, Letters},") {
		t.Errorf("Export() did not expand journal macro:\n%s", got)
	}
}

func TestExport_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error": "Unauthorized"}`, IsAuthError},
		{"missing export", http.StatusOK, `{"msg": "Retrieved 1 abstracts"}`, IsProtocolError},
		{"not json", http.StatusOK, `Service Unavailable`, IsTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := client.Export(context.Background(), []string{"2020ApJ...900....1A"}, DefaultExportOptions())
			if err == nil || !tt.check(err) {
				t.Errorf("Export() error = %v, wrong class", err)
			}
		})
	}
}

func TestExport_EmptyRequest(t *testing.T) {
	client := NewClient("t", WithBaseURL("http://127.0.0.1:0"))
	_, err := client.Export(context.Background(), nil, DefaultExportOptions())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Export() error = %v, want ErrInvalidArgument", err)
	}
}

func TestExport_TransformErrorPropagates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"export": "x"}`))
	})
	opts := ExportOptions{Format: "bibtex", Journal: journal.Convention("bogus")}
	_, err := client.Export(context.Background(), []string{"2020ApJ...900....1A"}, opts)
	if !errors.Is(err, journal.ErrInvalidArgument) {
		t.Errorf("Export() error = %v, want journal.ErrInvalidArgument", err)
	}
}

func TestLooksLikeBibcode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2020ApJ...900....1A", true},
		{"1998AJ....116.1009R", true},
		{"2020ApJ...900..1A", false},
		{"Smith2020abcdefghij", false},
		{"2020ApJ...900,...1A", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := LooksLikeBibcode(tt.in); got != tt.want {
			t.Errorf("LooksLikeBibcode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
