package vault

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"obsidian-remote-mcp/internal/config"
	"obsidian-remote-mcp/internal/obsidian"
)

// newFakeUpstream serves a Local REST API subset backed by dir, so service
// tests exercise the real adapter end to end.
func newFakeUpstream(t *testing.T, dir string) *obsidian.Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/vault/", func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, "/vault/")
		full := filepath.Join(dir, filepath.FromSlash(rel))

		switch r.Method {
		case http.MethodGet:
			info, err := os.Stat(full)
			if err != nil {
				http.Error(w, "not found", 404)
				return
			}
			if strings.Contains(r.Header.Get("Accept"), "note+json") {
				json.NewEncoder(w).Encode(map[string]any{
					"path": rel,
					"stat": map[string]int64{
						"ctime": info.ModTime().UnixMilli(),
						"mtime": info.ModTime().UnixMilli(),
						"size":  info.Size(),
					},
				})
				return
			}
			data, err := os.ReadFile(full)
			if err != nil {
				http.Error(w, "not found", 404)
				return
			}
			w.Write(data)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			if err := os.WriteFile(full, body, 0o600); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			w.WriteHeader(204)
		case http.MethodDelete:
			if err := os.Remove(full); err != nil {
				http.Error(w, "not found", 404)
				return
			}
			w.WriteHeader(204)
		default:
			http.Error(w, "method not allowed", 405)
		}
	})
	mux.HandleFunc("/search/simple/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query  string `json:"query"`
			Folder string `json:"folder"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
			http.Error(w, "bad search request", 400)
			return
		}
		query := strings.ToLower(req.Query)
		var hits []map[string]any
		filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || !strings.HasSuffix(p, ".md") {
				return nil
			}
			rel, _ := filepath.Rel(dir, p)
			rel = filepath.ToSlash(rel)
			if req.Folder != "" && !strings.HasPrefix(rel, req.Folder+"/") {
				return nil
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return nil
			}
			if strings.Contains(strings.ToLower(string(data)), query) {
				hits = append(hits, map[string]any{
					"filename": rel,
					"score":    1.0,
					"matches":  []map[string]any{{"context": "..."}},
				})
			}
			return nil
		})
		json.NewEncoder(w).Encode(hits)
	})
	mux.HandleFunc("/command/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name   string         `json:"name"`
			Params map[string]any `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			http.Error(w, "bad command request", 400)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"executed": req.Name, "params": req.Params})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return obsidian.NewClient(srv.URL, "test-token")
}

func newTestService(t *testing.T, dir string) *Service {
	t.Helper()
	cfg := &config.Config{
		VaultPath:     dir,
		StructureTTL:  config.DefaultStructureTTL,
		NotesTTL:      config.DefaultNotesTTL,
		BatchSize:     config.DefaultBatchSize,
		SnippetRadius: config.DefaultSnippetRadius,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(newFakeUpstream(t, dir), cfg, log)
}

func parseDay(t *testing.T, s string) time.Time {
	t.Helper()
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return day
}

func writeNote(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
