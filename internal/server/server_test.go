package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"obsidian-remote-mcp/internal/config"
	"obsidian-remote-mcp/internal/obsidian"
	"obsidian-remote-mcp/internal/resources"
	"obsidian-remote-mcp/internal/tools"
	"obsidian-remote-mcp/internal/vault"
)

// newTestGateway stands up the full stack: a fake Local REST API over a
// temp dir, the vault service, the tool catalogue, and the JSON-RPC server.
func newTestGateway(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

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
			data, _ := os.ReadFile(full)
			w.Write(data)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			os.MkdirAll(filepath.Dir(full), 0o755)
			os.WriteFile(full, body, 0o600)
			w.WriteHeader(204)
		case http.MethodDelete:
			if os.Remove(full) != nil {
				http.Error(w, "not found", 404)
				return
			}
			w.WriteHeader(204)
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		VaultPath:     dir,
		StructureTTL:  config.DefaultStructureTTL,
		NotesTTL:      config.DefaultNotesTTL,
		BatchSize:     config.DefaultBatchSize,
		SnippetRadius: config.DefaultSnippetRadius,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := obsidian.NewClient(upstream.URL, "test-token")
	svc := vault.NewService(client, cfg, log)
	srv := New(tools.NewCatalog(svc, cfg), resources.NewRouter(svc), log)

	gateway := httptest.NewServer(srv.Handler())
	t.Cleanup(gateway.Close)
	return gateway.URL, dir
}

func postRPC(t *testing.T, url, accept, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/mcp", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeRPC(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func errorCode(t *testing.T, out map[string]any) int {
	t.Helper()
	errObj, ok := out["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error in response: %v", out)
	}
	return int(errObj["code"].(float64))
}

func TestParseError(t *testing.T) {
	url, _ := newTestGateway(t)
	resp := postRPC(t, url, "", "{not json")

	if resp.StatusCode != 400 {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if code := errorCode(t, decodeRPC(t, resp)); code != -32700 {
		t.Errorf("code = %d, want -32700", code)
	}
}

func TestInvalidRequest(t *testing.T) {
	url, _ := newTestGateway(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing jsonrpc", `{"method":"ping","id":1}`},
		{"wrong version", `{"jsonrpc":"1.0","method":"ping","id":1}`},
		{"missing method", `{"jsonrpc":"2.0","id":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postRPC(t, url, "", tt.body)
			if resp.StatusCode != 400 {
				t.Errorf("status = %d", resp.StatusCode)
			}
			if code := errorCode(t, decodeRPC(t, resp)); code != -32600 {
				t.Errorf("code = %d, want -32600", code)
			}
		})
	}
}

func TestMethodNotFound(t *testing.T) {
	url, _ := newTestGateway(t)
	resp := postRPC(t, url, "", `{"jsonrpc":"2.0","method":"bogus/method","id":1}`)

	if resp.StatusCode != 404 {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if code := errorCode(t, decodeRPC(t, resp)); code != -32601 {
		t.Errorf("code = %d, want -32601", code)
	}
}

func TestUnknownToolIsMethodNotFound(t *testing.T) {
	url, _ := newTestGateway(t)
	resp := postRPC(t, url, "", `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"obs_bogus","arguments":{}},"id":1}`)

	if code := errorCode(t, decodeRPC(t, resp)); code != -32601 {
		t.Errorf("code = %d, want -32601", code)
	}
}

func TestInvalidToolArgs(t *testing.T) {
	url, _ := newTestGateway(t)
	resp := postRPC(t, url, "", `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"obs_read_note","arguments":{"bogus":true}},"id":1}`)

	if code := errorCode(t, decodeRPC(t, resp)); code != -32602 {
		t.Errorf("code = %d, want -32602", code)
	}
}

func TestMissingNoteIsInternalError(t *testing.T) {
	url, _ := newTestGateway(t)
	resp := postRPC(t, url, "", `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"obs_read_note","arguments":{"path":"ghost.md"}},"id":1}`)

	out := decodeRPC(t, resp)
	if code := errorCode(t, out); code != -32603 {
		t.Errorf("code = %d, want -32603", code)
	}
	errObj := out["error"].(map[string]any)
	data, ok := errObj["data"].(map[string]any)
	if !ok || data["kind"] != "not_found" {
		t.Errorf("error data = %v, want upstream detail", errObj["data"])
	}
}

func TestPing(t *testing.T) {
	url, _ := newTestGateway(t)
	resp := postRPC(t, url, "", `{"jsonrpc":"2.0","method":"ping","id":7}`)

	out := decodeRPC(t, resp)
	if out["id"] != float64(7) {
		t.Errorf("id = %v", out["id"])
	}
	result := out["result"].(map[string]any)
	if result["message"] != "pong" {
		t.Errorf("result = %v", result)
	}
}

func TestInitialize(t *testing.T) {
	url, _ := newTestGateway(t)
	resp := postRPC(t, url, "", `{"jsonrpc":"2.0","method":"initialize","params":{"protocolVersion":"2024-11-05"},"id":1}`)

	result := decodeRPC(t, resp)["result"].(map[string]any)
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion = %v", result["protocolVersion"])
	}
	caps := result["capabilities"].(map[string]any)
	if _, ok := caps["tools"]; !ok {
		t.Errorf("capabilities = %v", caps)
	}
}

func TestToolsList(t *testing.T) {
	url, _ := newTestGateway(t)
	resp := postRPC(t, url, "", `{"jsonrpc":"2.0","method":"tools/list","id":1}`)

	result := decodeRPC(t, resp)["result"].(map[string]any)
	list := result["tools"].([]any)
	if len(list) != 13 {
		t.Fatalf("got %d tools, want 13", len(list))
	}
	first := list[0].(map[string]any)
	if first["name"] != "ping" {
		t.Errorf("first tool = %v", first["name"])
	}
	if _, ok := first["inputSchema"]; !ok {
		t.Error("tools must carry their input schema")
	}
}

func TestToolCallRoundTrip(t *testing.T) {
	url, _ := newTestGateway(t)

	create := `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"obs_create_note","arguments":{"path":"projects/x.md","content":"# X"}},"id":1}`
	resp := postRPC(t, url, "", create)
	out := decodeRPC(t, resp)
	if out["error"] != nil {
		t.Fatalf("create failed: %v", out["error"])
	}

	read := `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"obs_read_note","arguments":{"path":"projects/x.md"}},"id":2}`
	resp = postRPC(t, url, "", read)
	result := decodeRPC(t, resp)["result"].(map[string]any)
	content := result["content"].([]any)[0].(map[string]any)
	if !strings.Contains(content["text"].(string), "# X") {
		t.Errorf("text = %v", content["text"])
	}
	if !strings.Contains(content["text"].(string), "type: project") {
		t.Errorf("template not applied: %v", content["text"])
	}
}

func TestNotificationsReturn204(t *testing.T) {
	url, _ := newTestGateway(t)
	resp := postRPC(t, url, "", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)

	if resp.StatusCode != 204 {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("body = %q, want empty", body)
	}
}

func TestResourcesReadNote(t *testing.T) {
	url, dir := newTestGateway(t)
	os.WriteFile(filepath.Join(dir, "note.md"), []byte("hello"), 0o600)

	resp := postRPC(t, url, "", `{"jsonrpc":"2.0","method":"resources/read","params":{"uri":"vault://notes/note.md"},"id":1}`)
	result := decodeRPC(t, resp)["result"].(map[string]any)
	contents := result["contents"].([]any)[0].(map[string]any)
	if contents["text"] != "hello" {
		t.Errorf("text = %v", contents["text"])
	}
	if contents["mimeType"] != "text/markdown" {
		t.Errorf("mimeType = %v", contents["mimeType"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	url, _ := newTestGateway(t)
	resp, err := http.Get(url + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]string
	json.NewDecoder(resp.Body).Decode(&out)
	if out["status"] != "healthy" {
		t.Errorf("health = %v", out)
	}
}

func TestRootEndpoint(t *testing.T) {
	url, _ := newTestGateway(t)
	resp, err := http.Get(url + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	endpoints, ok := out["endpoints"].(map[string]any)
	if !ok || endpoints["mcp"] != "/mcp" {
		t.Errorf("root = %v", out)
	}
}

func TestTokenNeverEchoed(t *testing.T) {
	url, _ := newTestGateway(t)

	for _, body := range []string{
		`{"jsonrpc":"2.0","method":"initialize","id":1}`,
		`{"jsonrpc":"2.0","method":"tools/list","id":2}`,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"obs_read_note","arguments":{"path":"ghost.md"}},"id":3}`,
	} {
		resp := postRPC(t, url, "", body)
		raw, _ := io.ReadAll(resp.Body)
		if strings.Contains(string(raw), "test-token") {
			t.Fatalf("response leaked the upstream token: %s", raw)
		}
	}
}
