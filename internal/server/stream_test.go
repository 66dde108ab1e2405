package server

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"obsidian-remote-mcp/internal/tools"
)

// readFrames splits an SSE body into its data payloads.
func readFrames(t *testing.T, resp io.Reader) []string {
	t.Helper()
	raw, err := io.ReadAll(resp)
	if err != nil {
		t.Fatal(err)
	}
	var frames []string
	for _, block := range strings.Split(string(raw), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if !strings.HasPrefix(block, "data: ") {
			t.Fatalf("malformed frame %q", block)
		}
		frames = append(frames, strings.TrimPrefix(block, "data: "))
	}
	return frames
}

func frameType(t *testing.T, frame string) (string, map[string]any) {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal([]byte(frame), &obj); err != nil {
		t.Fatalf("frame %q: %v", frame, err)
	}
	typ, _ := obj["type"].(string)
	return typ, obj
}

func TestStreamPayloadSelection(t *testing.T) {
	small := tools.Text("short")
	if got := streamPayload(small); got != nil {
		t.Errorf("small envelope should not stream, got %v", got)
	}

	big := tools.Text(strings.Repeat("x", streamTextThreshold+1))
	if got := streamPayload(big); got == nil {
		t.Error("oversized envelope text should stream")
	}

	shortList := resourcesListResult{}
	if got := streamPayload(shortList); got != nil {
		t.Errorf("empty list should not stream, got %v", got)
	}

	if got := streamPayload("bare string"); got != nil {
		t.Errorf("unknown result shapes should not stream, got %v", got)
	}
}

func TestLargeNoteStreamsInChunks(t *testing.T) {
	url, dir := newTestGateway(t)

	content := strings.Repeat("a", 2*streamChunkSize) + strings.Repeat("b", 100)
	os.WriteFile(filepath.Join(dir, "big.md"), []byte(content), 0o600)

	body := `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"obs_read_note","arguments":{"path":"big.md"}},"id":1}`
	resp := postRPC(t, url, "text/event-stream", body)

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	frames := readFrames(t, resp.Body)

	// Envelope, three content chunks, complete, [DONE].
	if len(frames) != 6 {
		t.Fatalf("got %d frames, want 6: %v", len(frames), frames)
	}

	var envelope map[string]any
	if err := json.Unmarshal([]byte(frames[0]), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope["jsonrpc"] != "2.0" {
		t.Errorf("first frame must be the JSON-RPC envelope: %v", envelope)
	}

	var rebuilt strings.Builder
	for i, frame := range frames[1:4] {
		typ, obj := frameType(t, frame)
		if typ != "content" {
			t.Fatalf("frame %d type = %q", i+1, typ)
		}
		chunk := obj["chunk"].(string)
		rebuilt.WriteString(chunk)
		wantLast := i == 2
		if obj["isComplete"].(bool) != wantLast {
			t.Errorf("frame %d isComplete = %v, want %v", i+1, obj["isComplete"], wantLast)
		}
		if !wantLast && len(chunk) != streamChunkSize {
			t.Errorf("frame %d chunk size = %d, want %d", i+1, len(chunk), streamChunkSize)
		}
	}
	if rebuilt.String() != content {
		t.Error("concatenated chunks must reproduce the note body")
	}

	if typ, obj := frameType(t, frames[4]); typ != "complete" || obj["message"] != "Streaming complete" {
		t.Errorf("completion frame = %s", frames[4])
	}
	if frames[5] != "[DONE]" {
		t.Errorf("final frame = %q, want [DONE]", frames[5])
	}
}

func TestLongResourceListStreamsPerItem(t *testing.T) {
	url, dir := newTestGateway(t)

	for i := 0; i < streamListThreshold+2; i++ {
		name := fmt.Sprintf("note-%02d.md", i)
		os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600)
	}

	resp := postRPC(t, url, "text/event-stream", `{"jsonrpc":"2.0","method":"resources/list","id":1}`)
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	frames := readFrames(t, resp.Body)

	var items int
	for _, frame := range frames[1 : len(frames)-2] {
		typ, obj := frameType(t, frame)
		if typ != "list_item" {
			t.Fatalf("frame type = %q, want list_item", typ)
		}
		if int(obj["index"].(float64)) != items {
			t.Errorf("index = %v, want %d", obj["index"], items)
		}
		items++
	}
	// Root folder resource plus one per note.
	if items != streamListThreshold+3 {
		t.Errorf("streamed %d items, want %d", items, streamListThreshold+3)
	}

	typ, obj := frameType(t, frames[len(frames)-3])
	if typ != "list_item" || obj["isComplete"] != true {
		t.Errorf("last item frame = %v", obj)
	}
	if frames[len(frames)-1] != "[DONE]" {
		t.Errorf("final frame = %q", frames[len(frames)-1])
	}
}

func TestSmallResultStaysUnary(t *testing.T) {
	url, dir := newTestGateway(t)
	os.WriteFile(filepath.Join(dir, "small.md"), []byte("tiny"), 0o600)

	body := `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"obs_read_note","arguments":{"path":"small.md"}},"id":1}`
	resp := postRPC(t, url, "text/event-stream", body)

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	out := decodeRPC(t, resp)
	if out["result"] == nil {
		t.Errorf("response = %v", out)
	}
}

func TestLargeResultWithoutAcceptStaysUnary(t *testing.T) {
	url, dir := newTestGateway(t)
	os.WriteFile(filepath.Join(dir, "big.md"), []byte(strings.Repeat("a", 4096)), 0o600)

	body := `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"obs_read_note","arguments":{"path":"big.md"}},"id":1}`
	resp := postRPC(t, url, "", body)

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	result := decodeRPC(t, resp)["result"].(map[string]any)
	content := result["content"].([]any)[0].(map[string]any)
	if len(content["text"].(string)) != 4096 {
		t.Errorf("text length = %d", len(content["text"].(string)))
	}
}
