package server

import (
	"encoding/json"
	"net/http"

	"obsidian-remote-mcp/internal/resources"
	"obsidian-remote-mcp/internal/tools"
)

const (
	// Results with text beyond this many bytes, or lists beyond
	// streamListThreshold items, are streamed to clients that accept SSE.
	streamTextThreshold = 1024
	streamListThreshold = 10

	// streamChunkSize is the text chunk size per SSE frame.
	streamChunkSize = 512
)

// streamPayload extracts the part of a result worth streaming: a large
// text body or a long list. Returns nil when the result should go out as
// one JSON response.
func streamPayload(result any) any {
	switch v := result.(type) {
	case *tools.Envelope:
		for _, part := range v.Content {
			if len(part.Text) > streamTextThreshold {
				return part.Text
			}
		}
	case toolsListResult:
		if len(v.Tools) > streamListThreshold {
			return toAnySlice(v.Tools)
		}
	case resourcesListResult:
		if len(v.Resources) > streamListThreshold {
			return toAnySlice(v.Resources)
		}
	case resourceReadResult:
		for _, c := range v.Contents {
			if len(c.Text) > streamTextThreshold {
				return c.Text
			}
		}
	}
	return nil
}

func toAnySlice[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// writeSSE streams a response: first the full JSON-RPC envelope, then the
// large payload as content chunks or list items, then a completion frame
// and the [DONE] sentinel. Frames stop early if the client goes away.
func writeSSE(w http.ResponseWriter, r *http.Request, resp response, payload any) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, 200, resp)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(200)

	writeFrame(w, flusher, resp)

	ctx := r.Context()
	switch data := payload.(type) {
	case string:
		for i := 0; i < len(data); i += streamChunkSize {
			if ctx.Err() != nil {
				return
			}
			end := i + streamChunkSize
			if end > len(data) {
				end = len(data)
			}
			writeFrame(w, flusher, map[string]any{
				"type":       "content",
				"chunk":      data[i:end],
				"isComplete": end == len(data),
			})
		}
	case []any:
		for i, item := range data {
			if ctx.Err() != nil {
				return
			}
			writeFrame(w, flusher, map[string]any{
				"type":       "list_item",
				"item":       item,
				"index":      i,
				"isComplete": i == len(data)-1,
			})
		}
	}

	writeFrame(w, flusher, map[string]any{"type": "complete", "message": "Streaming complete"})

	w.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
	flusher.Flush()
}

// resourceReadResult is the resources/read result shape.
type resourceReadResult struct {
	Contents []resourceContents `json:"contents"`
}

type resourceContents struct {
	URI      string         `json:"uri"`
	MIMEType string         `json:"mimeType"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// toolsListResult is the tools/list result shape.
type toolsListResult struct {
	Tools []toolDescriptor `json:"tools"`
}

// resourcesListResult is the resources/list result shape.
type resourcesListResult struct {
	Resources []resources.Resource `json:"resources"`
}
