// Package server exposes the gateway over HTTP as a JSON-RPC 2.0 endpoint
// with optional SSE streaming for large results.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"obsidian-remote-mcp/internal/resources"
	"obsidian-remote-mcp/internal/tools"
)

const (
	serviceName     = "obsidian-mcp-gateway"
	serviceVersion  = "1.0.0"
	protocolVersion = "2024-11-05"
)

// toolDescriptor is how one tool appears in tools/list output.
type toolDescriptor struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	InputSchema mcp.ToolInputSchema `json:"inputSchema"`
}

// Server is the HTTP front end. It owns no vault logic; everything is
// delegated to the tool registry and the resource router.
type Server struct {
	reg    *tools.Registry
	router *resources.Router
	log    *slog.Logger
	mux    *http.ServeMux
}

// New builds a server over a tool registry and resource router.
func New(reg *tools.Registry, router *resources.Router, log *slog.Logger) *Server {
	s := &Server{reg: reg, router: router, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("POST /mcp", s.handleMCP)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "healthy", "service": serviceName})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{
		"name":    serviceName,
		"version": serviceVersion,
		"endpoints": map[string]string{
			"mcp":    "/mcp",
			"health": "/health",
		},
	})
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, 400, errorResponse(nil, codeParseError, "Parse error", nil))
		return
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, 400, errorResponse(nil, codeParseError, "Parse error", nil))
		return
	}
	if req.JSONRPC != "2.0" {
		writeJSON(w, 400, errorResponse(req.ID, codeInvalidRequest, "Invalid Request", "invalid or missing jsonrpc version"))
		return
	}
	if req.Method == "" {
		writeJSON(w, 400, errorResponse(req.ID, codeInvalidRequest, "Invalid Request", "missing method field"))
		return
	}

	// Notifications get acknowledged, never answered.
	if strings.HasPrefix(req.Method, "notifications/") {
		w.WriteHeader(204)
		return
	}

	started := time.Now()
	result, err := s.dispatch(r.Context(), &req)
	if err != nil {
		errObj := mapError(err)
		s.log.Warn("request failed", "method", req.Method, "code", errObj.Code, "error", err)
		writeJSON(w, httpStatusFor(errObj.Code), response{JSONRPC: "2.0", ID: req.ID, Error: errObj})
		return
	}
	s.log.Debug("request handled", "method", req.Method, "duration", time.Since(started))

	resp := resultResponse(req.ID, result)
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		if payload := streamPayload(result); payload != nil {
			writeSSE(w, r, resp, payload)
			return
		}
	}
	writeJSON(w, 200, resp)
}

// dispatch routes one validated JSON-RPC request.
func (s *Server) dispatch(ctx context.Context, req *request) (any, error) {
	switch req.Method {
	case "ping":
		return map[string]any{
			"message":   "pong",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"serverInfo": map[string]string{
				"name":    serviceName,
				"version": serviceVersion,
			},
		}, nil

	case "initialize":
		return map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{"listChanged": true},
				"resources": map[string]any{"subscribe": true, "listChanged": true},
				"logging":   map[string]any{},
			},
			"serverInfo": map[string]string{
				"name":    serviceName,
				"version": serviceVersion,
			},
		}, nil

	case "tools/list":
		catalogue := s.reg.Tools()
		out := toolsListResult{Tools: make([]toolDescriptor, 0, len(catalogue))}
		for _, t := range catalogue {
			out.Tools = append(out.Tools, toolDescriptor{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: t.InputSchema,
			})
		}
		return out, nil

	case "tools/call":
		var params struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, err
		}
		if params.Name == "" {
			return nil, &tools.InvalidArgsError{Tool: "tools/call", Reasons: []string{"missing tool name"}}
		}
		return s.reg.Call(ctx, params.Name, params.Arguments)

	case "resources/list":
		list, err := s.router.List(ctx)
		if err != nil {
			return nil, err
		}
		return resourcesListResult{Resources: list}, nil

	case "resources/read":
		var params struct {
			URI string `json:"uri"`
		}
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, err
		}
		if params.URI == "" {
			return nil, &resources.ErrBadURI{URI: "", Reason: "missing resource uri"}
		}
		content, err := s.router.Read(ctx, params.URI)
		if err != nil {
			return nil, err
		}
		return resourceReadResult{Contents: []resourceContents{{
			URI:      content.URI,
			MIMEType: content.MIMEType,
			Text:     content.Text,
			Metadata: content.Metadata,
		}}}, nil

	default:
		return nil, &methodNotFoundError{Method: req.Method}
	}
}

func decodeParams(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return &tools.InvalidArgsError{Tool: "params", Reasons: []string{"missing params"}}
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return &tools.InvalidArgsError{Tool: "params", Reasons: []string{fmt.Sprintf("malformed params: %v", err)}}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
