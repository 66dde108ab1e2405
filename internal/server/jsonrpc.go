package server

import (
	"encoding/json"
	"errors"

	"obsidian-remote-mcp/internal/obsidian"
	"obsidian-remote-mcp/internal/resources"
	"obsidian-remote-mcp/internal/tools"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// request is an incoming JSON-RPC 2.0 request.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// errorObject is the error member of a JSON-RPC response.
type errorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// response is an outgoing JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *errorObject    `json:"error,omitempty"`
}

func resultResponse(id json.RawMessage, result any) response {
	return response{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string, data any) response {
	return response{JSONRPC: "2.0", ID: id, Error: &errorObject{Code: code, Message: message, Data: data}}
}

// methodNotFoundError is an unrecognized JSON-RPC method.
type methodNotFoundError struct {
	Method string
}

func (e *methodNotFoundError) Error() string {
	return "method not found: " + e.Method
}

// mapError converts a dispatch failure into a JSON-RPC error object.
// Unknown tools route to method-not-found; argument and URI problems to
// invalid-params; everything from the upstream, including not-found notes,
// surfaces as an internal error with detail in data.
func mapError(err error) *errorObject {
	var notFound *methodNotFoundError
	if errors.As(err, &notFound) {
		return &errorObject{Code: codeMethodNotFound, Message: "Method not found", Data: notFound.Error()}
	}

	var unknownTool *tools.UnknownToolError
	if errors.As(err, &unknownTool) {
		return &errorObject{Code: codeMethodNotFound, Message: "Method not found", Data: unknownTool.Error()}
	}

	var invalidArgs *tools.InvalidArgsError
	if errors.As(err, &invalidArgs) {
		return &errorObject{Code: codeInvalidParams, Message: "Invalid params", Data: invalidArgs.Reasons}
	}

	var badURI *resources.ErrBadURI
	if errors.As(err, &badURI) {
		return &errorObject{Code: codeInvalidParams, Message: "Invalid params", Data: badURI.Error()}
	}

	var apiErr *obsidian.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Kind == obsidian.KindBadPath {
			return &errorObject{Code: codeInvalidParams, Message: "Invalid params", Data: apiErr.Message}
		}
		return &errorObject{Code: codeInternalError, Message: "Internal error", Data: map[string]any{
			"kind":    apiErr.Kind.String(),
			"status":  apiErr.StatusCode,
			"message": apiErr.Message,
		}}
	}

	return &errorObject{Code: codeInternalError, Message: "Internal error", Data: err.Error()}
}

// httpStatusFor picks the HTTP status carrying a JSON-RPC error response.
func httpStatusFor(code int) int {
	switch code {
	case codeParseError, codeInvalidRequest, codeInvalidParams:
		return 400
	case codeMethodNotFound:
		return 404
	default:
		return 500
	}
}
