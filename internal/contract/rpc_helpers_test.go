package contract

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// rpcHandler answers one JSON-RPC method. Returning a non-nil rpcErr sends a
// JSON-RPC error object instead of a result.
type rpcHandler func(params []json.RawMessage) (result any, rpcErr map[string]any)

// rpcServer serves the given handlers; unknown methods get "method not found".
func rpcServer(t *testing.T, handlers map[string]rpcHandler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
			ID     int               `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if h, ok := handlers[req.Method]; ok {
			result, rpcErr := h(req.Params)
			if rpcErr != nil {
				resp["error"] = rpcErr
			} else {
				resp["result"] = result
			}
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fixed returns a handler with a constant result.
func fixed(result any) rpcHandler {
	return func([]json.RawMessage) (any, map[string]any) { return result, nil }
}

// failing returns a handler that always answers with an RPC error.
func failing(code int, msg string, data any) rpcHandler {
	return func([]json.RawMessage) (any, map[string]any) {
		e := map[string]any{"code": code, "message": msg}
		if data != nil {
			e["data"] = data
		}
		return nil, e
	}
}
