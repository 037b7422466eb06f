package exporthttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/goliatone/go-visual-export/adapters/exportapi"
)

// exchange is one request/response pair seen by the controller.
type exchange struct {
	w http.ResponseWriter
	r *http.Request
}

var (
	_ exportapi.Request  = exchange{}
	_ exportapi.Response = exchange{}
)

func (e exchange) Context() context.Context {
	if e.r == nil {
		return context.Background()
	}
	return e.r.Context()
}

func (e exchange) Method() string {
	if e.r == nil {
		return ""
	}
	return e.r.Method
}

func (e exchange) Path() string {
	if e.r == nil || e.r.URL == nil {
		return ""
	}
	return e.r.URL.Path
}

func (e exchange) Header(name string) string {
	if e.r == nil {
		return ""
	}
	return e.r.Header.Get(name)
}

func (e exchange) Query(name string) string {
	if e.r == nil || e.r.URL == nil {
		return ""
	}
	return e.r.URL.Query().Get(name)
}

func (e exchange) Body() io.ReadCloser {
	if e.r == nil || e.r.Body == nil {
		return http.NoBody
	}
	return e.r.Body
}

func (e exchange) SetHeader(name, value string) {
	e.w.Header().Set(name, value)
}

func (e exchange) DelHeader(name string) {
	e.w.Header().Del(name)
}

func (e exchange) WriteHeader(status int) {
	e.w.WriteHeader(status)
}

func (e exchange) Write(data []byte) (int, error) {
	return e.w.Write(data)
}

func (e exchange) WriteJSON(status int, payload any) error {
	e.w.Header().Set("Content-Type", "application/json")
	e.w.WriteHeader(status)
	return json.NewEncoder(e.w).Encode(payload)
}
