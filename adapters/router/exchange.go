package exportrouter

import (
	"bytes"
	"context"
	"io"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-visual-export/adapters/exportapi"
)

// exchange presents a go-router context as the controller's request and
// response.
type exchange struct {
	c router.Context
}

var (
	_ exportapi.Request  = exchange{}
	_ exportapi.Response = exchange{}
)

func (e exchange) Context() context.Context {
	if ctx := e.c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (e exchange) Method() string            { return e.c.Method() }
func (e exchange) Path() string              { return e.c.Path() }
func (e exchange) Header(name string) string { return e.c.Header(name) }
func (e exchange) Query(name string) string  { return e.c.Query(name) }

func (e exchange) Body() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(e.c.Body()))
}

func (e exchange) SetHeader(name, value string) {
	e.c.SetHeader(name, value)
}

// DelHeader blanks the header; go-router has no delete.
func (e exchange) DelHeader(name string) {
	e.c.SetHeader(name, "")
}

func (e exchange) WriteHeader(status int) {
	e.c.Status(status)
}

func (e exchange) Write(data []byte) (int, error) {
	if err := e.c.Send(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (e exchange) WriteJSON(status int, payload any) error {
	return e.c.JSON(status, payload)
}
