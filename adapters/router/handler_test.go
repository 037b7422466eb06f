package exportrouter

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-visual-export/adapters/exportapi"
	exporthttp "github.com/goliatone/go-visual-export/adapters/http"
	"github.com/goliatone/go-visual-export/export"
)

func newTestConfig(t *testing.T, page *export.MemoryPage) exportapi.Config {
	t.Helper()
	runner := export.NewRunner()
	runner.Page = page
	runner.Overlay = export.NewMemoryOverlay()
	runner.Sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	runner.IDGenerator = func() string { return "exp-parity" }
	factory := func(format export.Format, opts export.Options) (export.Assembler, error) {
		return export.NewMemoryAssembler(format), nil
	}
	for _, format := range []export.Format{export.FormatDocument, export.FormatDeck} {
		if err := runner.Assemblers.Register(format, factory); err != nil {
			t.Fatalf("register %s: %v", format, err)
		}
	}
	return exportapi.Config{Service: export.NewService(export.ServiceConfig{Runner: runner})}
}

func defaultPage() *export.MemoryPage {
	regions := make([]export.MemoryRegion, 0, 6)
	for _, ref := range export.DefaultRegions() {
		regions = append(regions, export.MemoryRegion{ID: ref.ID, Width: 1280, Height: 720})
	}
	return export.NewMemoryPage(regions...)
}

func TestTransportParity_DeckExport(t *testing.T) {
	httpHandler := exporthttp.NewHandler(newTestConfig(t, defaultPage()))
	routerHandler := NewHandler(newTestConfig(t, defaultPage()))

	body := `{"entry":"navbar","filename":"Board"}`

	req := httptest.NewRequest(http.MethodPost, "/exports/deck", strings.NewReader(body))
	rec := httptest.NewRecorder()
	httpHandler.ServeHTTP(rec, req)

	routerCtx := newTestContext(http.MethodPost, "/exports/deck", []byte(body), nil, nil)
	if err := routerHandler.Handle(routerCtx); err != nil {
		t.Fatalf("router handle: %v", err)
	}

	if rec.Code != http.StatusOK || routerCtx.recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 from both transports: http=%d router=%d", rec.Code, routerCtx.recorder.Code)
	}
	for _, header := range []string{"Content-Type", "Content-Disposition", "X-Export-Id", "X-Export-Units"} {
		if rec.Header().Get(header) != routerCtx.recorder.Header().Get(header) {
			t.Fatalf("%s mismatch: http=%q router=%q", header, rec.Header().Get(header), routerCtx.recorder.Header().Get(header))
		}
	}
	if rec.Body.String() != routerCtx.recorder.Body.String() {
		t.Fatalf("body mismatch: http=%q router=%q", rec.Body.String(), routerCtx.recorder.Body.String())
	}
	if got := routerCtx.recorder.Header().Get("Content-Disposition"); got != `attachment; filename="Board.pptx"` {
		t.Fatalf("unexpected content disposition %q", got)
	}
}

func TestTransportParity_NoContent(t *testing.T) {
	httpHandler := exporthttp.NewHandler(newTestConfig(t, export.NewMemoryPage()))
	routerHandler := NewHandler(newTestConfig(t, export.NewMemoryPage()))

	req := httptest.NewRequest(http.MethodPost, "/exports/document", nil)
	rec := httptest.NewRecorder()
	httpHandler.ServeHTTP(rec, req)

	routerCtx := newTestContext(http.MethodPost, "/exports/document", nil, nil, nil)
	if err := routerHandler.Handle(routerCtx); err != nil {
		t.Fatalf("router handle: %v", err)
	}

	if rec.Code != routerCtx.recorder.Code || rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status mismatch: http=%d router=%d", rec.Code, routerCtx.recorder.Code)
	}
	var httpPayload, routerPayload exportapi.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &httpPayload); err != nil {
		t.Fatalf("decode http payload: %v", err)
	}
	if err := json.Unmarshal(routerCtx.recorder.Body.Bytes(), &routerPayload); err != nil {
		t.Fatalf("decode router payload: %v", err)
	}
	if httpPayload != routerPayload {
		t.Fatalf("payload mismatch: http=%+v router=%+v", httpPayload, routerPayload)
	}
}

func TestRouterStatus(t *testing.T) {
	routerHandler := NewHandler(newTestConfig(t, defaultPage()))

	routerCtx := newTestContext(http.MethodGet, "/exports/status", nil, nil, nil)
	if err := routerHandler.Handle(routerCtx); err != nil {
		t.Fatalf("router handle: %v", err)
	}
	var status exportapi.StatusResponse
	if err := json.Unmarshal(routerCtx.recorder.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.State != export.StateIdle {
		t.Fatalf("expected idle, got %s", status.State)
	}
}

type recordedRoute struct {
	method string
	path   string
}

type stubRegistrar struct {
	routes []recordedRoute
}

func (r *stubRegistrar) add(method, path string) router.RouteInfo {
	r.routes = append(r.routes, recordedRoute{method: method, path: path})
	return nil
}

func (r *stubRegistrar) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return r.add(http.MethodGet, path)
}

func (r *stubRegistrar) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return r.add(http.MethodPost, path)
}

func TestRegisterRoutes(t *testing.T) {
	cfg := newTestConfig(t, defaultPage())
	cfg.BasePath = "/api/visual"
	registrar := &stubRegistrar{}
	NewHandler(cfg).RegisterRoutes(registrar)

	expected := []recordedRoute{
		{http.MethodPost, "/api/visual/document"},
		{http.MethodPost, "/api/visual/deck"},
		{http.MethodGet, "/api/visual/status"},
	}
	if len(registrar.routes) != len(expected) {
		t.Fatalf("expected %d routes, got %+v", len(expected), registrar.routes)
	}
	for i, route := range expected {
		if registrar.routes[i] != route {
			t.Fatalf("route %d: expected %+v, got %+v", i, route, registrar.routes[i])
		}
	}
}

type testContext struct {
	method        string
	path          string
	body          []byte
	query         map[string]string
	headers       map[string]string
	params        map[string]string
	locals        map[any]any
	ctx           context.Context
	recorder      *httptest.ResponseRecorder
	statusWritten bool
	status        int
	sendCalled    bool
}

func newTestContext(method, path string, body []byte, headers map[string]string, query map[string]string) *testContext {
	if headers == nil {
		headers = make(map[string]string)
	}
	if query == nil {
		query = make(map[string]string)
	}
	return &testContext{
		method:   method,
		path:     path,
		body:     body,
		query:    query,
		headers:  headers,
		params:   make(map[string]string),
		locals:   make(map[any]any),
		ctx:      context.Background(),
		recorder: httptest.NewRecorder(),
	}
}

func (c *testContext) Bind(v any) error {
	if len(c.body) == 0 {
		return nil
	}
	return json.Unmarshal(c.body, v)
}

func (c *testContext) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *testContext) SetContext(ctx context.Context) {
	c.ctx = ctx
}

func (c *testContext) Next() error { return nil }

func (c *testContext) RouteName() string { return "" }

func (c *testContext) RouteParams() map[string]string { return c.params }

func (c *testContext) Method() string { return c.method }

func (c *testContext) Path() string { return c.path }

func (c *testContext) Param(name string, defaultValue ...string) string {
	if val, ok := c.params[name]; ok {
		return val
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) ParamsInt(key string, defaultValue int) int {
	val := c.Param(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (c *testContext) Query(name string, defaultValue ...string) string {
	if val, ok := c.query[name]; ok {
		return val
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) QueryValues(name string) []string {
	if val, ok := c.query[name]; ok {
		return []string{val}
	}
	return nil
}

func (c *testContext) QueryInt(name string, defaultValue int) int {
	val := c.Query(name)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (c *testContext) Queries() map[string]string { return c.query }

func (c *testContext) Body() []byte { return c.body }

func (c *testContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		c.locals[key] = value[0]
		return value[0]
	}
	return c.locals[key]
}

func (c *testContext) LocalsMerge(key any, value map[string]any) map[string]any {
	merged, _ := c.locals[key].(map[string]any)
	if merged == nil {
		merged = map[string]any{}
	}
	for k, v := range value {
		merged[k] = v
	}
	c.locals[key] = merged
	return merged
}

func (c *testContext) Render(name string, bind any, layouts ...string) error {
	return nil
}

func (c *testContext) Cookie(cookie *router.Cookie) {}

func (c *testContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) CookieParser(out any) error { return nil }

func (c *testContext) Redirect(location string, status ...int) error {
	code := http.StatusFound
	if len(status) > 0 {
		code = status[0]
	}
	c.SetHeader("Location", location)
	c.writeHeader(code)
	return nil
}

func (c *testContext) RedirectToRoute(routeName string, params router.ViewContext, status ...int) error {
	return nil
}

func (c *testContext) RedirectBack(fallback string, status ...int) error {
	return nil
}

func (c *testContext) Header(name string) string {
	return c.headers[name]
}

func (c *testContext) Referer() string { return "" }

func (c *testContext) OriginalURL() string { return c.path }

func (c *testContext) FormFile(key string) (*multipart.FileHeader, error) {
	return nil, nil
}

func (c *testContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) IP() string { return "127.0.0.1" }

func (c *testContext) Status(code int) router.Context {
	c.writeHeader(code)
	return c
}

func (c *testContext) Send(body []byte) error {
	c.sendCalled = true
	if !c.statusWritten {
		c.writeHeader(http.StatusOK)
	}
	_, err := c.recorder.Write(body)
	return err
}

func (c *testContext) SendString(body string) error {
	return c.Send([]byte(body))
}

func (c *testContext) SendStatus(code int) error {
	c.writeHeader(code)
	return nil
}

func (c *testContext) JSON(code int, v any) error {
	c.recorder.Header().Set("Content-Type", "application/json")
	c.writeHeader(code)
	return json.NewEncoder(c.recorder).Encode(v)
}

func (c *testContext) SendStream(r io.Reader) error {
	if !c.statusWritten {
		c.writeHeader(http.StatusOK)
	}
	_, err := io.Copy(c.recorder, r)
	return err
}

func (c *testContext) NoContent(code int) error {
	c.writeHeader(code)
	return nil
}

func (c *testContext) SetHeader(key, val string) router.Context {
	c.recorder.Header().Set(key, val)
	return c
}

func (c *testContext) Set(key string, value any) {
	c.locals[key] = value
}

func (c *testContext) Get(key string, def any) any {
	if val, ok := c.locals[key]; ok {
		return val
	}
	return def
}

func (c *testContext) GetString(key string, def string) string {
	if val, ok := c.locals[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return def
}

func (c *testContext) GetInt(key string, def int) int {
	if val, ok := c.locals[key]; ok {
		if num, ok := val.(int); ok {
			return num
		}
	}
	return def
}

func (c *testContext) GetBool(key string, def bool) bool {
	if val, ok := c.locals[key]; ok {
		if flag, ok := val.(bool); ok {
			return flag
		}
	}
	return def
}

func (c *testContext) writeHeader(code int) {
	if c.statusWritten {
		c.status = code
		return
	}
	c.statusWritten = true
	c.status = code
	c.recorder.WriteHeader(code)
}

var _ router.Context = (*testContext)(nil)
