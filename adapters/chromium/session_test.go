package exportchromium

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/goliatone/go-visual-export/export"
)

func chromeBinaryPath(t *testing.T) string {
	t.Helper()

	chromePath := os.Getenv("CHROME_BIN")
	if chromePath == "" {
		for _, candidate := range []string{"google-chrome", "chromium", "chromium-browser"} {
			if path, err := exec.LookPath(candidate); err == nil {
				chromePath = path
				break
			}
		}
	}
	if chromePath == "" {
		t.Skip("chromium binary not found; set CHROME_BIN to run this test")
	}
	return chromePath
}

func TestScriptsEscapeRegionIDs(t *testing.T) {
	script := presentScript(`x"); alert("pwned`)
	if !strings.Contains(script, `"x\"); alert(\"pwned"`) {
		t.Fatalf("expected region id to be JSON escaped, got %s", script)
	}
}

func TestApplyScriptEmbedsOverrides(t *testing.T) {
	script, err := applyScript("overview", export.StyleOverrides{"min-height": "100vh"})
	if err != nil {
		t.Fatalf("apply script: %v", err)
	}
	if !strings.Contains(script, `{"min-height":"100vh"}`) || !strings.Contains(script, `"important"`) {
		t.Fatalf("unexpected script %s", script)
	}
}

func TestRestoreScriptCarriesSnapshot(t *testing.T) {
	script := restoreScript(export.StyleSnapshot{RegionID: "pipeline", CSSText: "color: red;"})
	if !strings.Contains(script, `el.style.cssText = "color: red;"`) {
		t.Fatalf("unexpected script %s", script)
	}
}

func TestOverlayScriptsTargetOverlay(t *testing.T) {
	for _, script := range []string{overlayShowScript("Capturing (1/6)"), overlayUpdateScript("x"), overlayHideScript(), overlayVisibilityScript(false)} {
		if !strings.Contains(script, `"`+overlayID+`"`) {
			t.Fatalf("script does not target overlay: %s", script)
		}
	}
	if !strings.Contains(overlayVisibilityScript(false), `"hidden"`) {
		t.Fatalf("expected hidden visibility")
	}
}

func TestExecAllocatorOptions(t *testing.T) {
	base := len(chromedp.DefaultExecAllocatorOptions)
	options := ExecAllocatorOptions("", true, []string{"--no-sandbox", " ", "--window-size=800,600", "--"})
	if len(options) != base+3 {
		t.Fatalf("expected %d options, got %d", base+3, len(options))
	}
	withPath := ExecAllocatorOptions("/usr/bin/chromium", false, nil)
	if len(withPath) != base+2 {
		t.Fatalf("expected %d options, got %d", base+2, len(withPath))
	}
}

func TestBindContextFollowsCaller(t *testing.T) {
	caller, cancelCaller := context.WithCancel(context.Background())
	ctx, cancel := bindContext(context.Background(), caller, 0)
	defer cancel()

	cancelCaller()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected run context to end with the caller")
	}
}

func TestBindContextDeadlines(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	caller, cancelCaller := context.WithDeadline(context.Background(), deadline)
	defer cancelCaller()

	ctx, cancel := bindContext(context.Background(), caller, 0)
	if got, ok := ctx.Deadline(); !ok || !got.Equal(deadline) {
		t.Fatalf("expected caller deadline %v, got %v (%v)", deadline, got, ok)
	}
	cancel()
	if ctx.Err() == nil {
		t.Fatalf("expected cancel to end the run context")
	}

	ctx, cancel = bindContext(context.Background(), caller, time.Minute)
	defer cancel()
	if got, ok := ctx.Deadline(); !ok || got.After(time.Now().Add(time.Minute)) {
		t.Fatalf("expected session timeout to shorten the deadline, got %v", got)
	}
	if caller.Err() != nil {
		t.Fatalf("run context must not cancel the caller")
	}
}

func TestPrepareRequiresURL(t *testing.T) {
	session := NewSession(Config{})
	if err := session.Prepare(context.Background()); err == nil {
		t.Fatalf("expected error without url")
	}
}

const smokePage = `<!DOCTYPE html>
<html><body style="margin:0">
<section id="overview" style="height:400px;background:#0ea5e9">Overview</section>
<section id="capabilities" style="height:300px;background:#22c55e"><img src="http://127.0.0.1:1/missing.png"></section>
<section id="deployment" style="width:0;overflow:hidden">Collapsed</section>
</body></html>`

func TestSessionRunsExportSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping chromium smoke test in short mode")
	}
	chromePath := chromeBinaryPath(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(smokePage))
	}))
	defer server.Close()

	session := NewSession(Config{
		BrowserPath:       chromePath,
		Headless:          true,
		Args:              []string{"--no-sandbox", "--disable-dev-shm-usage"},
		Timeout:           15 * time.Second,
		URL:               server.URL,
		PlaceholderAssets: true,
	})
	t.Cleanup(func() {
		_ = session.Close()
	})

	runner := export.NewRunner()
	runner.Page = session
	runner.Overlay = session
	saver := export.NewMemorySaver()
	runner.Saver = saver
	_ = runner.Assemblers.Register(export.FormatDeck, func(format export.Format, opts export.Options) (export.Assembler, error) {
		return export.NewMemoryAssembler(format), nil
	})

	opts := export.Options{Settle: 50 * time.Millisecond, ReadyTimeout: 500 * time.Millisecond}
	result, err := runner.Run(context.Background(), export.ExportRequest{Format: export.FormatDeck, Options: opts})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Units != 2 || len(result.Skipped) != 1 || result.Skipped[0].ID != "deployment" {
		t.Fatalf("unexpected result %+v", result)
	}

	snapshot, err := session.SnapshotStyle(context.Background(), "overview")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if strings.Contains(snapshot.CSSText, "min-height") {
		t.Fatalf("expected overrides removed, got %q", snapshot.CSSText)
	}
	present, err := session.RegionPresent(context.Background(), overlayID)
	if err != nil {
		t.Fatalf("present: %v", err)
	}
	if present {
		t.Fatalf("expected overlay removed after export")
	}
	if len(saver.Artifacts()) != 1 {
		t.Fatalf("expected one saved artifact")
	}
}
