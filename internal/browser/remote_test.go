package browser

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"pkt.systems/pslog"
)

func TestPagesFromTargets(t *testing.T) {
	infos := []*target.Info{
		{TargetID: "sw", Type: "service_worker", URL: "https://a.example/sw.js"},
		{TargetID: "one", Type: "page", Title: "One", URL: "https://one.example"},
		nil,
		{TargetID: "two", Type: "page", Title: "Two", URL: "https://two.example"},
		{TargetID: "frame", Type: "iframe", URL: "https://ads.example"},
	}

	tabs := pagesFromTargets(infos)
	if len(tabs) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(tabs))
	}
	if tabs[0].ID != "one" || !tabs[0].Active {
		t.Errorf("expected first page to be active, got %+v", tabs[0])
	}
	if tabs[1].ID != "two" || tabs[1].Active {
		t.Errorf("expected second page to be inactive, got %+v", tabs[1])
	}
	if tabs[1].Title != "Two" || tabs[1].URL != "https://two.example" {
		t.Errorf("unexpected second page %+v", tabs[1])
	}
}

func TestRemoteAfterShutdown(t *testing.T) {
	logger := pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.ErrorLevel})
	r := NewRemote(context.Background(), "ws://127.0.0.1:1/devtools/browser/none", time.Second, logger)
	r.Shutdown()
	r.Shutdown()

	if _, err := r.List(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := r.Open(context.Background(), "https://example.com"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

// devtoolsServer answers the browser-level DevTools commands a Remote sends.
type devtoolsServer struct {
	srv *httptest.Server

	mu      sync.Mutex
	methods []string
}

func newDevtoolsServer(t *testing.T) *devtoolsServer {
	t.Helper()
	d := &devtoolsServer{}
	d.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(req, w)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			data, err := wsutil.ReadClientText(conn)
			if err != nil {
				return
			}
			var msg struct {
				ID     int64  `json:"id"`
				Method string `json:"method"`
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				return
			}
			reply, err := json.Marshal(map[string]any{"id": msg.ID, "result": d.answer(msg.Method)})
			if err != nil {
				return
			}
			if err := wsutil.WriteServerText(conn, reply); err != nil {
				return
			}
		}
	}))
	t.Cleanup(d.srv.Close)
	return d
}

func (d *devtoolsServer) url() string {
	return "ws" + strings.TrimPrefix(d.srv.URL, "http") + "/devtools/browser/test"
}

func (d *devtoolsServer) answer(method string) map[string]any {
	d.mu.Lock()
	d.methods = append(d.methods, method)
	d.mu.Unlock()
	switch method {
	case "Target.getTargets":
		return map[string]any{"targetInfos": []map[string]any{{
			"targetId":         "one",
			"type":             "page",
			"title":            "One",
			"url":              "https://one.example",
			"attached":         false,
			"canAccessOpener":  false,
			"browserContextId": "default",
		}}}
	case "Target.createTarget":
		return map[string]any{"targetId": "created"}
	default:
		return map[string]any{}
	}
}

func (d *devtoolsServer) count(method string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, m := range d.methods {
		if m == method {
			n++
		}
	}
	return n
}

func TestRemoteReusesConnectionAcrossCalls(t *testing.T) {
	d := newDevtoolsServer(t)
	logger := pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.ErrorLevel})
	r := NewRemote(context.Background(), d.url(), 5*time.Second, logger)
	defer r.Shutdown()

	for i := 0; i < 3; i++ {
		tabs, err := r.List(context.Background())
		if err != nil {
			t.Fatalf("list %d: %v", i, err)
		}
		if len(tabs) != 1 || tabs[0].ID != "one" || !tabs[0].Active {
			t.Fatalf("list %d: unexpected tabs %+v", i, tabs)
		}
	}
	for _, url := range []string{"https://a.example", "https://b.example"} {
		if err := r.Open(context.Background(), url); err != nil {
			t.Fatalf("open %s: %v", url, err)
		}
	}
	if _, err := r.List(context.Background()); err != nil {
		t.Fatalf("list after open: %v", err)
	}

	if got := d.count("Target.createTarget"); got != 2 {
		t.Errorf("expected 2 created targets, got %d", got)
	}
	// One dial plus four explicit lists.
	if got := d.count("Target.getTargets"); got != 5 {
		t.Errorf("expected 5 target listings, got %d", got)
	}
}

func TestRemoteCallerCancelDoesNotDropConnection(t *testing.T) {
	d := newDevtoolsServer(t)
	logger := pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.ErrorLevel})
	r := NewRemote(context.Background(), d.url(), 5*time.Second, logger)
	defer r.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := r.List(ctx); err != nil {
		t.Fatalf("first list: %v", err)
	}
	cancel()

	if _, err := r.List(context.Background()); err != nil {
		t.Fatalf("list after caller cancel: %v", err)
	}
}

func TestRemoteConnectFailure(t *testing.T) {
	logger := pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.ErrorLevel})
	r := NewRemote(context.Background(), "ws://127.0.0.1:1/devtools/browser/none", time.Second, logger)
	defer r.Shutdown()

	if _, err := r.List(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}
}
