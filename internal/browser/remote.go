// Package browser talks to a running Chromium over the DevTools protocol.
// Start the browser with --remote-debugging-port to make its tabs reachable.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/azye/tabdog/pkg/models"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"pkt.systems/pslog"
)

// DefaultTimeout bounds each browser call.
const DefaultTimeout = 15 * time.Second

// ErrClosed is returned after Close.
var ErrClosed = errors.New("browser connection closed")

// Remote is a tab source backed by a browser's remote debugging endpoint.
// The connection is made on first use and reused by every later call.
type Remote struct {
	url     string
	timeout time.Duration
	log     pslog.Logger

	mu            sync.Mutex
	closed        bool
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewRemote prepares a connection to remoteURL, either the http debugging
// endpoint or a ws:// browser URL.
func NewRemote(ctx context.Context, remoteURL string, timeout time.Duration, logger pslog.Logger) *Remote {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.WithoutCancel(ctx), remoteURL)
	return &Remote{
		url:         remoteURL,
		timeout:     timeout,
		log:         logger.With("browser", remoteURL),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}
}

// connect returns the browser context, dialing the browser if needed.
// chromedp ties the websocket to the context it was allocated with, so the
// dial runs on the long-lived browser context and the wait is bounded
// separately.
func (r *Remote) connect(ctx context.Context) (context.Context, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.browserCtx != nil {
		return r.browserCtx, nil
	}

	bctx, bcancel := chromedp.NewContext(r.allocCtx)
	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	// Targets dials without creating a tab of its own.
	errCh := make(chan error, 1)
	go func() {
		_, err := chromedp.Targets(bctx)
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			bcancel()
			r.log.Warn("browser connect failed", "err", err)
			return nil, fmt.Errorf("failed to connect to browser at %s: %w", r.url, err)
		}
	case <-timer.C:
		bcancel()
		r.log.Warn("browser connect timed out", "timeout", r.timeout)
		return nil, fmt.Errorf("failed to connect to browser at %s: timed out after %s", r.url, r.timeout)
	case <-ctx.Done():
		bcancel()
		return nil, ctx.Err()
	}
	r.browserCtx, r.browserCancel = bctx, bcancel
	r.log.Debug("browser connected")
	return bctx, nil
}

// call derives a chromedp context bounded by the timeout and by ctx.
func (r *Remote) call(ctx context.Context) (context.Context, context.CancelFunc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bctx, err := r.connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	cctx, cancel := context.WithTimeout(bctx, r.timeout)
	stop := context.AfterFunc(ctx, cancel)
	return cctx, func() {
		stop()
		cancel()
	}, nil
}

// List returns every open page in the order the browser reports them. The
// protocol has no notion of a focused tab; the first page is treated as active
// since the browser lists the most recently focused page first.
func (r *Remote) List(ctx context.Context) ([]models.LiveTab, error) {
	cctx, cancel, err := r.call(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	infos, err := chromedp.Targets(cctx)
	if err != nil {
		r.log.Warn("browser list targets failed", "err", err)
		return nil, fmt.Errorf("failed to list browser tabs at %s: %w", r.url, err)
	}
	tabs := pagesFromTargets(infos)
	r.log.Debug("browser tabs listed", "tabs", len(tabs))
	return tabs, nil
}

// Close closes the given tabs in order. It stops at the first failure.
func (r *Remote) Close(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := r.closeOne(ctx, id); err != nil {
			r.log.Warn("browser close tab failed", "tab", id, "err", err)
			return fmt.Errorf("failed to close tab %s: %w", id, err)
		}
	}
	r.log.Debug("browser tabs closed", "tabs", len(ids))
	return nil
}

func (r *Remote) closeOne(ctx context.Context, id string) error {
	cctx, cancel, err := r.call(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(cctx, chromedp.WithTargetID(target.ID(id)))
	defer tabCancel()
	return chromedp.Run(tabCtx, page.Close())
}

// Open creates a new tab at url.
func (r *Remote) Open(ctx context.Context, url string) error {
	cctx, cancel, err := r.call(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	c := chromedp.FromContext(cctx)
	id, err := target.CreateTarget(url).Do(cdp.WithExecutor(cctx, c.Browser))
	if err != nil {
		r.log.Warn("browser open tab failed", "url", url, "err", err)
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	r.log.Trace("browser tab opened", "tab", string(id), "url", url)
	return nil
}

// Shutdown drops the connection. The browser keeps running.
func (r *Remote) Shutdown() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	cancel := r.browserCancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.allocCancel()
}

func pagesFromTargets(infos []*target.Info) []models.LiveTab {
	var tabs []models.LiveTab
	for _, info := range infos {
		if info == nil || info.Type != "page" {
			continue
		}
		tabs = append(tabs, models.LiveTab{
			ID:       string(info.TargetID),
			Title:    info.Title,
			URL:      info.URL,
			Active:   len(tabs) == 0,
			WindowID: string(info.BrowserContextID),
		})
	}
	return tabs
}
