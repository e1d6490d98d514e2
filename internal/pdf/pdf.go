// Package pdf turns rendered post pages into PDF documents with a headless
// Chrome driven through go-rod.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// Renderer converts a complete HTML document into a PDF.
type Renderer interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// ErrDisabled is returned by Disabled.
var ErrDisabled = errors.New("pdf: export disabled")

// Disabled is the Renderer used when PDF export is switched off.
type Disabled struct{}

func (Disabled) Render(context.Context, []byte) ([]byte, error) { return nil, ErrDisabled }

// A4 portrait in inches, the unit Chrome's printToPDF expects.
const (
	a4Width  = 8.27
	a4Height = 11.69
	cm       = 1 / 2.54
)

// Options control the printed page.
type Options struct {
	// ChromeBin is the browser binary; empty lets go-rod find or download one.
	ChromeBin string
	// MarginCM is the border on every side in centimetres. Defaults to 1.
	MarginCM  float64
	Landscape bool
}

// ChromeRenderer prints through a lazily launched headless browser that is
// shared by all requests; every render gets its own tab.
type ChromeRenderer struct {
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewChromeRenderer returns a renderer. The browser starts on first use.
func NewChromeRenderer(opts Options, logger *slog.Logger) *ChromeRenderer {
	if opts.MarginCM <= 0 {
		opts.MarginCM = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromeRenderer{opts: opts, logger: logger}
}

// Render loads html into a fresh tab and prints it. There is no timeout
// beyond ctx.
func (c *ChromeRenderer) Render(ctx context.Context, html []byte) ([]byte, error) {
	browser, err := c.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		if browserFault(ctx) {
			c.reset()
		}
		return nil, fmt.Errorf("pdf: open page: %w", err)
	}
	defer page.Close() //nolint:errcheck

	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("pdf: load document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("pdf: wait load: %w", err)
	}

	margin := c.opts.MarginCM * cm
	stream, err := page.PDF(&proto.PagePrintToPDF{
		Landscape:       c.opts.Landscape,
		PrintBackground: true,
		PaperWidth:      gson.Num(a4Width),
		PaperHeight:     gson.Num(a4Height),
		MarginTop:       gson.Num(margin),
		MarginBottom:    gson.Num(margin),
		MarginLeft:      gson.Num(margin),
		MarginRight:     gson.Num(margin),
	})
	if err != nil {
		return nil, fmt.Errorf("pdf: print: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("pdf: read stream: %w", err)
	}
	return data, nil
}

func (c *ChromeRenderer) connect() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser != nil {
		return c.browser, nil
	}

	l := launcher.New().Headless(true)
	if c.opts.ChromeBin != "" {
		l = l.Bin(c.opts.ChromeBin)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("pdf: launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("pdf: connect browser: %w", err)
	}
	c.logger.Info("pdf: browser started", slog.String("control_url", u))
	c.launcher, c.browser = l, browser
	return browser, nil
}

// browserFault reports whether a failed call is the browser's fault rather
// than the caller giving up. A cancelled request must not kill the browser
// other renders share.
func browserFault(ctx context.Context) bool {
	return ctx.Err() == nil
}

// reset drops a browser that stopped answering so the next render relaunches it.
func (c *ChromeRenderer) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// Close shuts the browser down.
func (c *ChromeRenderer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

func (c *ChromeRenderer) closeLocked() {
	if c.browser != nil {
		_ = c.browser.Close()
		c.browser = nil
	}
	if c.launcher != nil {
		c.launcher.Kill()
		c.launcher = nil
	}
}
