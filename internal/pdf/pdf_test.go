package pdf

import (
	"context"
	"errors"
	"testing"
)

func TestDisabled(t *testing.T) {
	var r Renderer = Disabled{}
	if _, err := r.Render(context.Background(), []byte("<p>x</p>")); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func TestNewChromeRendererDefaults(t *testing.T) {
	c := NewChromeRenderer(Options{}, nil)
	if c.opts.MarginCM != 1 {
		t.Errorf("margin = %v, want 1", c.opts.MarginCM)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on an unstarted renderer: %v", err)
	}
}

func TestChromeRenderer_BadBinary(t *testing.T) {
	c := NewChromeRenderer(Options{ChromeBin: "/nonexistent/chrome"}, nil)
	defer c.Close()
	if _, err := c.Render(context.Background(), []byte("<p>x</p>")); err == nil {
		t.Fatal("expected launch error for a missing binary")
	}
}

func TestBrowserFault(t *testing.T) {
	if !browserFault(context.Background()) {
		t.Error("live context: want browser fault")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if browserFault(ctx) {
		t.Error("cancelled context: browser must be kept")
	}
	ctx, cancel = context.WithTimeout(context.Background(), 0)
	defer cancel()
	if browserFault(ctx) {
		t.Error("expired context: browser must be kept")
	}
}
