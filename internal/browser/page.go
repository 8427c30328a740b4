package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/irtazafoods/homecheck/internal/dom"
	"github.com/irtazafoods/homecheck/internal/scenario"
	"github.com/irtazafoods/homecheck/internal/wait"
)

var _ scenario.Page = (*Session)(nil)

const visibleJS = `(function(sel, xpath) {
  var el = xpath
    ? document.evaluate(sel, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue
    : document.querySelector(sel);
  if (!el) return false;
  var st = window.getComputedStyle(el);
  if (st.display === 'none' || st.visibility === 'hidden' || st.opacity === '0') return false;
  var r = el.getBoundingClientRect();
  return r.width > 0 && r.height > 0;
})(%s, %t)`

func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, s.cfg.NavigateTimeout, chromedp.Navigate(url))
}

func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, s.cfg.LookupTimeout, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// WaitPresent blocks until q matches a node that is ready in the DOM. A zero
// timeout uses the implicit wait.
func (s *Session) WaitPresent(ctx context.Context, q scenario.Query, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = s.cfg.ImplicitWait
	}
	by := chromedp.ByQuery
	if q.XPath {
		by = chromedp.BySearch
	}
	err := s.run(ctx, timeout, chromedp.WaitReady(q.Selector, by))
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s waiting for %s", wait.ErrTimeout, timeout, q)
	}
	return err
}

func (s *Session) Visible(ctx context.Context, q scenario.Query) (bool, error) {
	sel, err := json.Marshal(q.Selector)
	if err != nil {
		return false, err
	}
	var visible bool
	expr := fmt.Sprintf(visibleJS, sel, q.XPath)
	if err := s.run(ctx, s.cfg.LookupTimeout, chromedp.Evaluate(expr, &visible)); err != nil {
		return false, fmt.Errorf("visibility of %s: %w", q, err)
	}
	return visible, nil
}

func (s *Session) BodyText(ctx context.Context) (string, error) {
	var text string
	if err := s.run(ctx, s.cfg.LookupTimeout,
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text)); err != nil {
		return "", err
	}
	return text, nil
}

// Snapshot captures the rendered document and parses it.
func (s *Session) Snapshot(ctx context.Context) (*dom.Snapshot, error) {
	var doc []string
	if err := s.run(ctx, s.cfg.LookupTimeout,
		chromedp.Evaluate(`[document.URL, document.documentElement.outerHTML]`, &doc)); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if len(doc) != 2 {
		return nil, fmt.Errorf("snapshot: unexpected result %d", len(doc))
	}
	return dom.ParseAt(doc[1], doc[0])
}

// ClickLink clicks the index-th anchor in document order, matching the
// indexes of dom.Snapshot.Links.
func (s *Session) ClickLink(ctx context.Context, index int) error {
	var nodes []*cdp.Node
	if err := s.run(ctx, s.cfg.LookupTimeout,
		chromedp.Nodes("a", &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return fmt.Errorf("list links: %w", err)
	}
	if index < 0 || index >= len(nodes) {
		return fmt.Errorf("link %d out of range (%d links)", index, len(nodes))
	}
	return s.run(ctx, s.cfg.LookupTimeout, chromedp.MouseClickNode(nodes[index]))
}

func (s *Session) ScrollToBottom(ctx context.Context) error {
	return s.run(ctx, s.cfg.LookupTimeout,
		chromedp.Evaluate(`window.scrollTo(0, document.body ? document.body.scrollHeight : 0)`, nil))
}

func (s *Session) RemoveLocalStorage(ctx context.Context, key string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	return s.run(ctx, s.cfg.LookupTimeout,
		chromedp.Evaluate(fmt.Sprintf(`window.localStorage.removeItem(%s)`, k), nil))
}

// Screenshot captures the current viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, s.cfg.LookupTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}
