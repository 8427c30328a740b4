package scenario

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/irtazafoods/homecheck/internal/config"
	"github.com/irtazafoods/homecheck/internal/dom"
	"github.com/irtazafoods/homecheck/internal/wait"
)

const testBase = "http://localhost:5173"

const fullHomepage = `<html><body>
<header><nav><a href="/">Home</a><a href="/menu">Menu</a><a href="/contact">Contact</a></nav></header>
<h2>About Us</h2>
<p>IrtazaFoods serves fresh, homemade meals delivered straight to your door every single day of the week.</p>
<h2>Featured Products</h2>
<img src="https://res.cloudinary.com/irtaza/burger.jpg" alt="Burger">
<img src="/static/logo.png" alt="Logo">
<footer>Copyright IrtazaFoods</footer>
</body></html>`

// fakePage serves canned HTML per path and records navigation.
type fakePage struct {
	mu sync.Mutex

	pages     map[string]string
	redirects map[string]string
	hidden    map[string]bool

	noBody       bool
	clickErr     error
	loadingCalls int
	bodyTexts    []string

	current     string
	navigations []string
	storage     map[string]string
	removed     []string
}

func newFakePage(pages map[string]string) *fakePage {
	return &fakePage{
		pages:     pages,
		redirects: map[string]string{},
		hidden:    map[string]bool{},
		storage:   map[string]string{},
	}
}

func testConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		BaseURL:       testBase,
		ReadyTimeout:  50 * time.Millisecond,
		LookupTimeout: 50 * time.Millisecond,
		DataSettle:    500 * time.Millisecond,
	}
}

func (f *fakePage) path() string {
	p := strings.TrimPrefix(f.current, testBase)
	if p == "" {
		return "/"
	}
	return p
}

func (f *fakePage) html() string {
	if f.noBody {
		return ""
	}
	if h, ok := f.pages[f.path()]; ok {
		return h
	}
	return "<html><body></body></html>"
}

func (f *fakePage) snap() *dom.Snapshot {
	s, err := dom.ParseAt(f.html(), f.current)
	if err != nil {
		panic(err)
	}
	return s
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigations = append(f.navigations, url)
	if to, ok := f.redirects[url]; ok {
		url = to
	}
	f.current = url
	return nil
}

func (f *fakePage) Location(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *fakePage) exists(q Query) bool {
	s := f.snap()
	if q.XPath {
		_, rest, _ := strings.Cut(q.Selector, "'")
		text, _, _ := strings.Cut(rest, "'")
		return s.HasHeading(2, text)
	}
	switch q.Selector {
	case "body":
		return !f.noBody
	case "a":
		return len(s.Links) > 0
	case "img":
		return len(s.Images) > 0
	default:
		return s.Count(q.Selector) > 0
	}
}

func (f *fakePage) WaitPresent(_ context.Context, q Query, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exists(q) {
		return nil
	}
	return fmt.Errorf("%w after %s waiting for %s", wait.ErrTimeout, timeout, q)
}

func (f *fakePage) Visible(_ context.Context, q Query) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists(q) && !f.hidden[q.String()], nil
}

func (f *fakePage) BodyText(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bodyTexts) > 0 {
		text := f.bodyTexts[0]
		if len(f.bodyTexts) > 1 {
			f.bodyTexts = f.bodyTexts[1:]
		}
		return text, nil
	}
	if f.loadingCalls > 0 {
		f.loadingCalls--
		return loadingPlaceholder, nil
	}
	return f.snap().BodyText, nil
}

func (f *fakePage) Snapshot(context.Context) (*dom.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap(), nil
}

func (f *fakePage) ClickLink(ctx context.Context, index int) error {
	f.mu.Lock()
	if f.clickErr != nil {
		f.mu.Unlock()
		return f.clickErr
	}
	links := f.snap().Links
	f.mu.Unlock()
	if index < 0 || index >= len(links) {
		return fmt.Errorf("link %d out of range", index)
	}
	target := links[index].URL
	if !strings.HasPrefix(target, "http") {
		target = config.JoinURL(testBase, target)
	}
	return f.Navigate(ctx, target)
}

func (f *fakePage) ScrollToBottom(context.Context) error { return nil }

func (f *fakePage) RemoveLocalStorage(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.storage, key)
	f.removed = append(f.removed, key)
	return nil
}

func run(t testing.TB, name string, page Page) *Result {
	t.Helper()
	s, ok := Lookup(name)
	if !ok {
		t.Fatalf("scenario %s not registered", name)
	}
	return Execute(context.Background(), s, 1, page, testConfig(), nil)
}

func outcomeOf(res *Result, step string) Outcome {
	for _, s := range res.Steps {
		if s.Name == step {
			return s.Outcome
		}
	}
	return ""
}
