package dom

import (
	"strings"
	"testing"
)

const homepage = `<!doctype html>
<html><head><title>IrtazaFoods</title><style>.x{}</style></head>
<body>
  <header><nav>
    <a href="/">Home</a>
    <a href="/menu">Our Menu</a>
    <a>no href</a>
  </nav></header>
  <main>
    <h2>About   Us</h2>
    <h2>Featured Products</h2>
    <img src="https://res.cloudinary.com/demo/burger.jpg" alt="Burger">
    <img src="/logo.png">
    <img alt="placeholder">
    <script>var hidden = "do not count";</script>
  </main>
  <footer>© IrtazaFoods</footer>
</body></html>`

func TestParse(t *testing.T) {
	s, err := Parse(homepage)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !s.HasBody {
		t.Error("expected body")
	}
	if len(s.Links) != 3 {
		t.Errorf("links = %d, want 3", len(s.Links))
	}
	if len(s.Images) != 3 {
		t.Errorf("images = %d, want 3", len(s.Images))
	}
	if s.ImagesWithSrc() != 2 {
		t.Errorf("ImagesWithSrc = %d, want 2", s.ImagesWithSrc())
	}
	if !s.HasHeading(2, "About Us") {
		t.Errorf("expected collapsed About Us heading, got %+v", s.Headings)
	}
	if s.HasHeading(1, "About Us") {
		t.Error("level filter ignored")
	}
	if s.Count("footer") != 1 || s.Count("header") != 1 || s.Count("nav") != 1 {
		t.Errorf("tags = %v", s.Tags)
	}
	if strings.Contains(s.BodyText, "do not count") {
		t.Error("script text leaked into body text")
	}
}

func TestFindLink(t *testing.T) {
	s, _ := Parse(homepage)

	l, ok := s.FindLink("/menu", "menu")
	if !ok || l.Index != 1 || l.Href != "/menu" {
		t.Errorf("FindLink = %+v, %v", l, ok)
	}

	s2, _ := Parse(`<body><a href="/food">View MENU</a></body>`)
	l, ok = s2.FindLink("/menu", "menu")
	if !ok || l.Href != "/food" {
		t.Errorf("text match failed: %+v, %v", l, ok)
	}

	s3, _ := Parse(`<body><a>menu</a><a href="/about">About</a></body>`)
	if _, ok := s3.FindLink("/menu", "menu"); ok {
		t.Error("link without href should not match")
	}
}

func TestFindLink_ResolvesRelativeHref(t *testing.T) {
	s, err := ParseAt(`<body><a href="#top">Top</a><a href="menu">Order now</a></body>`, "http://localhost:5173/")
	if err != nil {
		t.Fatal(err)
	}
	l, ok := s.FindLink("/menu", "")
	if !ok || l.Index != 1 {
		t.Fatalf("FindLink = %+v, %v", l, ok)
	}
	if l.Href != "menu" || l.URL != "http://localhost:5173/menu" {
		t.Errorf("link = %+v", l)
	}

	s2, _ := ParseAt(`<head><base href="/app/"></head><body><a href="menu">Order</a></body>`, "http://localhost:5173/")
	if l, _ := s2.FindLink("/menu", ""); l.URL != "http://localhost:5173/app/menu" {
		t.Errorf("base href ignored: %+v", l)
	}

	s3, _ := Parse(`<body><a href="menu">Order now</a></body>`)
	if _, ok := s3.FindLink("/menu", ""); ok {
		t.Error("relative href without a document URL should not match /menu")
	}
}

func TestRemoteImages(t *testing.T) {
	s, _ := Parse(homepage)
	got := s.RemoteImages("cloudinary", "http")
	if len(got) != 1 || got[0].Alt != "Burger" {
		t.Errorf("RemoteImages = %+v", got)
	}
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.BodyText != "" || len(s.Links) != 0 || len(s.Images) != 0 {
		t.Errorf("expected empty snapshot, got %+v", s)
	}
}
