// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intake

import (
	"strings"
	"testing"
)

func TestExtractHTMLTitleAndText(t *testing.T) {
	page := `<html><head><title>Filing Rules</title></head>
	<body><main><h1>Rules</h1><p>All filings are due   within
	thirty days.</p></main></body></html>`

	got, err := ExtractHTML([]byte(page), "https://example.com/rules")
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	if got.Title != "Filing Rules" {
		t.Errorf("Title = %q, want %q", got.Title, "Filing Rules")
	}
	if want := "Rules All filings are due within thirty days."; got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
}

func TestExtractHTMLRemovesChrome(t *testing.T) {
	page := `<html><head><title>T</title><style>body{color:red}</style></head><body>
	<nav>Home | About</nav>
	<header>Site Header</header>
	<main><p>Actual content lives here.</p></main>
	<aside>Related reading</aside>
	<footer>Copyright footer</footer>
	<script>alert("hi")</script>
	</body></html>`

	got, err := ExtractHTML([]byte(page), "https://example.com/")
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	for _, banned := range []string{"Home | About", "Site Header", "Related reading", "Copyright footer", "alert", "color:red"} {
		if strings.Contains(got.Text, banned) {
			t.Errorf("Text contains chrome fragment %q: %q", banned, got.Text)
		}
	}
	if !strings.Contains(got.Text, "Actual content lives here.") {
		t.Errorf("Text lost main content: %q", got.Text)
	}
}

func TestExtractHTMLContentCascade(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "prefers main over article",
			body: `<body><article>from article</article><main>from main</main></body>`,
			want: "from main",
		},
		{
			name: "falls back to article",
			body: `<body><div>stray</div><article>from article</article></body>`,
			want: "from article",
		},
		{
			name: "falls back to content div",
			body: `<body><div class="sidebar">nope</div><div class="post-content">from div</div></body>`,
			want: "from div",
		},
		{
			name: "matches main class div",
			body: `<body><div class="main-col">from main div</div></body>`,
			want: "from main div",
		},
		{
			name: "whole page when nothing matches",
			body: `<body><div class="x"><p>everything</p></div><span>counts</span></body>`,
			want: "everything counts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractHTML([]byte("<html>"+tt.body+"</html>"), "https://example.com/")
			if err != nil {
				t.Fatalf("ExtractHTML: %v", err)
			}
			if got.Text != tt.want {
				t.Errorf("Text = %q, want %q", got.Text, tt.want)
			}
		})
	}
}

func TestExtractHTMLMetadata(t *testing.T) {
	page := `<html><head>
	<meta name="description" content="A dry summary">
	<meta property="og:title" content="Social Title">
	<meta name="empty" content="">
	<meta content="orphan value">
	</head><body><main>text</main></body></html>`

	got, err := ExtractHTML([]byte(page), "https://example.com/")
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	if got.Metadata["description"] != "A dry summary" {
		t.Errorf("Metadata[description] = %q", got.Metadata["description"])
	}
	if got.Metadata["og:title"] != "Social Title" {
		t.Errorf("Metadata[og:title] = %q", got.Metadata["og:title"])
	}
	if _, ok := got.Metadata[""]; ok {
		t.Error("meta tag without name or property should be skipped")
	}
}

func TestExtractHTMLLinks(t *testing.T) {
	page := `<html><body><main>
	<a href="/relative/path">rel</a>
	<a href="https://other.example.org/abs">abs</a>
	<a href="sibling.html">sib</a>
	<a>no href</a>
	</main></body></html>`

	got, err := ExtractHTML([]byte(page), "https://example.com/docs/index.html")
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	want := []string{
		"https://example.com/relative/path",
		"https://other.example.org/abs",
		"https://example.com/docs/sibling.html",
	}
	if len(got.Links) != len(want) {
		t.Fatalf("Links = %v, want %v", got.Links, want)
	}
	for i := range want {
		if got.Links[i] != want[i] {
			t.Errorf("Links[%d] = %q, want %q", i, got.Links[i], want[i])
		}
	}
}

func TestExtractHTMLEmptyBody(t *testing.T) {
	// Whole-page fallback flattens everything left in the tree, head included.
	got, err := ExtractHTML([]byte("<html><head><title>Only Title</title></head><body></body></html>"), "https://example.com/")
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	if got.Text != "Only Title" {
		t.Errorf("Text = %q, want %q", got.Text, "Only Title")
	}
	if got.Title != "Only Title" {
		t.Errorf("Title = %q", got.Title)
	}
}
