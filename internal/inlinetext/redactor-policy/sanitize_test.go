package policy

import (
	"testing"

	"github.com/aisa-it/inline-text/internal/inlinetext/editor/doctree"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/edtypes"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

var full = edtypes.FullSet()

func sanitizeString(t *testing.T, in string, allowed edtypes.FormatSet, opts ...Option) string {
	t.Helper()
	nodes, err := doctree.ParseFragment(in)
	require.NoError(t, err)
	return RenderFragment(Sanitize(nodes, allowed, opts...))
}

var corpus = []string{
	"plain text",
	"<b>a</b><i>b</i><u>c</u><strike>d</strike><s>e</s><code>f</code>",
	`<a href="http://x.com">link</a> and <a href="javascript:alert(1)">bad</a>`,
	`<div style="font-weight:700">Hi</div><div>There</div>`,
	`<p><span style="font-style:italic;text-decoration:underline line-through">styled</span></p>`,
	"<strong><strong><em>x</em></strong></strong>",
	`<b style="font-weight:normal"><span style="font-weight:700">Docs</span> clip</b>`,
	"<ul><li>one</li><li><b>two</b></li></ul>",
	"a<script>alert(1)</script>b<!-- comment -->c",
	`<table><tr><td>1</td><td style="font-weight:bold">2</td></tr></table>`,
	"<h1>Title</h1>\n<p>line<br>break</p>",
	"<em></em><strong> </strong><del><i></i></del>",
	`<font face="Arial"><a href="/rel"><b>bold link</b></a></font>`,
}

func TestSanitizeScenarios(t *testing.T) {
	bold := edtypes.NewFormatSet(edtypes.Bold)

	tests := []struct {
		name    string
		in      string
		allowed edtypes.FormatSet
		want    string
	}{
		{"block unwrap with style", `<div style="font-weight:700">Hi</div><div>There</div>`, bold, "<strong>Hi</strong><br>There"},
		{"layout whitespace between blocks", "<div>Hi</div>\n  <div>There</div>", full, "Hi<br>There"},
		{"block starting with break", "<p>a</p><p><br>b</p>", full, "a<br>b"},
		{"first block has no break", "<p>a</p>", full, "a"},
		{"synonyms collapse", "<b>a</b><i>b</i><strike>c</strike><s>d</s>", full, "<strong>a</strong><em>b</em><del>c</del><del>d</del>"},
		{"disallowed tag unwrapped", "<em>a</em> <strong>b</strong>", bold, "a <strong>b</strong>"},
		{"nested identical collapse", "<strong><b>x</b></strong>", full, "<strong>x</strong>"},
		{"tag and style wrap once", `<b style="font-weight:bold">x</b>`, full, "<strong>x</strong>"},
		{"style negates tag", `<b style="font-weight:normal"><span style="font-weight:700">Hi</span> there</b>`, full, "<strong>Hi</strong> there"},
		{"several styles in toolbar order", `<span style="text-decoration:underline;font-style:italic;font-weight:bold">x</span>`, full, "<strong><em><u>x</u></em></strong>"},
		{"style inside tag", `<em style="font-weight:bold">x</em>`, full, "<em><strong>x</strong></em>"},
		{"style not allowed", `<span style="font-weight:bold">x</span>`, edtypes.NewFormatSet(edtypes.Italic), "x"},
		{"empty elements vanish", "a<strong></strong><em><u></u></em>b", full, "ab"},
		{"script dropped", "a<script>alert(1)</script>b", full, "ab"},
		{"style element dropped", "<style>p{}</style>x", full, "x"},
		{"comment dropped", "a<!-- c -->b", full, "ab"},
		{"break kept without formats", "a<br>b", 0, "a<br>b"},
		{"attributes dropped", `<strong class="x" style="color:red" onclick="y()">a</strong>`, full, "<strong>a</strong>"},
		{"entities kept", "a &amp; &lt;b&gt;", full, "a &amp; &lt;b&gt;"},
		{"list items", "<ul><li>one</li><li>two</li></ul>", full, "one<br>two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeString(t, tt.in, tt.allowed))
		})
	}
}

func TestSanitizeLinks(t *testing.T) {
	link := edtypes.NewFormatSet(edtypes.Link)

	tests := []struct {
		name    string
		in      string
		allowed edtypes.FormatSet
		want    string
	}{
		{"http kept", `<a href="http://x.com" target="_blank">x</a>`, link, `<a href="http://x.com">x</a>`},
		{"mailto kept", `<a href="mailto:a@b.c">mail</a>`, link, `<a href="mailto:a@b.c">mail</a>`},
		{"relative kept", `<a href="/docs?a=1&amp;b=2">docs</a>`, link, `<a href="/docs?a=1&amp;b=2">docs</a>`},
		{"javascript unwrapped", `<a href="javascript:alert(1)">x</a>`, link, "x"},
		{"missing href unwrapped", `<a name="top">x</a>`, link, "x"},
		{"empty href unwrapped", `<a href="  "><b>x</b></a>`, full, "<strong>x</strong>"},
		{"link not allowed", `<a href="http://x.com">x</a>`, edtypes.NewFormatSet(edtypes.Bold), "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeString(t, tt.in, tt.allowed))
		})
	}
}

func walk(nodes []*html.Node, fn func(n *html.Node)) {
	for _, n := range nodes {
		fn(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk([]*html.Node{c}, fn)
		}
	}
}

func TestSanitizeAllowListExclusion(t *testing.T) {
	for allowed := edtypes.FormatSet(0); allowed <= full; allowed++ {
		for _, in := range corpus {
			nodes, err := doctree.ParseFragment(in)
			require.NoError(t, err)

			walk(Sanitize(nodes, allowed), func(n *html.Node) {
				if n.Type != html.ElementNode {
					return
				}
				if n.Data == "br" {
					return
				}
				f, ok := edtypes.FormatForTag(n.Data)
				require.True(t, ok, "unexpected element %q for %q", n.Data, in)
				assert.True(t, allowed.Has(f), "format %s not in %s for %q", f, allowed, in)

				canonical, _ := edtypes.TagsFor(f)
				assert.Equal(t, canonical, n.Data)

				for _, a := range n.Attr {
					assert.Equal(t, "href", a.Key)
					assert.Equal(t, "a", n.Data)
				}
			})
		}
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	for allowed := edtypes.FormatSet(0); allowed <= full; allowed++ {
		for _, in := range corpus {
			nodes, err := doctree.ParseFragment(in)
			require.NoError(t, err)

			once := Sanitize(nodes, allowed)
			twice := Sanitize(once, allowed)
			if diff := cmp.Diff(RenderFragment(once), RenderFragment(twice)); diff != "" {
				t.Errorf("sanitize %q with %s is not idempotent (-once +twice):\n%s", in, allowed, diff)
			}
		}
	}
}

func TestSanitizeDoesNotMutateInput(t *testing.T) {
	in := `<div style="font-weight:700"><b>Hi</b></div>`
	nodes, err := doctree.ParseFragment(in)
	require.NoError(t, err)
	before := RenderFragment(nodes)

	Sanitize(nodes, full)
	assert.Equal(t, before, RenderFragment(nodes))
}

func TestSanitizeComputedStyle(t *testing.T) {
	computed := func(n *html.Node) map[string]string {
		if n.Data == "span" {
			return map[string]string{"font-style": "italic"}
		}
		return nil
	}

	assert.Equal(t, "<em>a</em>", sanitizeString(t, "<span>a</span>", full, WithComputedStyle(computed)))
	assert.Equal(t, "a", sanitizeString(t, `<span style="font-style:normal">a</span>`, full, WithComputedStyle(computed)))
}

func TestSanitizeHTML(t *testing.T) {
	t.Run("paste scenario", func(t *testing.T) {
		nodes, err := SanitizeHTML(`<div style="font-weight:700">Hi</div><div>There</div>`, edtypes.NewFormatSet(edtypes.Bold))
		require.NoError(t, err)
		assert.Equal(t, "<strong>Hi</strong><br>There", RenderFragment(nodes))
	})

	t.Run("handlers and unsafe urls", func(t *testing.T) {
		nodes, err := SanitizeHTML(`<img src=x onerror="alert(1)"><a href="javascript:alert(1)" onclick="x()">go</a> <a href="https://ok.example">ok</a>`, full)
		require.NoError(t, err)
		assert.Equal(t, `go <a href="https://ok.example">ok</a>`, RenderFragment(nodes))
	})

	t.Run("empty", func(t *testing.T) {
		nodes, err := SanitizeHTML("  ", full)
		require.NoError(t, err)
		assert.Empty(t, nodes)
	})
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "a & b", StripTags("<b>a &amp; b</b><script>x</script>"))
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://x.com", true},
		{"HTTPS://x.com", true},
		{"mailto:a@b.c", true},
		{"tel:+100", true},
		{"/relative/path", true},
		{"page.html#top", true},
		{"javascript:alert(1)", false},
		{"data:text/html,x", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeURL(tt.url))
		})
	}
}
