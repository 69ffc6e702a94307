package policy

import (
	"log/slog"
	"strings"

	"github.com/aisa-it/inline-text/internal/inlinetext/editor/doctree"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/edtypes"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Блочные контейнеры: при разворачивании перед их содержимым ставится перевод строки
var blockSelector = cascadia.MustCompile(strings.Join(append(append([]string(nil), blockTags...),
	"hr", "form", "fieldset", "details", "summary"), ", "))

// Элементы, которые удаляются вместе с содержимым
var dropSelector = cascadia.MustCompile("script, style, template, head, title, meta, link, noscript, iframe, object")

type Option func(*sanitizer)

// WithComputedStyle подключает вычисленные стили хоста как дополнительную подсказку к инлайн-стилям.
func WithComputedStyle(cs edtypes.ComputedStyle) Option {
	return func(s *sanitizer) {
		s.computed = cs
	}
}

type sanitizer struct {
	allowed  edtypes.FormatSet
	computed edtypes.ComputedStyle

	// emitted - в результат уже попал значимый контент
	emitted bool
	// lastBreak - результат заканчивается переводом строки
	lastBreak bool
}

// Sanitize переписывает фрагмент в дерево из разрешенных строчных элементов, <br> и текста.
// Входные узлы не изменяются, результат всегда состоит из новых узлов.
//
// Параметры:
//   - nodes: узлы фрагмента (например, результат html.ParseFragment).
//   - allowed: разрешенные форматы поля.
//
// Возвращает:
//   - []*html.Node: очищенный фрагмент.
func Sanitize(nodes []*html.Node, allowed edtypes.FormatSet, opts ...Option) []*html.Node {
	s := &sanitizer{allowed: allowed}
	for _, o := range opts {
		o(s)
	}

	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	s.children(nodes, root, 0)

	var res []*html.Node
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		root.RemoveChild(c)
		res = append(res, c)
		c = next
	}
	return res
}

// SanitizeHTML очищает строку HTML: сначала политикой bluemonday, затем переписыванием дерева.
func SanitizeHTML(raw string, allowed edtypes.FormatSet, opts ...Option) ([]*html.Node, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	cleaned := PastePolicy.Sanitize(raw)
	nodes, err := doctree.ParseFragment(cleaned)
	if err != nil {
		return nil, err
	}
	return Sanitize(nodes, allowed, opts...), nil
}

// StripTags возвращает текст без разметки.
func StripTags(raw string) string {
	return html.UnescapeString(StripTagsPolicy.Sanitize(raw))
}

// RenderFragment сериализует фрагмент так же, как дерево редактора.
func RenderFragment(nodes []*html.Node) string {
	return doctree.FromHTML(nodes).HTML()
}

func (s *sanitizer) children(nodes []*html.Node, dst *html.Node, active edtypes.FormatSet) {
	for i, n := range nodes {
		var prev, next *html.Node
		if i > 0 {
			prev = nodes[i-1]
		}
		if i < len(nodes)-1 {
			next = nodes[i+1]
		}
		if n.Type == html.TextNode && isLayoutWhitespace(n.Data, prev, next) {
			continue
		}
		s.node(n, dst, active)
	}
}

func childList(n *html.Node) []*html.Node {
	var res []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		res = append(res, c)
	}
	return res
}

// isLayoutWhitespace - пробельный текст между блочными элементами (переносы строк в исходном HTML).
func isLayoutWhitespace(text string, prev, next *html.Node) bool {
	if strings.TrimSpace(text) != "" {
		return false
	}
	return isBlock(prev) || isBlock(next)
}

func isBlock(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && blockSelector.Match(n)
}

func (s *sanitizer) node(n *html.Node, dst *html.Node, active edtypes.FormatSet) {
	switch n.Type {
	case html.TextNode:
		s.appendText(dst, n.Data)
		return
	case html.ElementNode:
	default:
		// комментарии, doctype
		return
	}

	tag := strings.ToLower(n.Data)
	switch {
	case tag == "br":
		s.appendBreak(dst)
		return
	case dropSelector.Match(n):
		slog.Debug("Drop non-content element", "tag", tag)
		return
	}

	implied, negated := edtypes.StyleFormats(n, s.computed)

	// Элемент с разрешенным форматом
	var el *html.Node
	format, isFormat := edtypes.FormatForTag(tag)
	if isFormat && s.allowed.Has(format) && !active.Has(format) && !negated.Has(format) {
		// nil для ссылки без безопасного href: содержимое переносится без обертки
		if el = s.formatElement(format, n); el != nil {
			active = active.Add(format)
		}
	}

	wraps := implied.Intersect(s.allowed).Without(active)
	childActive := active.Union(wraps)

	block := el == nil && isBlock(n)
	emittedBefore, breakBefore := s.emitted, s.lastBreak

	content := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	s.children(childList(n), content, childActive)
	if content.FirstChild == nil {
		return
	}

	if block && emittedBefore && !breakBefore && significant(content) && !startsWithBreak(content) {
		dst.AppendChild(&html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
	}

	// Стилевые обертки: внешняя - первая по порядку панели инструментов
	inner := content
	formats := wraps.Formats()
	for i := len(formats) - 1; i >= 0; i-- {
		w := newElement(formats[i])
		moveChildren(inner, w)
		inner = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
		inner.AppendChild(w)
	}
	if el != nil {
		moveChildren(inner, el)
		inner = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
		inner.AppendChild(el)
	}

	for c := inner.FirstChild; c != nil; {
		next := c.NextSibling
		inner.RemoveChild(c)
		appendMerged(dst, c)
		c = next
	}
}

// formatElement создает канонический элемент формата. Для ссылки без безопасного href возвращает nil.
func (s *sanitizer) formatElement(f edtypes.Format, n *html.Node) *html.Node {
	el := newElement(f)
	if f != edtypes.Link {
		return el
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, "href") && SafeURL(a.Val) {
			el.Attr = []html.Attribute{{Key: "href", Val: strings.TrimSpace(a.Val)}}
			return el
		}
	}
	slog.Debug("Unwrap link without safe href")
	return nil
}

func newElement(f edtypes.Format) *html.Node {
	canonical, _ := edtypes.TagsFor(f)
	return &html.Node{Type: html.ElementNode, Data: canonical, DataAtom: atom.Lookup([]byte(canonical))}
}

func (s *sanitizer) appendText(dst *html.Node, text string) {
	if text == "" {
		return
	}
	if strings.TrimSpace(text) != "" {
		s.emitted = true
		s.lastBreak = false
	}
	appendMerged(dst, &html.Node{Type: html.TextNode, Data: text})
}

func (s *sanitizer) appendBreak(dst *html.Node) {
	s.emitted = true
	s.lastBreak = true
	dst.AppendChild(&html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
}

// appendMerged добавляет узел, склеивая соседние текстовые узлы.
func appendMerged(dst, n *html.Node) {
	if n.Type == html.TextNode && dst.LastChild != nil && dst.LastChild.Type == html.TextNode {
		dst.LastChild.Data += n.Data
		return
	}
	dst.AppendChild(n)
}

func moveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		appendMerged(to, c)
		c = next
	}
}

// startsWithBreak сообщает, начинается ли содержимое с перевода строки. Пробелы не учитываются.
func startsWithBreak(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.ElementNode && c.Data == "br":
			return true
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
			continue
		case c.Type == html.ElementNode:
			return startsWithBreak(c)
		default:
			return false
		}
	}
	return false
}

// significant - есть непробельный текст или перевод строки
func significant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) != "":
			return true
		case c.Type == html.ElementNode && (c.Data == "br" || significant(c)):
			return true
		}
	}
	return false
}
