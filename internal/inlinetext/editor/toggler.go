package editor

import (
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/doctree"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/edtypes"
	"golang.org/x/net/html"
)

// NativeToggler - примитив включения/выключения строчного форматирования над выделением.
// Редактор не реализует жирный, курсив, подчеркивание, зачеркивание и создание ссылки сам,
// а только вызывает эти операции и пересчитывает состояние после них.
type NativeToggler interface {
	Toggle(t *doctree.Tree, sel doctree.Selection, f edtypes.Format) error
	CreateLink(t *doctree.Tree, sel doctree.Selection, href string) error
}

// DefaultToggler - реализация примитива на дереве документа.
//
// Если все выделенные текстовые листья уже имеют формат, формат снимается: предки разрезаются
// и разворачиваются. Иначе недостающие листья оборачиваются каноническим тегом.
// Соседние одинаковые обертки склеиваются.
type DefaultToggler struct{}

func (DefaultToggler) Toggle(t *doctree.Tree, sel doctree.Selection, f edtypes.Format) error {
	leaves := selectedText(t, sel)
	if len(leaves) == 0 {
		return nil
	}

	all := true
	for _, l := range leaves {
		if formatAncestor(t, l, f) == nil {
			all = false
			break
		}
	}

	if all {
		for _, l := range leaves {
			removeFormat(t, l, f)
		}
	} else {
		wrapLeaves(t, leaves, f)
	}
	t.Normalize()
	return nil
}

// CreateLink заменяет ссылки внутри выделения одной ссылкой на href.
func (DefaultToggler) CreateLink(t *doctree.Tree, sel doctree.Selection, href string) error {
	leaves := selectedText(t, sel)
	if len(leaves) == 0 {
		return nil
	}
	for _, l := range leaves {
		removeFormat(t, l, edtypes.Link)
	}
	wrapLeaves(t, leaves, edtypes.Link, html.Attribute{Key: "href", Val: href})
	t.Normalize()
	return nil
}

func selectedText(t *doctree.Tree, sel doctree.Selection) []*doctree.Node {
	r, ok := t.RangeOf(sel)
	if !ok || r.Collapsed() {
		return nil
	}
	var res []*doctree.Node
	for _, l := range t.Leaves(r) {
		if l.IsText() {
			res = append(res, l)
		}
	}
	return res
}

// formatAncestor возвращает ближайшего предка с форматом f.
func formatAncestor(t *doctree.Tree, n *doctree.Node, f edtypes.Format) *doctree.Node {
	for _, a := range t.Ancestors(n) {
		if ff, ok := edtypes.FormatForTag(a.Tag); ok && ff == f {
			return a
		}
	}
	return nil
}

func removeFormat(t *doctree.Tree, leaf *doctree.Node, f edtypes.Format) {
	for a := formatAncestor(t, leaf, f); a != nil; a = formatAncestor(t, leaf, f) {
		t.Isolate(leaf, a)
		t.Unwrap(a)
	}
}

// wrapLeaves оборачивает листья без формата. Обертка ставится на самого высокого предка,
// все содержимое которого выделено и который еще не содержит этот формат.
func wrapLeaves(t *doctree.Tree, leaves []*doctree.Node, f edtypes.Format, attr ...html.Attribute) {
	selected := make(map[*doctree.Node]bool, len(leaves))
	for _, l := range leaves {
		selected[l] = true
	}
	canonical, _ := edtypes.TagsFor(f)

	wrapped := make(map[*doctree.Node]bool)
	for _, l := range leaves {
		if formatAncestor(t, l, f) != nil {
			continue
		}
		top := l
		for p := top.Parent; p != nil && p != t.Root && coveredBy(p, selected) && !hasFormat(p, f); p = p.Parent {
			top = p
		}
		if wrapped[top] {
			continue
		}
		wrapped[top] = true
		t.Wrap(top, canonical, attr...)
	}
}

// coveredBy - все текстовые листья поддерева выделены
func coveredBy(n *doctree.Node, selected map[*doctree.Node]bool) bool {
	if n.IsText() {
		return selected[n]
	}
	for _, c := range n.Children {
		if !coveredBy(c, selected) {
			return false
		}
	}
	return true
}

// hasFormat - сам элемент или его потомок несет формат f
func hasFormat(n *doctree.Node, f edtypes.Format) bool {
	if n.Type == doctree.ElementNode {
		if ff, ok := edtypes.FormatForTag(n.Tag); ok && ff == f {
			return true
		}
	}
	for _, c := range n.Children {
		if hasFormat(c, f) {
			return true
		}
	}
	return false
}
