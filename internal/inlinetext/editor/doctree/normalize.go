package doctree

import (
	"slices"
)

// PruneEmpty удаляет пустые текстовые узлы и элементы без содержимого (кроме <br> и void-элементов).
func (t *Tree) PruneEmpty() {
	t.pruneChildren(t.Root)
}

func (t *Tree) pruneChildren(n *Node) {
	for _, c := range append([]*Node(nil), n.Children...) {
		switch {
		case c.Type == TextNode:
			if c.Text == "" {
				t.Remove(c)
			}
		case voidElements[c.Tag]:
		default:
			t.pruneChildren(c)
			if len(c.Children) == 0 {
				t.Remove(c)
			}
		}
	}
}

// Normalize удаляет пустые узлы, склеивает соседние текстовые узлы и соседние элементы
// с одинаковым тегом и атрибутами.
func (t *Tree) Normalize() {
	t.PruneEmpty()
	t.mergeChildren(t.Root)
}

func (t *Tree) mergeChildren(n *Node) {
	for i := 0; i < len(n.Children); i++ {
		c := n.Children[i]
		if i > 0 {
			prev := n.Children[i-1]
			switch {
			case prev.Type == TextNode && c.Type == TextNode:
				prev.Text += c.Text
				t.Remove(c)
				i--
				continue
			case mergeable(prev, c):
				for _, cc := range append([]*Node(nil), c.Children...) {
					t.AppendChild(prev, cc)
				}
				t.Remove(c)
				i--
				continue
			}
		}
	}
	for _, c := range n.Children {
		if c.Type == ElementNode {
			t.mergeChildren(c)
		}
	}
}

func mergeable(a, b *Node) bool {
	if a.Type != ElementNode || b.Type != ElementNode || a.Tag != b.Tag || voidElements[a.Tag] {
		return false
	}
	return slices.Equal(a.Attr, b.Attr)
}
