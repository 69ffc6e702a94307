package doctree

import (
	"io"
	"strings"
)

// Элементы без закрывающего тега
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\u00a0", "&nbsp;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "\"", "&quot;", "\u00a0", "&nbsp;")
)

// HTML сериализует содержимое корня так же, как innerHTML браузера:
// в тексте экранируются & < > и неразрывный пробел, в атрибутах & " и неразрывный пробел.
func (t *Tree) HTML() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

func (t *Tree) Render(w io.Writer) error {
	for _, c := range t.Root.Children {
		if err := renderNode(w, c); err != nil {
			return err
		}
	}
	return nil
}

// RenderNode сериализует узел вместе с поддеревом.
func RenderNode(n *Node) string {
	var sb strings.Builder
	_ = renderNode(&sb, n)
	return sb.String()
}

func renderNode(w io.Writer, n *Node) error {
	if n.Type == TextNode {
		_, err := io.WriteString(w, textEscaper.Replace(n.Text))
		return err
	}

	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	for _, a := range n.Attr {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(attrEscaper.Replace(a.Val))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	if voidElements[n.Tag] {
		return nil
	}

	for _, c := range n.Children {
		if err := renderNode(w, c); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</"+n.Tag+">")
	return err
}
