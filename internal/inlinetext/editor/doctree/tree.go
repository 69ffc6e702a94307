// Пакет doctree содержит дерево документа строчного редактора и модель выделения.
//
// Дерево принадлежит одному экземпляру редактора: пересобирается целиком при загрузке значения
// и изменяется точечно при каждом редактировании. Узлы имеют стабильные идентификаторы,
// поэтому выделение (Selection) хранится как обычное значение и передается явно в каждую операцию.
//
// Основные возможности:
//   - Построение дерева из узлов golang.org/x/net/html и из строки HTML.
//   - Сериализация в HTML так же, как это делает innerHTML браузера.
//   - Операции над диапазонами в текстовых смещениях: разбиение, удаление, вставка.
//   - Нормализация: слияние соседних текстов и одинаковых элементов, удаление пустых элементов.
package doctree

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type NodeID uint64

type NodeType uint8

const (
	TextNode NodeType = iota + 1
	ElementNode
)

// Node - узел дерева документа. У корня Tag пустой.
type Node struct {
	ID       NodeID
	Type     NodeType
	Tag      string
	Attr     []html.Attribute
	Text     string
	Parent   *Node
	Children []*Node
}

func (n *Node) IsText() bool {
	return n != nil && n.Type == TextNode
}

func (n *Node) IsElement(tag string) bool {
	return n != nil && n.Type == ElementNode && n.Tag == tag
}

// IsBreak - перевод строки <br>
func (n *Node) IsBreak() bool {
	return n.IsElement("br")
}

// GetAttr возвращает значение атрибута и признак его наличия.
func (n *Node) GetAttr(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Index возвращает позицию узла среди детей родителя, -1 для корня.
func (n *Node) Index() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// Tree - дерево документа с индексом узлов по идентификатору.
type Tree struct {
	Root *Node

	nextID NodeID
	index  map[NodeID]*Node
}

func New() *Tree {
	t := &Tree{index: make(map[NodeID]*Node)}
	t.Root = t.newNode(ElementNode)
	return t
}

// FromHTML строит дерево из фрагмента. Комментарии, doctype и прочие служебные узлы пропускаются.
func FromHTML(nodes []*html.Node) *Tree {
	t := New()
	t.Load(nodes)
	return t
}

// Parse разбирает строку как фрагмент содержимого body.
func Parse(s string) (*Tree, error) {
	nodes, err := ParseFragment(s)
	if err != nil {
		return nil, err
	}
	return FromHTML(nodes), nil
}

// ParseFragment разбирает строку HTML в контексте body.
func ParseFragment(s string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(s), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
}

// Load заменяет содержимое дерева. Ранее выданные идентификаторы становятся недействительными.
func (t *Tree) Load(nodes []*html.Node) {
	for _, c := range t.Root.Children {
		t.forget(c)
	}
	t.Root.Children = nil
	for _, n := range nodes {
		if c := t.Import(n); c != nil {
			t.AppendChild(t.Root, c)
		}
	}
}

// Import копирует узел golang.org/x/net/html с поддеревом в новые узлы дерева, не подключая их.
// Для комментариев и прочих служебных узлов возвращает nil.
func (t *Tree) Import(n *html.Node) *Node {
	switch n.Type {
	case html.TextNode:
		return t.NewText(n.Data)
	case html.ElementNode:
		el := t.NewElement(strings.ToLower(n.Data), n.Attr...)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if cc := t.Import(c); cc != nil {
				t.AppendChild(el, cc)
			}
		}
		return el
	}
	return nil
}

// HTMLNodes возвращает содержимое дерева в виде новых узлов golang.org/x/net/html.
func (t *Tree) HTMLNodes() []*html.Node {
	res := make([]*html.Node, 0, len(t.Root.Children))
	for _, c := range t.Root.Children {
		res = append(res, exportNode(c))
	}
	return res
}

func exportNode(n *Node) *html.Node {
	if n.Type == TextNode {
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}
	el := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Tag,
		DataAtom: atom.Lookup([]byte(n.Tag)),
		Attr:     append([]html.Attribute(nil), n.Attr...),
	}
	for _, c := range n.Children {
		el.AppendChild(exportNode(c))
	}
	return el
}

func (t *Tree) newNode(typ NodeType) *Node {
	t.nextID++
	n := &Node{ID: t.nextID, Type: typ}
	t.index[n.ID] = n
	return n
}

func (t *Tree) NewText(s string) *Node {
	n := t.newNode(TextNode)
	n.Text = s
	return n
}

func (t *Tree) NewElement(tag string, attr ...html.Attribute) *Node {
	n := t.newNode(ElementNode)
	n.Tag = tag
	if len(attr) > 0 {
		n.Attr = append([]html.Attribute(nil), attr...)
	}
	return n
}

// Node ищет узел, принадлежащий дереву.
func (t *Tree) Node(id NodeID) (*Node, bool) {
	n, ok := t.index[id]
	return n, ok
}

func (t *Tree) forget(n *Node) {
	delete(t.index, n.ID)
	for _, c := range n.Children {
		t.forget(c)
	}
}

// Contains сообщает, подключен ли узел к корню дерева.
func (t *Tree) Contains(n *Node) bool {
	for ; n != nil; n = n.Parent {
		if n == t.Root {
			return true
		}
	}
	return false
}

func (t *Tree) AppendChild(parent, child *Node) {
	t.InsertAt(parent, len(parent.Children), child)
}

// InsertAt вставляет узел в позицию index родителя, предварительно отсоединяя его от прежнего места.
func (t *Tree) InsertAt(parent *Node, index int, child *Node) {
	if child.Parent != nil {
		if child.Parent == parent && child.Index() < index {
			index--
		}
		detach(child)
	}
	index = max(0, min(index, len(parent.Children)))
	parent.Children = append(parent.Children, nil)
	copy(parent.Children[index+1:], parent.Children[index:])
	parent.Children[index] = child
	child.Parent = parent
	t.index[child.ID] = child
}

func (t *Tree) InsertBefore(ref, child *Node) {
	t.InsertAt(ref.Parent, ref.Index(), child)
}

func (t *Tree) InsertAfter(ref, child *Node) {
	t.InsertAt(ref.Parent, ref.Index()+1, child)
}

func detach(n *Node) {
	p := n.Parent
	if p == nil {
		return
	}
	i := n.Index()
	p.Children = append(p.Children[:i], p.Children[i+1:]...)
	n.Parent = nil
}

// Remove удаляет узел вместе с поддеревом.
func (t *Tree) Remove(n *Node) {
	if n == t.Root {
		return
	}
	detach(n)
	t.forget(n)
}

// Unwrap заменяет элемент его детьми.
func (t *Tree) Unwrap(n *Node) {
	if n == t.Root || n.Parent == nil {
		return
	}
	parent, i := n.Parent, n.Index()
	children := append([]*Node(nil), n.Children...)
	for j, c := range children {
		t.InsertAt(parent, i+j, c)
	}
	t.Remove(n)
}

// Wrap помещает узел в новый элемент на его месте и возвращает этот элемент.
func (t *Tree) Wrap(n *Node, tag string, attr ...html.Attribute) *Node {
	el := t.NewElement(tag, attr...)
	t.InsertBefore(n, el)
	t.AppendChild(el, n)
	return el
}

// CloneShallow создает элемент с тем же тегом и атрибутами, без детей.
func (t *Tree) CloneShallow(n *Node) *Node {
	if n.Type == TextNode {
		return t.NewText(n.Text)
	}
	return t.NewElement(n.Tag, n.Attr...)
}

// Isolate разрезает предков узла вплоть до ancestor так, чтобы в ancestor осталась только
// ветка, ведущая к n. Соседи уходят в копии предков до и после.
func (t *Tree) Isolate(n, ancestor *Node) {
	for p := n.Parent; p != nil && p != t.Root; p = p.Parent {
		i := n.Index()
		if i < len(p.Children)-1 {
			after := t.CloneShallow(p)
			t.InsertAfter(p, after)
			for _, c := range append([]*Node(nil), p.Children[i+1:]...) {
				t.AppendChild(after, c)
			}
		}
		if i > 0 {
			before := t.CloneShallow(p)
			t.InsertBefore(p, before)
			for _, c := range append([]*Node(nil), p.Children[:i]...) {
				t.AppendChild(before, c)
			}
		}
		if p == ancestor {
			return
		}
		n = p
	}
}

// Ancestors возвращает элементы-предки узла от ближайшего к корню, не включая корень.
func (t *Tree) Ancestors(n *Node) []*Node {
	var res []*Node
	for p := n.Parent; p != nil && p != t.Root; p = p.Parent {
		res = append(res, p)
	}
	return res
}

// TextContent возвращает текст поддерева без учета переводов строк.
func TextContent(n *Node) string {
	var sb strings.Builder
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Type == TextNode {
			sb.WriteString(n.Text)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
