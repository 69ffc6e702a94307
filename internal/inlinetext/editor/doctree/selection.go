package doctree

import (
	"unicode/utf8"
)

// Point - граничная точка в дереве. Для текстового узла Offset считается в рунах,
// для элемента это индекс ребенка (как в DOM Range).
type Point struct {
	Node   NodeID `json:"node"`
	Offset int    `json:"offset"`
}

// Selection - выделение: якорь и фокус. При совпадении точек выделение схлопнуто в каретку.
type Selection struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

// Caret возвращает схлопнутое выделение в точке p.
func Caret(p Point) Selection {
	return Selection{Anchor: p, Focus: p}
}

// Range - отрезок документа [Start, End) в текстовых смещениях. Перевод строки занимает одну позицию.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) Collapsed() bool {
	return r.Start == r.End
}

// leafLen возвращает длину листа в текстовых смещениях: руны текста, 1 для <br>, 0 для прочих.
func leafLen(n *Node) int {
	switch {
	case n.Type == TextNode:
		return utf8.RuneCountInString(n.Text)
	case n.IsBreak():
		return 1
	}
	return 0
}

func isLeaf(n *Node) bool {
	return n.Type == TextNode || n.IsBreak()
}

// Len возвращает длину поддерева в текстовых смещениях.
func Len(n *Node) int {
	if isLeaf(n) {
		return leafLen(n)
	}
	total := 0
	for _, c := range n.Children {
		total += Len(c)
	}
	return total
}

type leafPos struct {
	node       *Node
	start, end int
}

func (t *Tree) leaves() []leafPos {
	var res []leafPos
	pos := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		if isLeaf(n) {
			l := leafLen(n)
			res = append(res, leafPos{node: n, start: pos, end: pos + l})
			pos += l
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, c := range t.Root.Children {
		walk(c)
	}
	return res
}

// startOf возвращает текстовое смещение начала узла.
func (t *Tree) startOf(target *Node) int {
	pos := 0
	var walk func(n *Node) bool
	walk = func(n *Node) bool {
		if n == target {
			return true
		}
		if isLeaf(n) {
			pos += leafLen(n)
			return false
		}
		for _, c := range n.Children {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(t.Root)
	return pos
}

// OffsetOf переводит точку в текстовое смещение. false, если узла нет в дереве.
func (t *Tree) OffsetOf(p Point) (int, bool) {
	n, ok := t.Node(p.Node)
	if !ok || !t.Contains(n) {
		return 0, false
	}
	start := t.startOf(n)
	if n.Type == TextNode {
		return start + max(0, min(p.Offset, leafLen(n))), true
	}
	if n.IsBreak() {
		return start, true
	}
	for i := 0; i < len(n.Children) && i < p.Offset; i++ {
		start += Len(n.Children[i])
	}
	return start, true
}

// PointAt переводит текстовое смещение в точку. Предпочитается текстовый узел, начинающийся
// в этом смещении; на границе с <br> или в пустом документе возвращается точка в элементе.
func (t *Tree) PointAt(offset int) Point {
	leaves := t.leaves()
	if len(leaves) == 0 {
		return Point{Node: t.Root.ID, Offset: len(t.Root.Children)}
	}
	offset = max(0, offset)

	for i, l := range leaves {
		if offset >= l.end && !(offset == l.end && i == len(leaves)-1) {
			continue
		}
		if l.node.Type == TextNode {
			return Point{Node: l.node.ID, Offset: offset - l.start}
		}
		// <br>: до него, если смещение в его начале, иначе после
		if offset <= l.start {
			if i > 0 && leaves[i-1].node.Type == TextNode && leaves[i-1].end == offset {
				prev := leaves[i-1]
				return Point{Node: prev.node.ID, Offset: prev.end - prev.start}
			}
			return Point{Node: l.node.Parent.ID, Offset: l.node.Index()}
		}
		return Point{Node: l.node.Parent.ID, Offset: l.node.Index() + 1}
	}

	last := leaves[len(leaves)-1]
	if last.node.Type == TextNode {
		return Point{Node: last.node.ID, Offset: last.end - last.start}
	}
	return Point{Node: last.node.Parent.ID, Offset: last.node.Index() + 1}
}

// RangeOf упорядочивает выделение в диапазон. false, если точка ссылается на удаленный узел.
func (t *Tree) RangeOf(sel Selection) (Range, bool) {
	a, ok := t.OffsetOf(sel.Anchor)
	if !ok {
		return Range{}, false
	}
	f, ok := t.OffsetOf(sel.Focus)
	if !ok {
		return Range{}, false
	}
	if a > f {
		a, f = f, a
	}
	return Range{Start: a, End: f}, true
}

// SelectionOf строит выделение по диапазону.
func (t *Tree) SelectionOf(r Range) Selection {
	return Selection{Anchor: t.PointAt(r.Start), Focus: t.PointAt(r.End)}
}

// SplitText разрезает текстовый узел по руне at и возвращает правую часть (новый узел после n).
// Если at на краю текста, разрез не выполняется и возвращается nil.
func (t *Tree) SplitText(n *Node, at int) *Node {
	if n.Type != TextNode {
		return nil
	}
	runes := []rune(n.Text)
	if at <= 0 || at >= len(runes) {
		return nil
	}
	right := t.NewText(string(runes[at:]))
	n.Text = string(runes[:at])
	t.InsertAfter(n, right)
	return right
}

// splitAt гарантирует, что смещение приходится на границу листьев.
func (t *Tree) splitAt(offset int) {
	for _, l := range t.leaves() {
		if l.node.Type == TextNode && offset > l.start && offset < l.end {
			t.SplitText(l.node, offset-l.start)
			return
		}
	}
}

// Leaves возвращает листья (текст и <br>), целиком попадающие в диапазон.
// Текстовые узлы на границах диапазона предварительно разрезаются.
func (t *Tree) Leaves(r Range) []*Node {
	if r.Collapsed() {
		return nil
	}
	// сначала конец, чтобы смещение начала осталось в том же узле
	t.splitAt(r.End)
	t.splitAt(r.Start)

	var res []*Node
	for _, l := range t.leaves() {
		if l.end > l.start && l.start >= r.Start && l.end <= r.End {
			res = append(res, l.node)
		}
	}
	return res
}

// RangeText возвращает текст диапазона без переводов строк, как Range.toString() в браузере.
func (t *Tree) RangeText(r Range) string {
	if r.Collapsed() {
		return ""
	}
	var res []rune
	for _, l := range t.leaves() {
		if l.node.Type != TextNode || l.end <= r.Start || l.start >= r.End {
			continue
		}
		runes := []rune(l.node.Text)
		from := max(r.Start, l.start) - l.start
		to := min(r.End, l.end) - l.start
		res = append(res, runes[from:to]...)
	}
	return string(res)
}

// DeleteContents удаляет содержимое диапазона и возвращает точку вставки: родителя первого
// удаленного листа и его бывшую позицию. Опустевшие элементы остаются до PruneEmpty,
// чтобы вставка попала в тот же контейнер.
func (t *Tree) DeleteContents(r Range) (parent *Node, index int) {
	leaves := t.Leaves(r)
	if len(leaves) == 0 {
		p := t.PointAt(r.Start)
		n, _ := t.Node(p.Node)
		if n.Type == TextNode {
			if right := t.SplitText(n, p.Offset); right != nil || p.Offset > 0 {
				return n.Parent, n.Index() + 1
			}
			return n.Parent, n.Index()
		}
		return n, p.Offset
	}

	parent, index = leaves[0].Parent, leaves[0].Index()
	for _, l := range leaves {
		t.Remove(l)
	}
	return parent, index
}

// InsertNode вставляет узел в точку, полученную из DeleteContents.
func (t *Tree) InsertNode(parent *Node, index int, n *Node) {
	t.InsertAt(parent, index, n)
}
