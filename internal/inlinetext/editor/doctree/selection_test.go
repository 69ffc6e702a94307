package doctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetOf(t *testing.T) {
	tree := mustParse(t, "ab<strong>cd</strong><br>é")
	cd := textNode(tree, "cd")
	e := textNode(tree, "é")

	tests := []struct {
		name  string
		point Point
		want  int
	}{
		{"text start", Point{Node: textNode(tree, "ab").ID, Offset: 0}, 0},
		{"inside formatted", Point{Node: cd.ID, Offset: 1}, 3},
		{"element point", Point{Node: tree.Root.ID, Offset: 2}, 4},
		{"after break", Point{Node: tree.Root.ID, Offset: 3}, 5},
		{"multibyte rune", Point{Node: e.ID, Offset: 1}, 6},
		{"clamped", Point{Node: cd.ID, Offset: 10}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tree.OffsetOf(tt.point)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := tree.OffsetOf(Point{Node: 9999})
	assert.False(t, ok)
}

func TestPointAtRoundTrip(t *testing.T) {
	tree := mustParse(t, "ab<strong>cd</strong><br>ef")
	for offset := 0; offset <= Len(tree.Root); offset++ {
		p := tree.PointAt(offset)
		got, ok := tree.OffsetOf(p)
		require.True(t, ok)
		assert.Equal(t, offset, got, "offset %d -> %+v", offset, p)
	}
}

func TestPointAtPrefersFollowingText(t *testing.T) {
	tree := mustParse(t, "ab<strong>cd</strong>")
	p := tree.PointAt(2)
	assert.Equal(t, textNode(tree, "cd").ID, p.Node)
	assert.Equal(t, 0, p.Offset)

	empty := New()
	assert.Equal(t, Point{Node: empty.Root.ID}, empty.PointAt(3))
}

func TestRangeOf(t *testing.T) {
	tree := mustParse(t, "hello world")
	text := textNode(tree, "hello world")

	r, ok := tree.RangeOf(Selection{
		Anchor: Point{Node: text.ID, Offset: 8},
		Focus:  Point{Node: text.ID, Offset: 2},
	})
	require.True(t, ok)
	assert.Equal(t, Range{Start: 2, End: 8}, r)
	assert.Equal(t, "llo wo", tree.RangeText(r))

	_, ok = tree.RangeOf(Caret(Point{Node: 777}))
	assert.False(t, ok)
}

func TestLeavesSplitsBoundaries(t *testing.T) {
	tree := mustParse(t, "hello <em>big</em> world")
	leaves := tree.Leaves(Range{Start: 3, End: 11})

	var texts []string
	for _, l := range leaves {
		texts = append(texts, l.Text)
	}
	assert.Equal(t, []string{"lo ", "big", " w"}, texts)
	assert.Equal(t, "hello <em>big</em> world", tree.HTML())
}

func TestDeleteContentsAndInsert(t *testing.T) {
	t.Run("inside text", func(t *testing.T) {
		tree := mustParse(t, "say foo now")
		r := Range{Start: 4, End: 7}
		text := tree.RangeText(r)
		parent, index := tree.DeleteContents(r)

		code := tree.NewElement("code")
		tree.AppendChild(code, tree.NewText(text))
		tree.InsertNode(parent, index, code)
		tree.PruneEmpty()

		assert.Equal(t, "say <code>foo</code> now", tree.HTML())
	})

	t.Run("keeps container", func(t *testing.T) {
		tree := mustParse(t, "<strong>foo</strong>")
		parent, index := tree.DeleteContents(Range{Start: 0, End: 3})
		tree.InsertNode(parent, index, tree.NewText("x"))
		tree.PruneEmpty()

		assert.Equal(t, "<strong>x</strong>", tree.HTML())
	})

	t.Run("collapsed splits text", func(t *testing.T) {
		tree := mustParse(t, "abcd")
		parent, index := tree.DeleteContents(Range{Start: 2, End: 2})
		tree.InsertNode(parent, index, tree.NewElement("br"))

		assert.Equal(t, "ab<br>cd", tree.HTML())
	})

	t.Run("across elements", func(t *testing.T) {
		tree := mustParse(t, "a<strong>bc</strong>d")
		tree.DeleteContents(Range{Start: 1, End: 4})
		tree.PruneEmpty()
		tree.Normalize()

		assert.Equal(t, "a", tree.HTML())
	})
}
