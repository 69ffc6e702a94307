// Пакет editor реализует ядро строчного редактора форматированного текста.
//
// Редактор владеет деревом документа, принимает выделение как явное значение и применяет к нему
// команды форматирования. После каждого изменения пересчитывается сохраняемое значение
// (HTML как есть или HTML->Markdown) и набор активных форматов.
//
// Основные возможности:
//   - Загрузка значения поля с очисткой по списку разрешенных форматов.
//   - Команды форматирования: жирный, курсив, подчеркивание, зачеркивание (через NativeToggler),
//     строчный код и двухшаговая вставка ссылки.
//   - Вставка из буфера обмена с полной очисткой до изменения дерева.
//   - Ввод текста и переводов строк с учетом настройки allowNewlines.
//   - Вычисление активных форматов в точке выделения.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aisa-it/inline-text/internal/inlinetext/editor/doctree"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/edtypes"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/markdown"
	policy "github.com/aisa-it/inline-text/internal/inlinetext/redactor-policy"
	"github.com/aisa-it/inline-text/internal/inlinetext/types"
	"golang.org/x/net/html"
)

var ErrInvalidConfig = errors.New("invalid editor config")

// Config - настройки поля, разрешенные один раз на экземпляр редактора.
type Config struct {
	Output        types.OutputMode
	AllowNewlines bool
	Allowed       edtypes.FormatSet
	Disabled      bool
}

// DefaultConfig - html, переводы строк разрешены, все форматы разрешены
func DefaultConfig() Config {
	return Config{
		Output:        types.OutputHTML,
		AllowNewlines: true,
		Allowed:       edtypes.FullSet(),
	}
}

// Validate проверяет настройки. Вызывается перед каждой очисткой.
func (c Config) Validate() error {
	if !c.Output.OrDefault().Valid() {
		return fmt.Errorf("%w: output %q", ErrInvalidConfig, string(c.Output))
	}
	if c.Allowed.Without(edtypes.FullSet()) != 0 {
		return fmt.Errorf("%w: unknown formats in allow-list", ErrInvalidConfig)
	}
	return nil
}

// Clipboard - содержимое буфера обмена при вставке.
type Clipboard struct {
	HTML string `json:"html,omitempty"`
	Text string `json:"text,omitempty"`
}

type Option func(*Editor)

// WithToggler подменяет примитив форматирования хоста.
func WithToggler(t NativeToggler) Option {
	return func(e *Editor) {
		e.toggler = t
	}
}

// OnChange регистрирует обработчик изменения сохраняемого значения.
func OnChange(fn func(value string)) Option {
	return func(e *Editor) {
		e.onChange = fn
	}
}

// WithComputedStyle передает очистке вычисленные стили хоста.
func WithComputedStyle(cs edtypes.ComputedStyle) Option {
	return func(e *Editor) {
		e.computed = cs
	}
}

// Editor - экземпляр редактора. Не потокобезопасен: все операции выполняются последовательно.
type Editor struct {
	cfg      Config
	toggler  NativeToggler
	onChange func(value string)
	computed edtypes.ComputedStyle

	tree   *doctree.Tree
	sel    *doctree.Selection
	active edtypes.FormatSet
	link   LinkEntry
	value  string
}

func New(cfg Config, opts ...Option) (*Editor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Output = cfg.Output.OrDefault()

	e := &Editor{
		cfg:     cfg,
		toggler: DefaultToggler{},
		tree:    doctree.New(),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

func (e *Editor) Config() Config {
	return e.cfg
}

func (e *Editor) Tree() *doctree.Tree {
	return e.tree
}

// Load пересобирает дерево из сохраненного значения. Без разрешенных переводов строк <br> заменяются пробелами.
// Выделение сбрасывается, обработчик изменения не вызывается.
func (e *Editor) Load(value string) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	raw := value
	if e.cfg.Output == types.OutputMarkdown {
		raw = markdown.ToHTML(value)
	}
	nodes, err := policy.SanitizeHTML(raw, e.cfg.Allowed, e.sanitizeOptions()...)
	if err != nil {
		return err
	}

	e.tree.Load(nodes)
	if !e.cfg.AllowNewlines {
		e.replaceBreaks(e.tree.Root)
	}
	e.tree.Normalize()
	e.sel = nil
	e.active = 0
	e.value = e.serialize()
	return nil
}

// Value возвращает сохраняемое значение.
func (e *Editor) Value() string {
	return e.value
}

// HTML возвращает содержимое редактора в HTML независимо от режима хранения.
func (e *Editor) HTML() string {
	return e.tree.HTML()
}

func (e *Editor) serialize() string {
	h := e.tree.HTML()
	if e.cfg.Output == types.OutputMarkdown {
		return markdown.ToMarkdown(h)
	}
	return h
}

// Select устанавливает выделение и пересчитывает активные форматы.
func (e *Editor) Select(sel doctree.Selection) {
	e.sel = &sel
	e.refreshActive()
}

// SelectRange устанавливает выделение по текстовым смещениям.
func (e *Editor) SelectRange(start, end int) {
	sel := e.tree.SelectionOf(doctree.Range{Start: min(start, end), End: max(start, end)})
	if start > end {
		sel.Anchor, sel.Focus = sel.Focus, sel.Anchor
	}
	e.Select(sel)
}

// ClearSelection снимает выделение (фокус ушел из редактора).
func (e *Editor) ClearSelection() {
	e.sel = nil
	e.refreshActive()
}

// Selection возвращает текущее выделение.
func (e *Editor) Selection() (doctree.Selection, bool) {
	if e.sel == nil {
		return doctree.Selection{}, false
	}
	return *e.sel, true
}

// ActiveFormats возвращает форматы, активные в якоре текущего выделения.
func (e *Editor) ActiveFormats() edtypes.FormatSet {
	return e.active
}

func (e *Editor) refreshActive() {
	e.active = ActiveFormats(e.tree, e.sel)
}

// ActiveFormats поднимается от якоря выделения до корня и собирает форматы предков.
// Возвращает пустой набор без выделения или если якорь удален из дерева.
func ActiveFormats(t *doctree.Tree, sel *doctree.Selection) edtypes.FormatSet {
	var res edtypes.FormatSet
	if t == nil || sel == nil {
		return res
	}
	n, ok := t.Node(sel.Anchor.Node)
	if !ok || !t.Contains(n) {
		return res
	}
	for ; n != nil && n != t.Root; n = n.Parent {
		if n.Type != doctree.ElementNode {
			continue
		}
		if f, ok := edtypes.FormatForTag(n.Tag); ok {
			res = res.Add(f)
		}
	}
	return res
}

// ApplyFormat применяет формат к текущему выделению. Без выделения, при схлопнутом выделении
// или для запрещенного формата ничего не делает.
//
// Параметры:
//   - f: формат.
//   - value: адрес ссылки для Link, для остальных форматов игнорируется.
//
// Возвращает:
//   - error: ошибку примитива NativeToggler.
func (e *Editor) ApplyFormat(f edtypes.Format, value string) error {
	if e.cfg.Disabled || !e.cfg.Allowed.Has(f) {
		slog.Debug("Skip format command", "format", f, "disabled", e.cfg.Disabled)
		return nil
	}
	if e.sel == nil {
		return nil
	}
	r, ok := e.tree.RangeOf(*e.sel)
	if !ok || r.Collapsed() {
		return nil
	}
	anchor, _ := e.tree.OffsetOf(e.sel.Anchor)
	backward := anchor > r.Start

	switch f {
	case edtypes.Code:
		e.wrapCode(r)
	case edtypes.Link:
		if !policy.SafeURL(value) {
			slog.Debug("Skip link with unsafe url", "url", value)
			return nil
		}
		if err := e.toggler.CreateLink(e.tree, *e.sel, strings.TrimSpace(value)); err != nil {
			return err
		}
		e.restore(r, backward)
	default:
		if err := e.toggler.Toggle(e.tree, *e.sel, f); err != nil {
			return err
		}
		e.restore(r, backward)
	}

	e.changed()
	return nil
}

// wrapCode заменяет выделенное элементом <code> с тем же текстом и ставит каретку сразу после него.
func (e *Editor) wrapCode(r doctree.Range) {
	text := e.tree.RangeText(r)
	if text == "" {
		return
	}

	parent, index := e.tree.DeleteContents(r)
	code := e.tree.NewElement("code")
	e.tree.AppendChild(code, e.tree.NewText(text))
	e.tree.InsertNode(parent, index, code)
	e.tree.PruneEmpty()

	caret := doctree.Caret(doctree.Point{Node: code.Parent.ID, Offset: code.Index() + 1})
	e.sel = &caret
}

// restore восстанавливает выделение по текстовым смещениям после перестройки узлов.
func (e *Editor) restore(r doctree.Range, backward bool) {
	sel := e.tree.SelectionOf(r)
	if backward {
		sel.Anchor, sel.Focus = sel.Focus, sel.Anchor
	}
	e.sel = &sel
}

func (e *Editor) changed() {
	e.value = e.serialize()
	e.refreshActive()
	if e.onChange != nil {
		e.onChange(e.value)
	}
}

// InsertText вставляет набранный текст вместо выделения. Без разрешенных переводов строк
// они заменяются пробелами.
func (e *Editor) InsertText(s string) {
	if e.cfg.Disabled || e.sel == nil || s == "" {
		return
	}
	e.insertNodes(e.textNodes(s))
}

// KeyDown обрабатывает нажатие клавиши. Возвращает true, если действие по умолчанию нужно отменить.
// Enter при запрещенных переводах строк игнорируется, иначе вставляет <br>.
func (e *Editor) KeyDown(key string) bool {
	if key != "Enter" {
		return false
	}
	if e.cfg.Disabled || !e.cfg.AllowNewlines {
		return true
	}
	if e.sel != nil {
		e.insertNodes([]*doctree.Node{e.tree.NewElement("br")})
	}
	return true
}

// Paste вставляет содержимое буфера обмена. HTML очищается целиком до изменения дерева,
// при его отсутствии используется текст. Возвращает true, если вставка по умолчанию отменена.
func (e *Editor) Paste(c Clipboard) (bool, error) {
	if c.HTML == "" && c.Text == "" {
		return false, nil
	}
	if err := e.cfg.Validate(); err != nil {
		return true, err
	}
	if e.cfg.Disabled || e.sel == nil {
		return true, nil
	}

	var nodes []*doctree.Node
	if c.HTML != "" {
		clean, err := policy.SanitizeHTML(types.RemoveInvisibleChars(c.HTML), e.cfg.Allowed, e.sanitizeOptions()...)
		if err != nil {
			return true, err
		}
		for _, n := range clean {
			if imported := e.importPasted(n); imported != nil {
				nodes = append(nodes, imported)
			}
		}
	} else {
		nodes = e.textNodes(types.RemoveInvisibleChars(c.Text))
	}

	e.insertNodes(nodes)
	return true, nil
}

func (e *Editor) sanitizeOptions() []policy.Option {
	if e.computed == nil {
		return nil
	}
	return []policy.Option{policy.WithComputedStyle(e.computed)}
}

// importPasted переносит очищенный узел в дерево, заменяя <br> пробелом при запрещенных переводах строк.
func (e *Editor) importPasted(n *html.Node) *doctree.Node {
	imported := e.tree.Import(n)
	if imported == nil || e.cfg.AllowNewlines {
		return imported
	}
	if imported.IsBreak() {
		return e.tree.NewText(" ")
	}
	e.replaceBreaks(imported)
	return imported
}

// replaceBreaks заменяет все <br> внутри n пробелами.
func (e *Editor) replaceBreaks(n *doctree.Node) {
	for _, c := range append([]*doctree.Node(nil), n.Children...) {
		if c.IsBreak() {
			e.tree.InsertBefore(c, e.tree.NewText(" "))
			e.tree.Remove(c)
			continue
		}
		e.replaceBreaks(c)
	}
}

func (e *Editor) textNodes(s string) []*doctree.Node {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !e.cfg.AllowNewlines {
		return []*doctree.Node{e.tree.NewText(strings.ReplaceAll(s, "\n", " "))}
	}
	var nodes []*doctree.Node
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			nodes = append(nodes, e.tree.NewElement("br"))
		}
		if line != "" {
			nodes = append(nodes, e.tree.NewText(line))
		}
	}
	return nodes
}

// insertNodes заменяет выделение узлами и ставит каретку после вставленного.
func (e *Editor) insertNodes(nodes []*doctree.Node) {
	r, ok := e.tree.RangeOf(*e.sel)
	if !ok {
		return
	}

	parent, index := e.tree.DeleteContents(r)
	inserted := 0
	for i, n := range nodes {
		e.tree.InsertNode(parent, index+i, n)
		inserted += doctree.Len(n)
	}
	e.tree.Normalize()

	caret := e.tree.SelectionOf(doctree.Range{Start: r.Start + inserted, End: r.Start + inserted})
	e.sel = &caret
	e.changed()
}

// Reencode загружает значение, сохраненное в режиме from, очищает его по настройкам cfg
// и возвращает в режиме cfg.Output.
func Reencode(cfg Config, value string, from types.OutputMode) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	src := cfg
	src.Output = from.OrDefault()
	e, err := New(src)
	if err != nil {
		return "", err
	}
	if err := e.Load(value); err != nil {
		return "", err
	}
	to := cfg.Output.OrDefault()
	if to == src.Output {
		return e.Value(), nil
	}
	return markdown.Convert(e.HTML(), types.OutputHTML, to), nil
}
