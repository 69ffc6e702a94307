package editor

import (
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/doctree"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/edtypes"
)

// Реэкспорт типов из edtypes и doctree
type (
	Format    = edtypes.Format
	FormatSet = edtypes.FormatSet
	Selection = doctree.Selection
	Point     = doctree.Point
)

// Реэкспорт констант
const (
	Bold          = edtypes.Bold
	Italic        = edtypes.Italic
	Underline     = edtypes.Underline
	Strikethrough = edtypes.Strikethrough
	Code          = edtypes.Code
	Link          = edtypes.Link
)

// Реэкспорт функций
var (
	ParseFormat  = edtypes.ParseFormat
	NewFormatSet = edtypes.NewFormatSet
)
