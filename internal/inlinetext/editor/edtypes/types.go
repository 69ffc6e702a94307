// Модель форматов строчного редактора: закрытый набор форматов, их канонические теги и синонимы.
//
// Основные возможности:
//   - Перечисление поддерживаемых форматов (bold, italic, underline, strikethrough, code, link).
//   - Сопоставление формата с каноническим тегом и синонимами и обратно.
//   - Битовый набор форматов для списков разрешенных и активных форматов.
//   - Определение форматов по инлайн-стилям элемента (см. style.go).
package edtypes

import (
	"encoding/json"
	"strings"
)

type Format uint8

const (
	Bold Format = iota
	Italic
	Underline
	Strikethrough
	Code
	Link

	formatCount
)

// AllFormats - все форматы в порядке кнопок панели инструментов
var AllFormats = []Format{Bold, Italic, Underline, Strikethrough, Code, Link}

var formatNames = [formatCount]string{
	Bold:          "bold",
	Italic:        "italic",
	Underline:     "underline",
	Strikethrough: "strikethrough",
	Code:          "code",
	Link:          "link",
}

// FormatSpec описывает представление формата в HTML.
type FormatSpec struct {
	Canonical string
	Synonyms  []string
}

var formatSpecs = [formatCount]FormatSpec{
	Bold:          {Canonical: "strong", Synonyms: []string{"b"}},
	Italic:        {Canonical: "em", Synonyms: []string{"i"}},
	Underline:     {Canonical: "u"},
	Strikethrough: {Canonical: "del", Synonyms: []string{"s", "strike"}},
	Code:          {Canonical: "code"},
	Link:          {Canonical: "a"},
}

var tagFormats = func() map[string]Format {
	m := make(map[string]Format)
	for _, f := range AllFormats {
		spec := formatSpecs[f]
		m[spec.Canonical] = f
		for _, s := range spec.Synonyms {
			m[s] = f
		}
	}
	return m
}()

func (f Format) String() string {
	if f >= formatCount {
		return "unknown"
	}
	return formatNames[f]
}

func (f Format) Valid() bool {
	return f < formatCount
}

// Spec возвращает теги формата.
func (f Format) Spec() FormatSpec {
	if !f.Valid() {
		return FormatSpec{}
	}
	return formatSpecs[f]
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(data []byte) error {
	ff, ok := ParseFormat(string(data))
	if !ok {
		return &UnknownFormatError{Name: string(data)}
	}
	*f = ff
	return nil
}

type UnknownFormatError struct {
	Name string
}

func (e *UnknownFormatError) Error() string {
	return "unknown format: " + e.Name
}

// ParseFormat ищет формат по имени без учета регистра.
func ParseFormat(name string) (Format, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range AllFormats {
		if formatNames[f] == name {
			return f, true
		}
	}
	return 0, false
}

// TagsFor возвращает канонический тег формата и его синонимы.
func TagsFor(f Format) (canonical string, synonyms []string) {
	spec := f.Spec()
	return spec.Canonical, spec.Synonyms
}

// FormatForTag возвращает формат, которому соответствует тег (канонический или синоним).
func FormatForTag(tag string) (Format, bool) {
	f, ok := tagFormats[strings.ToLower(tag)]
	return f, ok
}

// FormatSet - битовый набор форматов.
type FormatSet uint8

func NewFormatSet(formats ...Format) FormatSet {
	var s FormatSet
	for _, f := range formats {
		s = s.Add(f)
	}
	return s
}

// FullSet - набор из всех форматов
func FullSet() FormatSet {
	return NewFormatSet(AllFormats...)
}

func (s FormatSet) Has(f Format) bool {
	return f.Valid() && s&(1<<f) != 0
}

func (s FormatSet) Add(f Format) FormatSet {
	if !f.Valid() {
		return s
	}
	return s | 1<<f
}

func (s FormatSet) Remove(f Format) FormatSet {
	return s &^ (1 << f)
}

func (s FormatSet) Union(o FormatSet) FormatSet {
	return s | o
}

func (s FormatSet) Intersect(o FormatSet) FormatSet {
	return s & o
}

func (s FormatSet) Without(o FormatSet) FormatSet {
	return s &^ o
}

func (s FormatSet) Empty() bool {
	return s == 0
}

func (s FormatSet) Len() int {
	n := 0
	for _, f := range AllFormats {
		if s.Has(f) {
			n++
		}
	}
	return n
}

// Formats возвращает форматы набора в порядке панели инструментов.
func (s FormatSet) Formats() []Format {
	res := make([]Format, 0, len(AllFormats))
	for _, f := range AllFormats {
		if s.Has(f) {
			res = append(res, f)
		}
	}
	return res
}

func (s FormatSet) Strings() []string {
	res := make([]string, 0, len(AllFormats))
	for _, f := range s.Formats() {
		res = append(res, f.String())
	}
	return res
}

func (s FormatSet) String() string {
	return "{" + strings.Join(s.Strings(), ", ") + "}"
}

// ParseFormatSet собирает набор из имен форматов. Возвращает ошибку на первом неизвестном имени.
func ParseFormatSet(names []string) (FormatSet, error) {
	var s FormatSet
	for _, n := range names {
		f, ok := ParseFormat(n)
		if !ok {
			return 0, &UnknownFormatError{Name: n}
		}
		s = s.Add(f)
	}
	return s, nil
}

func (s FormatSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *FormatSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set, err := ParseFormatSet(names)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
