package editor

import (
	"strings"

	"github.com/aisa-it/inline-text/internal/inlinetext/editor/edtypes"
	policy "github.com/aisa-it/inline-text/internal/inlinetext/redactor-policy"
)

var controlLabels = map[edtypes.Format]string{
	edtypes.Bold:          "Bold",
	edtypes.Italic:        "Italic",
	edtypes.Underline:     "Underline",
	edtypes.Strikethrough: "Strikethrough",
	edtypes.Code:          "Inline Code",
	edtypes.Link:          "Link",
}

// Control - кнопка панели инструментов
type Control struct {
	Format   edtypes.Format `json:"format"`
	Label    string         `json:"label"`
	Active   bool           `json:"active"`
	Disabled bool           `json:"disabled"`
}

// LinkEntry - состояние поля ввода адреса ссылки.
type LinkEntry struct {
	Open bool   `json:"open"`
	URL  string `json:"url"`
}

// CanSubmit - кнопка подтверждения доступна только с непустым адресом
func (l LinkEntry) CanSubmit() bool {
	return l.Open && strings.TrimSpace(l.URL) != ""
}

// ToolbarState - отображаемое состояние панели: кнопки разрешенных форматов в фиксированном
// порядке и, если открыт ввод ссылки, его поле с кнопками подтверждения и отмены.
type ToolbarState struct {
	Controls []Control `json:"controls"`
	Link     *LinkView `json:"link,omitempty"`
}

type LinkView struct {
	URL       string `json:"url"`
	CanSubmit bool   `json:"canSubmit"`
}

// Toolbar строит панель для разрешенных форматов.
func Toolbar(allowed, active edtypes.FormatSet, link LinkEntry, disabled bool) ToolbarState {
	var st ToolbarState
	for _, f := range allowed.Formats() {
		st.Controls = append(st.Controls, Control{
			Format:   f,
			Label:    controlLabels[f],
			Active:   active.Has(f),
			Disabled: disabled,
		})
	}
	if link.Open && allowed.Has(edtypes.Link) {
		st.Link = &LinkView{URL: link.URL, CanSubmit: link.CanSubmit()}
	}
	return st
}

func (e *Editor) Toolbar() ToolbarState {
	return Toolbar(e.cfg.Allowed, e.active, e.link, e.cfg.Disabled)
}

// Click обрабатывает нажатие кнопки панели: для ссылки открывает ввод адреса, для остальных применяет формат.
func (e *Editor) Click(f edtypes.Format) error {
	if f == edtypes.Link {
		e.OpenLink()
		return nil
	}
	return e.ApplyFormat(f, "")
}

// OpenLink открывает ввод адреса ссылки. Документ не меняется.
func (e *Editor) OpenLink() {
	if e.cfg.Disabled || !e.cfg.Allowed.Has(edtypes.Link) {
		return
	}
	e.link.Open = true
}

func (e *Editor) SetLinkURL(url string) {
	if e.link.Open {
		e.link.URL = url
	}
}

func (e *Editor) LinkEntry() LinkEntry {
	return e.link
}

// SubmitLink применяет ссылку к выделению и закрывает ввод. С пустым или небезопасным адресом
// ничего не меняет, ввод остается открытым и возвращается false.
func (e *Editor) SubmitLink() (bool, error) {
	if !e.link.CanSubmit() || !policy.SafeURL(e.link.URL) {
		return false, nil
	}
	url := strings.TrimSpace(e.link.URL)
	e.link = LinkEntry{}
	if err := e.ApplyFormat(edtypes.Link, url); err != nil {
		return true, err
	}
	return true, nil
}

// CancelLink закрывает ввод и сбрасывает адрес.
func (e *Editor) CancelLink() {
	e.link = LinkEntry{}
}

// LinkKeyDown обрабатывает клавиши в поле адреса: Enter подтверждает, Escape отменяет.
func (e *Editor) LinkKeyDown(key string) (bool, error) {
	switch key {
	case "Enter":
		return e.SubmitLink()
	case "Escape":
		e.CancelLink()
	}
	return false, nil
}
