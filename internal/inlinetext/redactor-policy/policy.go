// Политики bluemonday для предварительной очистки вставляемого HTML перед переписыванием дерева.
//
// Основные возможности:
//   - PastePolicy пропускает теги форматирования и их синонимы, блочные контейнеры, span/font и <br>.
//   - Из стилей остаются только свойства, влияющие на форматирование (начертание, наклон, оформление линии).
//   - Ссылки сохраняют href только с безопасными схемами (http, https, mailto, tel) или относительным адресом.
//   - StripTagsPolicy удаляет всю разметку и используется как текстовый запасной вариант.
package policy

import (
	"net/url"
	"strings"

	"github.com/aisa-it/inline-text/internal/inlinetext/editor/edtypes"
	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()
var PastePolicy *bluemonday.Policy = bluemonday.NewPolicy()

// SafeSchemes - схемы, с которыми href переносится в результат
var SafeSchemes = []string{"http", "https", "mailto", "tel"}

// Блочные контейнеры, которые остаются до переписывания дерева, чтобы расставить переводы строк.
var blockTags = []string{
	"p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "pre",
	"section", "article", "header", "footer", "aside", "nav", "main", "ul", "ol", "dl", "dt", "dd",
	"table", "thead", "tbody", "tfoot", "tr", "td", "th", "figure", "figcaption", "address", "center",
}

func init() {
	for _, f := range edtypes.AllFormats {
		canonical, synonyms := edtypes.TagsFor(f)
		PastePolicy.AllowElements(canonical)
		PastePolicy.AllowElements(synonyms...)
	}
	PastePolicy.AllowElements(blockTags...)
	PastePolicy.AllowElements("span", "font", "br")
	PastePolicy.AllowNoAttrs().OnElements("main", "font")

	PastePolicy.AllowStyles("font-weight", "font-style", "text-decoration", "text-decoration-line").Globally()

	PastePolicy.AllowAttrs("href").OnElements("a")
	PastePolicy.AllowURLSchemes(SafeSchemes...)
	PastePolicy.AllowRelativeURLs(true)
	PastePolicy.RequireParseableURLs(true)

	PastePolicy.SkipElementsContent("template", "noscript", "iframe", "object", "title", "head")
}

// SafeURL сообщает, можно ли перенести адрес ссылки в результат.
func SafeURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		return true
	}
	for _, s := range SafeSchemes {
		if strings.EqualFold(u.Scheme, s) {
			return true
		}
	}
	return false
}
