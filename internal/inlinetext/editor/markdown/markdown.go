// Пакет markdown преобразует очищенный строчный HTML в ограниченный Markdown и обратно.
//
// Преобразования - фиксированные последовательности замен по регулярным выражениям, а не парсер.
// Вложенное или пересекающееся выделение (**a *b* c**) и литеральные * [ ] ` в тексте не поддерживаются.
// Функции тотальны: неподходящий синтаксис просто не совпадает с шаблоном и проходит без изменений.
//
// Основные возможности:
//   - ToMarkdown: ссылки, жирный, курсив, зачеркивание, код, переводы строк; <u> остается как есть.
//   - ToHTML: экранирование & < >, затем обратные замены и восстановление <u>.
//   - Convert: перевод значения между режимами хранения.
package markdown

import (
	"regexp"
	"strings"

	"github.com/aisa-it/inline-text/internal/inlinetext/types"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

var toMarkdownRules = []rule{
	{regexp.MustCompile(`(?i)<a\s+href="([^"]+)"[^>]*>(.*?)</a>`), "[${2}](${1})"},
	{regexp.MustCompile(`(?i)<(b|strong)>(.*?)</(b|strong)>`), "**${2}**"},
	{regexp.MustCompile(`(?i)<(i|em)>(.*?)</(i|em)>`), "*${2}*"},
	{regexp.MustCompile(`(?i)<(strike|s|del)>(.*?)</(strike|s|del)>`), "~~${2}~~"},
	{regexp.MustCompile(`(?i)<code>(.*?)</code>`), "`${1}`"},
	{regexp.MustCompile(`(?i)<br\s*/?>`), "\n"},
}

var (
	anyTag       = regexp.MustCompile(`<[^>]+>`)
	underlineTag = regexp.MustCompile(`(?i)^</?u>$`)

	entityDecoder = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
	)
)

// ToMarkdown переводит HTML в Markdown. Оставшиеся теги, кроме <u>, удаляются, сущности
// &nbsp; &amp; &lt; &gt; &quot; декодируются за один проход, результат обрезается по краям.
func ToMarkdown(html string) string {
	md := html
	for _, r := range toMarkdownRules {
		md = r.re.ReplaceAllString(md, r.repl)
	}

	md = anyTag.ReplaceAllStringFunc(md, func(tag string) string {
		if underlineTag.MatchString(tag) {
			return strings.ToLower(tag)
		}
		return ""
	})

	md = entityDecoder.Replace(md)
	return strings.TrimSpace(md)
}

var (
	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

	mdLink      = regexp.MustCompile(`\[([^\]]+)\]\(([^\)]+)\)`)
	mdBold      = regexp.MustCompile(`\*\*([^\*]+)\*\*`)
	mdItalic    = regexp.MustCompile(`\*([^\*]+)\*`)
	mdStrike    = regexp.MustCompile(`~~([^~]+)~~`)
	mdCode      = regexp.MustCompile("`([^`]+)`")
	mdUnderline = regexp.MustCompile(`(?i)&lt;u&gt;(.*?)&lt;/u&gt;`)
	mdNewline   = regexp.MustCompile(`\r?\n`)
)

// ToHTML переводит Markdown в HTML. Экранирование выполняется до всех замен,
// чтобы сгенерированные теги не экранировались повторно.
func ToHTML(markdown string) string {
	html := htmlEscaper.Replace(markdown)

	html = mdLink.ReplaceAllStringFunc(html, func(m string) string {
		sub := mdLink.FindStringSubmatch(m)
		return `<a href="` + strings.ReplaceAll(sub[2], `"`, "&quot;") + `">` + sub[1] + `</a>`
	})
	html = mdBold.ReplaceAllString(html, "<strong>${1}</strong>")
	html = mdItalic.ReplaceAllString(html, "<em>${1}</em>")
	html = mdStrike.ReplaceAllString(html, "<del>${1}</del>")
	html = mdCode.ReplaceAllString(html, "<code>${1}</code>")
	html = mdUnderline.ReplaceAllString(html, "<u>${1}</u>")
	html = mdNewline.ReplaceAllString(html, "<br>")

	return html
}

// Convert переводит значение из одного режима хранения в другой.
// Для неизвестного режима значение возвращается без изменений.
func Convert(value string, from, to types.OutputMode) string {
	from, to = from.OrDefault(), to.OrDefault()
	switch {
	case from == to:
		return value
	case to == types.OutputMarkdown:
		return ToMarkdown(value)
	case to == types.OutputHTML:
		return ToHTML(value)
	default:
		return value
	}
}
