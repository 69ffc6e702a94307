package edtypes

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// ComputedStyle возвращает вычисленные хостом стили элемента (property -> value).
// Используется только как дополнительная подсказка для свойств без явного объявления.
type ComputedStyle func(n *html.Node) map[string]string

// StyleImplies возвращает форматы, которые следуют из явного атрибута style элемента.
func StyleImplies(n *html.Node) FormatSet {
	implied, _ := StyleFormats(n, nil)
	return implied
}

// StyleNegates возвращает форматы, явно отключенные атрибутом style (font-weight: normal и т.п.).
func StyleNegates(n *html.Node) FormatSet {
	_, negated := StyleFormats(n, nil)
	return negated
}

// StyleFormats разбирает инлайн-стили элемента и возвращает включенные и выключенные ими форматы.
// Явные объявления приоритетнее вычисленных: computed применяется первым и перекрывается атрибутом style.
func StyleFormats(n *html.Node, computed ComputedStyle) (implied FormatSet, negated FormatSet) {
	if n == nil || n.Type != html.ElementNode {
		return 0, 0
	}

	var decls []*css.Declaration
	if computed != nil {
		props := computed(n)
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			decls = append(decls, &css.Declaration{Property: k, Value: props[k]})
		}
	}
	decls = append(decls, inlineDeclarations(n)...)

	state := make(map[Format]bool)
	for _, d := range decls {
		for f, on := range declarationFormats(d) {
			state[f] = on
		}
	}

	for _, f := range AllFormats {
		on, ok := state[f]
		if !ok {
			continue
		}
		if on {
			implied = implied.Add(f)
		} else {
			negated = negated.Add(f)
		}
	}
	return implied, negated
}

func inlineDeclarations(n *html.Node) []*css.Declaration {
	var style string
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "style") {
			style = a.Val
			break
		}
	}
	style = strings.TrimSpace(style)
	if style == "" {
		return nil
	}
	// без завершающей ";" douceur теряет значение последнего объявления
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		slog.Debug("Parse inline style", "style", style, "err", err)
		return nil
	}
	return decls
}

// declarationFormats возвращает форматы, на которые влияет объявление: true - включает, false - выключает.
func declarationFormats(d *css.Declaration) map[Format]bool {
	value := strings.ToLower(strings.TrimSpace(d.Value))
	res := make(map[Format]bool)

	switch strings.ToLower(strings.TrimSpace(d.Property)) {
	case "font-weight":
		if on, ok := fontWeightBold(value); ok {
			res[Bold] = on
		}
	case "font-style":
		if on, ok := fontStyleItalic(value); ok {
			res[Italic] = on
		}
	case "text-decoration", "text-decoration-line":
		for _, token := range strings.Fields(value) {
			switch token {
			case "underline":
				res[Underline] = true
			case "line-through":
				res[Strikethrough] = true
			case "none":
				res[Underline] = false
				res[Strikethrough] = false
			}
		}
	case "font":
		// shorthand: "italic bold 12px/30px Georgia"
		for _, token := range strings.Fields(value) {
			if on, ok := fontWeightBold(token); ok && on {
				res[Bold] = true
			}
			if on, ok := fontStyleItalic(token); ok && on {
				res[Italic] = true
			}
		}
	}
	return res
}

func fontWeightBold(value string) (bold bool, ok bool) {
	switch value {
	case "bold", "bolder":
		return true, true
	case "normal", "lighter":
		return false, true
	}
	w, err := strconv.Atoi(value)
	if err != nil || w < 1 || w > 1000 {
		return false, false
	}
	return w >= 600, true
}

func fontStyleItalic(value string) (italic bool, ok bool) {
	switch {
	case value == "italic", strings.HasPrefix(value, "oblique"):
		return true, true
	case value == "normal":
		return false, true
	}
	return false, false
}
