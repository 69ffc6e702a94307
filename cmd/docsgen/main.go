// Генерация документации сервиса в формате Markdown: перечень кодов ошибок API и таблица поддерживаемых форматов.
//
// Основные возможности:
//   - Чтение файла Go с определениями ошибок и извлечение полей DefinedError из AST.
//   - Таблица форматов с каноническими тегами и синонимами, которые распознает очистка.
//   - Сборка Markdown-документа через nao1215/markdown.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"strings"

	"github.com/aisa-it/inline-text/internal/inlinetext/editor/edtypes"
	md "github.com/nao1215/markdown"
)

var statusCodes = map[string]int{
	"StatusBadRequest":            400,
	"StatusForbidden":             403,
	"StatusNotFound":              404,
	"StatusConflict":              409,
	"StatusRequestEntityTooLarge": 413,
	"StatusUnprocessableEntity":   422,
	"StatusInternalServerError":   500,
}

// Пример запуска: go run ./cmd/docsgen -src internal/inlinetext/apierrors/apierrors.go -out docs.md
func main() {
	errorsFile := flag.String("src", "internal/inlinetext/apierrors/apierrors.go", "Path of apierrors.go")
	outputMd := flag.String("out", "api_docs.md", "Path to output md")
	flag.Parse()

	slog.Info("Generate api docs", "src", *errorsFile, "out", *outputMd)

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, *errorsFile, nil, 0)
	if err != nil {
		slog.Error("Parse errors file", "err", err)
		os.Exit(1)
	}

	ff, err := os.Create(*outputMd)
	if err != nil {
		slog.Error("Create output file", "err", err)
		os.Exit(1)
	}
	defer ff.Close()

	if err := md.NewMarkdown(ff).
		H1("Поддерживаемые форматы").
		PlainText("Форматы, которые можно разрешить в настройках поля. Синонимы при очистке приводятся к каноническому тегу.").
		CustomTable(md.TableSet{
			Header: []string{"Формат", "Тег", "Синонимы"},
			Rows:   formatRows(),
		}, md.TableOptions{
			AutoWrapText: false,
		}).
		H1("Перечень кодов ошибок").
		PlainText("Данный раздел посвящен описанию возможных ошибок от сервера.").
		CustomTable(md.TableSet{
			Header: []string{"Код", "HTTP код", "Сообщение", "Сообщение на русском"},
			Rows:   errorRows(f),
		}, md.TableOptions{
			AutoWrapText: false,
		}).Build(); err != nil {
		slog.Error("Generate docs fail", "err", err)
		os.Exit(1)
	}
	slog.Info("Docs generated")
}

func formatRows() [][]string {
	var rows [][]string
	for _, f := range edtypes.AllFormats {
		spec := f.Spec()
		synonyms := make([]string, 0, len(spec.Synonyms))
		for _, s := range spec.Synonyms {
			synonyms = append(synonyms, md.Code("<"+s+">"))
		}
		rows = append(rows, []string{md.Bold(f.String()), md.Code("<" + spec.Canonical + ">"), strings.Join(synonyms, ", ")})
	}
	return rows
}

// errorRows извлекает из объявлений var строки таблицы ошибок: код, HTTP-код, сообщения.
func errorRows(f *ast.File) [][]string {
	var rows [][]string
	for _, d := range f.Decls {
		decl, ok := d.(*ast.GenDecl)
		if !ok || decl.Tok != token.VAR {
			continue
		}
		for _, spec := range decl.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok || len(vs.Values) == 0 {
				continue
			}
			lit, ok := vs.Values[0].(*ast.CompositeLit)
			if !ok {
				continue
			}
			if row := errorRow(lit); row != nil {
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func errorRow(lit *ast.CompositeLit) []string {
	row := make([]string, 4)
	status := "StatusBadRequest"
	for _, v := range lit.Elts {
		param, ok := v.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		switch fmt.Sprint(param.Key) {
		case "Code":
			if bl, ok := param.Value.(*ast.BasicLit); ok {
				row[0] = md.Bold(bl.Value)
			}
		case "StatusCode":
			if sel, ok := param.Value.(*ast.SelectorExpr); ok {
				status = sel.Sel.Name
			}
		case "Err":
			row[2] = md.Code(stringLit(param.Value))
		case "RuErr":
			row[3] = md.Code(stringLit(param.Value))
		}
	}
	if row[0] == "" {
		return nil
	}
	row[1] = fmt.Sprintf("%d %s", statusCodes[status], md.Italic(status))
	return row
}

func stringLit(e ast.Expr) string {
	if bl, ok := e.(*ast.BasicLit); ok {
		return strings.Trim(bl.Value, "\"")
	}
	return ""
}
