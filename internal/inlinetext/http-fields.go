// API полей редактора: настройки, панель инструментов, очистка вставки и команды форматирования.
//
// Основные возможности:
//   - Получение списка полей с разрешенными форматами и режимом хранения.
//   - Построение панели инструментов для набора активных форматов.
//   - Очистка вставленного HTML или текста по настройкам поля.
//   - Применение команд форматирования к выделению по текстовым смещениям.
package inlinetext

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aisa-it/inline-text/internal/inlinetext/apierrors"
	"github.com/aisa-it/inline-text/internal/inlinetext/config"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/doctree"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/edtypes"
	policy "github.com/aisa-it/inline-text/internal/inlinetext/redactor-policy"
	"github.com/aisa-it/inline-text/internal/inlinetext/types"
	"github.com/labstack/echo/v4"
)

type FieldContext struct {
	echo.Context
	Name    string
	Options config.FieldOptions
}

type fieldResponse struct {
	Name    string              `json:"name"`
	Options config.FieldOptions `json:"options"`
	Allowed edtypes.FormatSet   `json:"allowed"`
	Output  types.OutputMode    `json:"output"`
}

type sanitizeRequest struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

type formatRequest struct {
	Value  string `json:"value"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Format string `json:"format" validate:"required"`
	Href   string `json:"href"`
}

type activeRequest struct {
	Value string `json:"value"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type editorResponse struct {
	Value string `json:"value"`
	HTML  string `json:"html"`
}

type formatResponse struct {
	editorResponse
	Selection doctree.Range       `json:"selection"`
	Active    edtypes.FormatSet   `json:"active"`
	Toolbar   editor.ToolbarState `json:"toolbar"`
}

func (s *Services) AddFieldServices(g *echo.Group) {
	g.GET("fields/", s.getFieldList)

	fieldGroup := g.Group("fields/:field", s.FieldMiddleware)
	fieldGroup.GET("/", s.getField)
	fieldGroup.GET("/toolbar/", s.getFieldToolbar)
	fieldGroup.POST("/sanitize/", s.sanitizeField)
	fieldGroup.POST("/format/", s.formatField)
	fieldGroup.POST("/active/", s.activeFormats)
}

// FieldMiddleware находит поле по имени из пути и передает его настройки дальше в FieldContext.
func (s *Services) FieldMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("field")
		opts, err := s.fields.Get(name)
		if err != nil {
			return EError(c, err)
		}
		return next(FieldContext{c, name, opts})
	}
}

func newFieldResponse(name string, opts config.FieldOptions) fieldResponse {
	return fieldResponse{
		Name:    name,
		Options: opts,
		Allowed: opts.Allowed(),
		Output:  opts.Output.OrDefault(),
	}
}

// getFieldList godoc
// @id getFieldList
// @Summary Поля: получение списка полей
// @Description Возвращает все зарегистрированные поля с разрешенными форматами и режимом хранения.
// @Tags Fields
// @Produce json
// @Success 200 {array} fieldResponse "Список полей"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/fields/ [get]
func (s *Services) getFieldList(c echo.Context) error {
	names := s.fields.Names()
	resp := make([]fieldResponse, 0, len(names))
	for _, name := range names {
		opts, err := s.fields.Get(name)
		if err != nil {
			return EError(c, err)
		}
		resp = append(resp, newFieldResponse(name, opts))
	}
	return c.JSON(http.StatusOK, resp)
}

// getField godoc
// @id getField
// @Summary Поля: получение настроек поля
// @Tags Fields
// @Produce json
// @Param field path string true "Имя поля"
// @Success 200 {object} fieldResponse "Поле"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено"
// @Router /api/fields/{field}/ [get]
func (s *Services) getField(c echo.Context) error {
	field := c.(FieldContext)
	return c.JSON(http.StatusOK, newFieldResponse(field.Name, field.Options))
}

// getFieldToolbar godoc
// @id getFieldToolbar
// @Summary Поля: состояние панели инструментов
// @Description Строит панель инструментов поля для переданных активных форматов и состояния ввода ссылки.
// @Tags Fields
// @Produce json
// @Param field path string true "Имя поля"
// @Param active query string false "Активные форматы через запятую"
// @Param link query string false "open, если ввод ссылки открыт"
// @Param url query string false "Введенный адрес ссылки"
// @Success 200 {object} editor.ToolbarState "Панель"
// @Failure 400 {object} apierrors.DefinedError "Неизвестный формат"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено"
// @Router /api/fields/{field}/toolbar/ [get]
func (s *Services) getFieldToolbar(c echo.Context) error {
	field := c.(FieldContext)

	var names []string
	if active := strings.TrimSpace(c.QueryParam("active")); active != "" {
		for _, name := range strings.Split(active, ",") {
			names = append(names, strings.TrimSpace(name))
		}
	}
	active, err := edtypes.ParseFormatSet(names)
	if err != nil {
		var unknown *edtypes.UnknownFormatError
		if errors.As(err, &unknown) {
			return EErrorDefined(c, apierrors.ErrUnknownFormat.WithFormattedMessage(unknown.Name))
		}
		return EError(c, err)
	}

	link := editor.LinkEntry{
		Open: c.QueryParam("link") == "open",
		URL:  c.QueryParam("url"),
	}
	return c.JSON(http.StatusOK, editor.Toolbar(field.Options.Allowed(), active, link, field.Options.Disabled))
}

// sanitizeField godoc
// @id sanitizeField
// @Summary Поля: очистка вставки
// @Description Очищает содержимое буфера обмена так, как его вставил бы редактор поля в пустой документ.
// @Tags Fields
// @Accept json
// @Produce json
// @Param field path string true "Имя поля"
// @Param request body sanitizeRequest true "HTML и текст буфера обмена"
// @Success 200 {object} editorResponse "Очищенное значение"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено"
// @Router /api/fields/{field}/sanitize/ [post]
func (s *Services) sanitizeField(c echo.Context) error {
	field := c.(FieldContext)

	var req sanitizeRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}

	cfg := field.Options.EditorConfig()
	cfg.Disabled = false
	e, err := editor.New(cfg)
	if err != nil {
		return EError(c, err)
	}
	if err := e.Load(""); err != nil {
		return EError(c, err)
	}
	e.SelectRange(0, 0)
	if _, err := e.Paste(editor.Clipboard{HTML: req.HTML, Text: req.Text}); err != nil {
		return EError(c, err)
	}
	s.metrics.sanitized.WithLabelValues(field.Name).Inc()

	return c.JSON(http.StatusOK, editorResponse{Value: e.Value(), HTML: e.HTML()})
}

// formatField godoc
// @id formatField
// @Summary Поля: применение формата
// @Description Загружает значение поля, выделяет диапазон [start, end) и применяет к нему формат.
// @Description Выделение с start > end считается обратным.
// @Tags Fields
// @Accept json
// @Produce json
// @Param field path string true "Имя поля"
// @Param request body formatRequest true "Значение, выделение и формат"
// @Success 200 {object} formatResponse "Новое значение, выделение и панель"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 403 {object} apierrors.DefinedError "Поле недоступно"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено"
// @Router /api/fields/{field}/format/ [post]
func (s *Services) formatField(c echo.Context) error {
	field := c.(FieldContext)

	var req formatRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	format, ok := edtypes.ParseFormat(req.Format)
	if !ok {
		return EErrorDefined(c, apierrors.ErrUnknownFormat.WithFormattedMessage(req.Format))
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}

	if field.Options.Disabled {
		return EErrorDefined(c, apierrors.ErrFieldDisabled)
	}
	cfg := field.Options.EditorConfig()
	if !cfg.Allowed.Has(format) {
		return EErrorDefined(c, apierrors.ErrFormatNotAllowed.WithFormattedMessage(format.String()))
	}
	if format == edtypes.Link {
		if strings.TrimSpace(req.Href) == "" {
			return EErrorDefined(c, apierrors.ErrLinkURLRequired)
		}
		if !policy.SafeURL(req.Href) {
			return EErrorDefined(c, apierrors.ErrLinkURLUnsafe)
		}
	}

	e, err := loadSelection(field, req.Value, req.Start, req.End)
	if err != nil {
		return EError(c, err)
	}
	if err := e.ApplyFormat(format, req.Href); err != nil {
		return EError(c, err)
	}
	s.metrics.commands.WithLabelValues(format.String()).Inc()

	resp := formatResponse{
		editorResponse: editorResponse{Value: e.Value(), HTML: e.HTML()},
		Active:         e.ActiveFormats(),
		Toolbar:        e.Toolbar(),
	}
	if sel, ok := e.Selection(); ok {
		resp.Selection.Start, _ = e.Tree().OffsetOf(sel.Anchor)
		resp.Selection.End, _ = e.Tree().OffsetOf(sel.Focus)
	}
	return c.JSON(http.StatusOK, resp)
}

// activeFormats godoc
// @id activeFormats
// @Summary Поля: активные форматы
// @Description Возвращает форматы, активные в начале выделения, и панель инструментов для них.
// @Tags Fields
// @Accept json
// @Produce json
// @Param field path string true "Имя поля"
// @Param request body activeRequest true "Значение и выделение"
// @Success 200 {object} formatResponse "Активные форматы"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено"
// @Router /api/fields/{field}/active/ [post]
func (s *Services) activeFormats(c echo.Context) error {
	field := c.(FieldContext)

	var req activeRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}

	e, err := loadSelection(field, req.Value, req.Start, req.End)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, formatResponse{
		editorResponse: editorResponse{Value: e.Value(), HTML: e.HTML()},
		Selection:      doctree.Range{Start: req.Start, End: req.End},
		Active:         e.ActiveFormats(),
		Toolbar:        e.Toolbar(),
	})
}

// loadSelection создает редактор поля, загружает значение и выделяет диапазон.
func loadSelection(field FieldContext, value string, start, end int) (*editor.Editor, error) {
	e, err := editor.New(field.Options.EditorConfig())
	if err != nil {
		return nil, err
	}
	if err := e.Load(types.RemoveInvisibleChars(value)); err != nil {
		return nil, err
	}

	length := doctree.Len(e.Tree().Root)
	if start < 0 || end < 0 || start > length || end > length {
		return nil, apierrors.ErrSelectionOutOfRange
	}
	e.SelectRange(start, end)
	return e, nil
}
