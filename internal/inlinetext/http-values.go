// API хранения значений полей и страница предпросмотра.
//
// Основные возможности:
//   - Сохранение значения с очисткой по настройкам поля и приведением к режиму поля.
//   - Чтение значения с конвертацией, если оно сохранено в другом режиме.
//   - Список и удаление значений поля.
//   - HTML-страница предпросмотра сохраненного значения.
package inlinetext

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/aisa-it/inline-text/internal/inlinetext/apierrors"
	"github.com/aisa-it/inline-text/internal/inlinetext/config"
	"github.com/aisa-it/inline-text/internal/inlinetext/dao"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor"
	policy "github.com/aisa-it/inline-text/internal/inlinetext/redactor-policy"
	"github.com/aisa-it/inline-text/internal/inlinetext/types"
	"github.com/labstack/echo/v4"
	"github.com/tdewolff/minify/v2"
	minifyHTML "github.com/tdewolff/minify/v2/html"
)

//go:embed templates/*
var templatesFS embed.FS

var previewTemplate = template.Must(template.ParseFS(templatesFS, "templates/preview.html"))

var minifier *minify.M = minify.New()

func init() {
	minifier.AddFunc("text/html", minifyHTML.Minify)
}

type valueRequest struct {
	Value string `json:"value"`
	// Режим, в котором передано значение. По умолчанию режим поля
	Mode string `json:"mode" validate:"omitempty,outputMode"`
}

type previewData struct {
	Label     string
	Field     string
	Key       string
	Mode      types.OutputMode
	UpdatedAt time.Time
	Value     template.HTML
}

func (s *Services) AddValueServices(g *echo.Group) {
	valuesGroup := g.Group("values/:field", s.FieldMiddleware)

	valuesGroup.GET("/", s.getValueList)
	valuesGroup.GET("/:key/", s.getValue)
	valuesGroup.PUT("/:key/", s.putValue)
	valuesGroup.DELETE("/:key/", s.deleteValue)
}

// valueKey возвращает ключ значения из пути, если он проходит проверку.
func (s *Services) valueKey(c echo.Context) (string, bool) {
	key := c.Param("key")
	if err := s.validator.ValidateVar(key, "required,valueKey"); err != nil {
		return "", false
	}
	return key, true
}

// inFieldMode приводит сохраненное значение к режиму поля.
func inFieldMode(opts config.FieldOptions, v *dao.FieldValue) error {
	cfg := opts.EditorConfig()
	if v.Mode.OrDefault() == cfg.Output {
		return nil
	}
	out, err := editor.Reencode(cfg, v.Value, v.Mode)
	if err != nil {
		return err
	}
	v.Value = out
	v.Mode = cfg.Output
	return nil
}

// getValueList godoc
// @id getValueList
// @Summary Значения: список значений поля
// @Description Возвращает значения поля, отсортированные по ключу, в режиме хранения поля.
// @Tags Values
// @Produce json
// @Param field path string true "Имя поля"
// @Success 200 {array} dao.FieldValue "Значения"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/values/{field}/ [get]
func (s *Services) getValueList(c echo.Context) error {
	field := c.(FieldContext)

	values, err := s.store.List(c.Request().Context(), field.Name)
	if err != nil {
		return EError(c, err)
	}
	for i := range values {
		if err := inFieldMode(field.Options, &values[i]); err != nil {
			return EError(c, err)
		}
	}
	return c.JSON(http.StatusOK, values)
}

// getValue godoc
// @id getValue
// @Summary Значения: получение значения
// @Description Возвращает значение в режиме поля. Значения, сохраненные в другом режиме, конвертируются при чтении.
// @Tags Values
// @Produce json
// @Param field path string true "Имя поля"
// @Param key path string true "Ключ значения"
// @Success 200 {object} dao.FieldValue "Значение"
// @Failure 400 {object} apierrors.DefinedError "Некорректный ключ"
// @Failure 404 {object} apierrors.DefinedError "Значение не найдено"
// @Router /api/values/{field}/{key}/ [get]
func (s *Services) getValue(c echo.Context) error {
	field := c.(FieldContext)
	key, ok := s.valueKey(c)
	if !ok {
		return EErrorDefined(c, apierrors.ErrInvalidKey)
	}

	v, err := s.store.Get(c.Request().Context(), field.Name, key)
	if err != nil {
		return EError(c, err)
	}
	if err := inFieldMode(field.Options, v); err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// putValue godoc
// @id putValue
// @Summary Значения: сохранение значения
// @Description Очищает значение по настройкам поля, приводит его к режиму поля и сохраняет, заменяя прежнее.
// @Tags Values
// @Accept json
// @Produce json
// @Param field path string true "Имя поля"
// @Param key path string true "Ключ значения"
// @Param request body valueRequest true "Значение и его режим"
// @Success 200 {object} dao.FieldValue "Сохраненное значение"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 403 {object} apierrors.DefinedError "Поле недоступно"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено"
// @Router /api/values/{field}/{key}/ [put]
func (s *Services) putValue(c echo.Context) error {
	field := c.(FieldContext)
	key, ok := s.valueKey(c)
	if !ok {
		return EErrorDefined(c, apierrors.ErrInvalidKey)
	}
	if field.Options.Disabled {
		return EErrorDefined(c, apierrors.ErrFieldDisabled)
	}

	var req valueRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrUnknownOutputMode.WithFormattedMessage(req.Mode))
	}

	cfg := field.Options.EditorConfig()
	from := cfg.Output
	if req.Mode != "" {
		mode, err := types.ParseOutputMode(req.Mode)
		if err != nil {
			return EErrorDefined(c, apierrors.ErrUnknownOutputMode.WithFormattedMessage(req.Mode))
		}
		from = mode
	}

	value, err := editor.Reencode(cfg, types.RemoveInvisibleChars(req.Value), from)
	if err != nil {
		return EError(c, err)
	}

	if field.Options.Required {
		asHTML, err := editor.Reencode(editor.Config{Output: types.OutputHTML, AllowNewlines: cfg.AllowNewlines, Allowed: cfg.Allowed}, value, cfg.Output)
		if err != nil {
			return EError(c, err)
		}
		if strings.TrimSpace(policy.StripTags(asHTML)) == "" {
			return EErrorDefined(c, apierrors.ErrValueRequired)
		}
	}

	v := dao.FieldValue{
		Field: field.Name,
		Key:   key,
		Mode:  cfg.Output,
		Value: value,
	}
	if err := s.store.Put(c.Request().Context(), &v); err != nil {
		return EError(c, err)
	}
	s.metrics.saved.WithLabelValues(field.Name, cfg.Output.String()).Inc()

	return c.JSON(http.StatusOK, v)
}

// deleteValue godoc
// @id deleteValue
// @Summary Значения: удаление значения
// @Tags Values
// @Param field path string true "Имя поля"
// @Param key path string true "Ключ значения"
// @Success 204 "Значение удалено"
// @Failure 400 {object} apierrors.DefinedError "Некорректный ключ"
// @Failure 404 {object} apierrors.DefinedError "Значение не найдено"
// @Router /api/values/{field}/{key}/ [delete]
func (s *Services) deleteValue(c echo.Context) error {
	field := c.(FieldContext)
	key, ok := s.valueKey(c)
	if !ok {
		return EErrorDefined(c, apierrors.ErrInvalidKey)
	}
	if field.Options.Disabled {
		return EErrorDefined(c, apierrors.ErrFieldDisabled)
	}

	if err := s.store.Delete(c.Request().Context(), field.Name, key); err != nil {
		return EError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// previewValue godoc
// @id previewValue
// @Summary Значения: предпросмотр
// @Description HTML-страница с сохраненным значением, очищенным по настройкам поля.
// @Tags Values
// @Produce html
// @Param field path string true "Имя поля"
// @Param key path string true "Ключ значения"
// @Success 200 {string} string "Страница предпросмотра"
// @Failure 404 {object} apierrors.DefinedError "Значение не найдено"
// @Router /preview/{field}/{key}/ [get]
func (s *Services) previewValue(c echo.Context) error {
	name := c.Param("field")
	opts, err := s.fields.Get(name)
	if err != nil {
		return EError(c, err)
	}
	key, ok := s.valueKey(c)
	if !ok {
		return EErrorDefined(c, apierrors.ErrInvalidKey)
	}

	v, err := s.store.Get(c.Request().Context(), name, key)
	if err != nil {
		return EError(c, err)
	}

	cfg := opts.EditorConfig()
	cfg.Output = types.OutputHTML
	value, err := editor.Reencode(cfg, v.Value, v.Mode)
	if err != nil {
		return EError(c, err)
	}

	label := opts.Label
	if label == "" {
		label = name
	}

	var buf bytes.Buffer
	if err := previewTemplate.Execute(&buf, previewData{
		Label:     label,
		Field:     name,
		Key:       key,
		Mode:      v.Mode.OrDefault(),
		UpdatedAt: v.UpdatedAt,
		Value:     template.HTML(value),
	}); err != nil {
		return EError(c, err)
	}

	page, err := minifier.Bytes("text/html", buf.Bytes())
	if err != nil {
		return EError(c, err)
	}
	return c.HTMLBlob(http.StatusOK, page)
}
