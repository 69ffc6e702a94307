package inlinetext

import (
	"net/http"

	"github.com/aisa-it/inline-text/internal/inlinetext/apierrors"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/markdown"
	"github.com/aisa-it/inline-text/internal/inlinetext/types"
	"github.com/labstack/echo/v4"
)

type convertRequest struct {
	Value string `json:"value"`
	From  string `json:"from" validate:"required,outputMode"`
	To    string `json:"to" validate:"required,outputMode"`
	// Необязательное поле, по настройкам которого значение очищается перед конвертацией
	Field string `json:"field,omitempty"`
}

type convertResponse struct {
	Value string           `json:"value"`
	Mode  types.OutputMode `json:"mode"`
}

func (s *Services) AddConvertServices(g *echo.Group) {
	g.POST("convert/", s.convertValue)
	g.POST("convert/:to/", s.convertValue)
}

// convertValue godoc
// @id convertValue
// @Summary Конвертация: HTML <-> Markdown
// @Description Переводит значение между режимами хранения. Если указано поле, значение сначала очищается по его настройкам.
// @Description Для convert/{to}/ исходный режим по умолчанию противоположен целевому.
// @Tags Convert
// @Accept json
// @Produce json
// @Param request body convertRequest true "Значение и режимы"
// @Success 200 {object} convertResponse "Значение в режиме to"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено"
// @Router /api/convert/ [post]
// @Router /api/convert/{to}/ [post]
func (s *Services) convertValue(c echo.Context) error {
	var req convertRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}
	// convert/markdown/ и convert/html/: исходный режим противоположен целевому
	if to := c.Param("to"); to != "" {
		req.To = to
		if req.From == "" {
			req.From = string(types.OutputHTML)
			if mode, err := types.ParseOutputMode(to); err == nil && mode == types.OutputHTML {
				req.From = string(types.OutputMarkdown)
			}
		}
	}
	from, err := types.ParseOutputMode(req.From)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrUnknownOutputMode.WithFormattedMessage(req.From))
	}
	to, err := types.ParseOutputMode(req.To)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrUnknownOutputMode.WithFormattedMessage(req.To))
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error()))
	}

	value := types.RemoveInvisibleChars(req.Value)
	if req.Field == "" {
		return c.JSON(http.StatusOK, convertResponse{Value: markdown.Convert(value, from, to), Mode: to})
	}

	opts, err := s.fields.Get(req.Field)
	if err != nil {
		return EError(c, err)
	}
	cfg := opts.EditorConfig()
	cfg.Output = to
	out, err := editor.Reencode(cfg, value, from)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, convertResponse{Value: out, Mode: to})
}
