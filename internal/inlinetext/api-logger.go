// Вспомогательные функции возврата ошибок API с логированием.
//
// Основные возможности:
//   - Единый формат JSON-ответа с ошибкой.
//   - Логирование ошибок с методом, адресом запроса и местом вызова.
//   - Преобразование внутренних ошибок ядра и хранилища в ошибки каталога apierrors.
package inlinetext

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime"

	"github.com/aisa-it/inline-text/internal/inlinetext/apierrors"
	"github.com/aisa-it/inline-text/internal/inlinetext/config"
	"github.com/aisa-it/inline-text/internal/inlinetext/dao"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor"
	stack_error "github.com/aisa-it/inline-text/internal/inlinetext/stack-error"
	"github.com/labstack/echo/v4"
)

// EError возвращает ошибку каталога, если err с ней совпадает, иначе логирует err и возвращает общую ошибку.
func EError(c echo.Context, err error) error {
	var definedErr apierrors.DefinedError
	if errors.As(err, &definedErr) {
		return EErrorDefined(c, definedErr)
	}

	switch {
	case errors.Is(err, config.ErrFieldNotFound):
		return EErrorDefined(c, apierrors.ErrFieldNotFound)
	case errors.Is(err, dao.ErrValueNotFound):
		return EErrorDefined(c, apierrors.ErrValueNotFound)
	case errors.Is(err, editor.ErrInvalidConfig):
		stack_error.GetError(c, err)
		return EErrorDefined(c, apierrors.ErrFieldConfigInvalid.WithFormattedMessage(err.Error()))
	}

	if err == nil {
		slog.Error("Unknown API error",
			"method", c.Request().Method,
			"url", c.Request().URL,
			getCallerFile(),
		)
	} else {
		slog.Error("API error",
			"err", err,
			"method", c.Request().Method,
			"url", c.Request().URL,
			getCallerFile(),
		)
		stack_error.GetError(c, err)
	}
	return EErrorDefined(c, apierrors.ErrGeneric)
}

// Возврат ошибки <status> с сообщением ошибки (404 не логируется)
func EErrorMsgStatus(c echo.Context, err error, status int) error {
	if status == http.StatusRequestEntityTooLarge {
		return EErrorDefined(c, apierrors.ErrEntityToLarge)
	}

	er := apierrors.ErrGeneric
	er.StatusCode = status
	if err == nil {
		slog.Error("Unknown API error",
			"method", c.Request().Method,
			slog.Int("status", status),
			"url", c.Request().URL,
			getCallerFile(),
		)
		return EErrorDefined(c, er)
	}

	if status != http.StatusNotFound {
		slog.Error("API error",
			"err", err,
			"method", c.Request().Method,
			slog.Int("status", status),
			"url", c.Request().URL,
			getCallerFile(),
		)
	}
	er.Err = err.Error()
	return EErrorDefined(c, er)
}

// EErrorDefined возвращает JSON-ответ с кодом статуса и сообщением об ошибке. Если код статуса не определен, используется 400 Bad Request.
//
// Параметры:
//   - c: Context Echo, используемый для отправки JSON-ответа.
//   - err: Объект DefinedError, содержащий код статуса и сообщение об ошибке.
//
// Возвращает:
//   - error: Ошибка, если произошла ошибка при формировании ответа. В противном случае nil.
func EErrorDefined(c echo.Context, err apierrors.DefinedError) error {
	if http.StatusText(err.StatusCode) == "" {
		err.StatusCode = http.StatusBadRequest
	}
	return c.JSON(err.StatusCode, err)
}

// getCallerFile возвращает атрибут лога с файлом и строкой, из которых была вызвана функция возврата ошибки.
func getCallerFile() slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.Attr{}
	}
	_, file := filepath.Split(path)
	return slog.String("caller", fmt.Sprintf("%s:%d", file, no))
}
