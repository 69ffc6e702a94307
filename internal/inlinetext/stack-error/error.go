// Обертка внутренних ошибок с трассой вызовов и контекстом запроса для логирования.
package stack_error

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/labstack/echo/v4"
)

type TrackerError struct {
	Context  map[string]any
	ErrStack []slog.Attr
	cause    error
}

// TrackErrorStack оборачивает ошибку и добавляет в трассу место вызова. Повторная обертка дополняет существующую трассу.
func TrackErrorStack(err error) *TrackerError {
	var te *TrackerError
	if errors.As(err, &te) {
		te.ErrStack = append(te.ErrStack, getCallerFile(err))
		return te
	}

	newTe := &TrackerError{
		Context:  make(map[string]any),
		ErrStack: make([]slog.Attr, 0),
		cause:    err,
	}
	newTe.ErrStack = append(newTe.ErrStack, getCallerFile(err))
	return newTe
}

// AddContext добавляет атрибут контекста. Первое значение ключа сохраняется.
func (te *TrackerError) AddContext(k string, v any) *TrackerError {
	if _, ok := te.Context[k]; !ok {
		te.Context[k] = v
	}
	return te
}

// GetError логирует ошибку вместе с трассой, контекстом и параметрами запроса.
func GetError(c echo.Context, err error) {
	if err == nil {
		return
	}
	slog.With(Attrs(c, err)...).Error("stack error")
}

// Attrs собирает атрибуты лога для ошибки.
func Attrs(c echo.Context, err error) []any {
	var trackerError *TrackerError
	var attrs []any

	if errors.As(err, &trackerError) {
		for _, attr := range trackerError.ErrStack {
			attrs = append(attrs, attr)
		}
		attrs = append(attrs, trackerError.getAttrs()...)
	}
	attrs = append(attrs, slog.String("raw_error", err.Error()))

	if c != nil {
		attrs = append(attrs,
			slog.String("method", c.Request().Method),
			slog.String("url", c.Request().URL.String()))
	}
	return attrs
}

func (te *TrackerError) Error() string {
	if te.cause != nil {
		return te.cause.Error()
	}
	return "TrackerError"
}

func (te *TrackerError) Unwrap() error {
	return te.cause
}

func (te *TrackerError) getAttrs() []any {
	res := make([]any, 0, len(te.Context))
	for k, v := range te.Context {
		res = append(res, slog.Any(k, v))
	}
	return res
}

func getCallerFile(err error) slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.String("trace", "unknown")
	}
	_, file := filepath.Split(path)
	return slog.String("trace", fmt.Sprintf("%s:%d %s", file, no, err.Error()))
}
