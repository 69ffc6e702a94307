// Пакет содержит определения ошибок API сервиса строчного редактора. Каждая ошибка имеет код, статус HTTP и описание на английском и русском языках.
//
// Основные возможности:
//   - Ошибки реестра полей, сохраненных значений, конвертации и команд форматирования.
//   - Коды ошибок с соответствующими HTTP статусами.
//   - Форматирование сообщений об ошибках с аргументами.
package apierrors

import (
	"fmt"
	"net/http"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

var (
	// 1*** - field errors
	ErrFieldNotFound      = DefinedError{Code: 1001, StatusCode: http.StatusNotFound, Err: "field not found", RuErr: "Поле не найдено"}
	ErrFieldConfigInvalid = DefinedError{Code: 1002, StatusCode: http.StatusInternalServerError, Err: "invalid field configuration %s", RuErr: "Некорректная настройка поля %s"}
	ErrFieldDisabled      = DefinedError{Code: 1003, StatusCode: http.StatusForbidden, Err: "field is disabled", RuErr: "Поле недоступно для редактирования"}

	// 2*** - value errors
	ErrValueNotFound = DefinedError{Code: 2001, StatusCode: http.StatusNotFound, Err: "value not found", RuErr: "Значение не найдено"}
	ErrValueRequired = DefinedError{Code: 2002, StatusCode: http.StatusBadRequest, Err: "value is required", RuErr: "Поле обязательно для заполнения"}
	ErrInvalidKey    = DefinedError{Code: 2003, StatusCode: http.StatusBadRequest, Err: "invalid value key", RuErr: "Некорректный ключ значения"}

	// 3*** - convert errors
	ErrUnknownOutputMode = DefinedError{Code: 3001, StatusCode: http.StatusBadRequest, Err: "unknown output mode %s", RuErr: "Неизвестный формат хранения %s"}

	// 4*** - format command errors
	ErrUnknownFormat       = DefinedError{Code: 4001, StatusCode: http.StatusBadRequest, Err: "unknown format %s", RuErr: "Неизвестный формат %s"}
	ErrFormatNotAllowed    = DefinedError{Code: 4002, StatusCode: http.StatusBadRequest, Err: "format %s is not allowed for this field", RuErr: "Формат %s запрещен для этого поля"}
	ErrSelectionOutOfRange = DefinedError{Code: 4003, StatusCode: http.StatusBadRequest, Err: "selection is out of text range", RuErr: "Выделение выходит за границы текста"}
	ErrLinkURLRequired     = DefinedError{Code: 4004, StatusCode: http.StatusBadRequest, Err: "link url is required", RuErr: "Необходимо указать адрес ссылки"}
	ErrLinkURLUnsafe       = DefinedError{Code: 4005, StatusCode: http.StatusBadRequest, Err: "link url scheme is not allowed", RuErr: "Недопустимый адрес ссылки"}

	// 5*** - generic errors
	ErrGeneric        = DefinedError{Code: 5000, StatusCode: http.StatusBadRequest, Err: "Something went wrong. Please try again later or contact the support team.", RuErr: "Что-то пошло не так. Повторите попытку позже или обратитесь в службу поддержки"}
	ErrEntityToLarge  = DefinedError{Code: 5010, StatusCode: http.StatusRequestEntityTooLarge, Err: "size exceeds the allowed limit", RuErr: "Размер запроса превышает допустимый."}
	ErrInvalidRequest = DefinedError{Code: 5011, StatusCode: http.StatusBadRequest, Err: "invalid request %s", RuErr: "Некорректный запрос %s"}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}
