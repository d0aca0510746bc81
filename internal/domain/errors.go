package domain

import "github.com/cockroachdb/errors"

var (
	// ErrValidation — входные данные нарушают бизнес-правило; запись не выполняется.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound возвращается, если запись с указанным идентификатором отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrConflict — вставка с заранее заданным идентификатором, который уже занят.
	ErrConflict = errors.New("conflict")
	// ErrParentMissing — связь ссылается на несуществующий квадроцикл или бронь.
	ErrParentMissing = errors.New("referenced parent does not exist")
	// ErrStorageTimeout — операция хранилища не уложилась в таймаут или была прервана.
	ErrStorageTimeout = errors.New("storage operation timed out")
	// ErrStorageFailure — хранилище вернуло ошибку выполнения.
	ErrStorageFailure = errors.New("storage operation failed")
	// ErrCascadeConflict — удаление затронет активные брони; нужна явная команда force.
	ErrCascadeConflict = errors.New("entity has dependent links")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// Причины отказа валидации. Тексты стабильны: клиенты сравнивают их напрямую.
const (
	ReasonEmptyCustomerName  = "empty customer name"
	ReasonInvalidDateRange   = "invalid date range"
	ReasonNoQuadsSelected    = "no quads selected"
	ReasonMissingHelmetCount = "missing helmet count"
	ReasonUnknownQuad        = "unknown quad"
	ReasonEmptyPlate         = "empty plate"
	ReasonNegativeDailyRate  = "negative daily rate"
	ReasonInvalidQuadType    = "invalid quad type"
	ReasonNegativeTotalPrice = "negative total price"
	ReasonNegativeHelmets    = "negative helmet count"
)

// ValidationError описывает нарушенное бизнес-правило.
type ValidationError struct {
	Reason string
}

// NewValidationError создаёт ошибку валидации с указанной причиной.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Is позволяет сопоставлять любую ValidationError с ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationReason извлекает причину из цепочки ошибок; пустая строка, если это не ошибка валидации.
func ValidationReason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

// IsNotFound проверяет, означает ли ошибка отсутствие записи.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
