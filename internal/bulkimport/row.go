package bulkimport

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ParsedImportRow — нормализованная запись одной строки файла импорта.
// Парсинг файла вне зоны ответственности движка: сюда приходят уже
// разобранные поля, и валидируются они ровно один раз, на входе в
// конвейер.
type ParsedImportRow struct {
	RowNumber int `validate:"gt=0"`

	// Шестисимвольный код клиента; пустой — сгенерировать.
	IdentifierCode string

	// Имя площадки; обязательное, разрешается только точным совпадением.
	SiteName string `validate:"required"`

	// Имя провайдера в свободной форме ("Jane Doe", "Doe, Jane LPC");
	// пустое — клиент импортируется без назначения.
	ProviderName string

	// День недели в свободной форме ("mon", "Tuesday"); пустой — не задан.
	Weekday string

	Status string `validate:"omitempty,oneof=current pending inactive terminated waitlist screener packet"`

	ReferralDate      *time.Time
	PaperworkReceived bool

	// Свободный текст; после коммита строки уходит во внутреннюю заметку.
	Notes string
}

var rowValidator = validator.New()

// Validate проверяет строку на границе конвейера. Ошибка валидации —
// отказ строки, не пакета.
func (r *ParsedImportRow) Validate() error {
	return rowValidator.Struct(r)
}
