package bulkimport

import "github.com/go-faster/errors"

var (
	// Задание без finished_at считается идущим, сколько бы времени ни
	// прошло со старта; откатывать его нельзя.
	ErrJobStillRunning = errors.New("import job has not finished")
	ErrJobNotFound     = errors.New("import job not found")

	// Площадки импортом никогда не создаются: нераспознанное имя — отказ
	// строки, а не повод завести новую.
	ErrSiteNotFound = errors.New("site not found")

	// Исчерпаны попытки сгенерировать уникальный код клиента.
	ErrCodeExhausted = errors.New("identifier code attempts exhausted")
)
