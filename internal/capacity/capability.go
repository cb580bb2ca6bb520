package capacity

import (
	"gorm.io/gorm"

	"github.com/Leganyst/agency-platform/internal/model"
)

// Capabilities — результат разовой проверки схемы базы на старте.
// Отсутствие опциональной таблицы — это свойство деплоя, а не ошибка:
// дальше по коду никто не гадает по текстам ошибок запросов.
type Capabilities struct {
	// В базе присутствует авторитетная таблица клиентов.
	HasClients bool
	// В базе присутствует легаси-таблица schedule_placements.
	HasLegacyPlacements bool
}

// DetectCapabilities опрашивает мигратор один раз при старте процесса.
func DetectCapabilities(db *gorm.DB) Capabilities {
	return Capabilities{
		HasClients:          db.Migrator().HasTable(&model.Client{}),
		HasLegacyPlacements: db.Migrator().HasTable(&model.SchedulePlacement{}),
	}
}
