package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ядра.
// SchedulePlacement здесь отсутствует намеренно: это легаси-таблица,
// её наличие проверяется capability-детектором, а не создаётся нами.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Agency{},
		&User{},
		&School{},
		&Provider{},
		&SchoolAssignment{},
		&Client{},
		&ClientFieldChange{},
		&ImportJob{},
		&ImportJobRow{},
		&Notification{},
		&ClientNote{},
	)
}
