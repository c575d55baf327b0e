package models

import "gorm.io/gorm"

// AllModels lists the ingest tables. Production schemas are managed outside the service;
// AutoMigrate over this list is for local and integration databases.
func AllModels() []any {
	return []any{&Gestion{}, &Sms{}, &Pago{}}
}

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
