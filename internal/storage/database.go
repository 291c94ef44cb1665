package storage

import (
	"errors"
	"fmt"

	"github.com/AnamolZ/weatherly/internal/weather"
	"github.com/AnamolZ/weatherly/internal/widget"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&PreferenceRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

// LoadPreferences returns nil without error when nothing was saved yet.
func (d *Database) LoadPreferences() (*widget.Preferences, error) {
	var record PreferenceRecord
	result := d.db.First(&record, preferencesRowID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return &widget.Preferences{
		Unit:     weather.Unit(record.Unit),
		Mode:     widget.ViewMode(record.ViewMode),
		LastCity: record.LastCity,
	}, nil
}

func (d *Database) SavePreferences(p widget.Preferences) error {
	record := PreferenceRecord{
		Unit:     string(p.Unit),
		ViewMode: string(p.Mode),
		LastCity: p.LastCity,
	}
	record.ID = preferencesRowID

	return d.db.Save(&record).Error
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
