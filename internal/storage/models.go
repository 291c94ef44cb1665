package storage

import (
	"gorm.io/gorm"
)

// preferencesRowID is the single row holding the widget's display settings.
const preferencesRowID = 1

type PreferenceRecord struct {
	gorm.Model
	Unit     string `gorm:"size:1" json:"unit"`
	ViewMode string `gorm:"size:16" json:"view_mode"`
	LastCity string `json:"last_city"`
}
