package model

import (
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "History":
		return db.AutoMigrate(History{})

	case "LikedMusic":
		return db.AutoMigrate(LikedMusic{})

	case "FavFolder":
		return db.AutoMigrate(FavFolder{})

	case "FavResource":
		return db.AutoMigrate(FavResource{})

	case "Setting":
		return db.AutoMigrate(Setting{})

	case "SchemaVersion":
		return db.AutoMigrate(SchemaVersion{})
	}
	return nil
}
