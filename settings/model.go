package settings

import (
	"gorm.io/gorm"
)

// Configuration is a singleton row governing the cancellation fee rule.
type Configuration struct {
	gorm.Model
	CancellationWindowHours float64 `json:"cancellationWindowHours" gorm:"default:48"`
	CancellationFeeAmount   float64 `json:"cancellationFeeAmount" gorm:"default:50"`
}

// Get loads the singleton, creating it with defaults on first use.
func Get(db *gorm.DB) (*Configuration, error) {
	var cfg Configuration
	result := db.First(&cfg)
	if result.Error == nil {
		return &cfg, nil
	}
	if result.Error != gorm.ErrRecordNotFound {
		return nil, result.Error
	}

	cfg = Configuration{CancellationWindowHours: 48, CancellationFeeAmount: 50}
	if err := db.Create(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}
