package suite

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PasswordSuite is one deduplicated, content-addressed suite row. The Suite
// column holds the canonical JSON of a chain and is unique, so identical
// chains always share one surrogate ID.
type PasswordSuite struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Suite string `gorm:"uniqueIndex;not null" json:"suite"`
}

func (PasswordSuite) TableName() string { return "app_auth.password_suites" }

// Intern stores the chain's canonical form and returns its surrogate ID,
// reusing the existing row when an identical suite is already present.
func Intern(d *gorm.DB, c Chain) (uint, error) {
	canonical, err := c.Canonical()
	if err != nil {
		return 0, err
	}

	row := PasswordSuite{Suite: canonical}
	if err := d.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return 0, err
	}
	if row.ID != 0 {
		return row.ID, nil
	}

	// Conflict path: another writer (or an earlier call) owns the row.
	if err := d.First(&row, "suite = ?", canonical).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

// Load fetches a suite row by ID and parses it back into a chain.
func Load(d *gorm.DB, id uint) (Chain, error) {
	var row PasswordSuite
	if err := d.First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return ParseChain(row.Suite)
}
