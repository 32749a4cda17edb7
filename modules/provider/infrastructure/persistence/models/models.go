package models

import (
	"database/sql"
	"time"
)

type Firm struct {
	ID         string
	Code       string
	Name       string
	FirmType   string
	ParentCode sql.NullString
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Office struct {
	ID           string
	Code         string
	FirmID       string
	FirmCode     string
	AddressLine1 sql.NullString
	AddressLine2 sql.NullString
	AddressLine3 sql.NullString
	City         sql.NullString
	Postcode     sql.NullString
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
