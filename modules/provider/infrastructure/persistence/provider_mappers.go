package persistence

import (
	"database/sql"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/firm"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/office"
	"github.com/jacksonlee411/provider-portal/modules/provider/infrastructure/persistence/models"
)

func nullString(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}

func toDomainFirm(m *models.Firm) (firm.Firm, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return firm.Firm{}, errors.Wrapf(err, "firm %s has invalid id", m.Code)
	}
	return firm.Hydrate(
		id,
		m.Code,
		m.Name,
		firm.Type(m.FirmType),
		m.ParentCode.String,
		m.Enabled,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDBFirm(f firm.Firm) *models.Firm {
	return &models.Firm{
		ID:         f.ID().String(),
		Code:       f.Code(),
		Name:       f.Name(),
		FirmType:   string(f.Type()),
		ParentCode: nullString(f.ParentCode()),
		Enabled:    f.Enabled(),
		CreatedAt:  f.CreatedAt(),
		UpdatedAt:  f.UpdatedAt(),
	}
}

func toDomainOffice(m *models.Office) (office.Office, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return office.Office{}, errors.Wrapf(err, "office %s has invalid id", m.Code)
	}
	firmID, err := uuid.Parse(m.FirmID)
	if err != nil {
		return office.Office{}, errors.Wrapf(err, "office %s has invalid firm id", m.Code)
	}
	addr := office.Address{
		Line1:    m.AddressLine1.String,
		Line2:    m.AddressLine2.String,
		Line3:    m.AddressLine3.String,
		City:     m.City.String,
		Postcode: m.Postcode.String,
	}
	return office.Hydrate(id, m.Code, firmID, m.FirmCode, addr, m.Enabled, m.CreatedAt, m.UpdatedAt), nil
}

func toDBOffice(o office.Office) *models.Office {
	addr := o.Address()
	return &models.Office{
		ID:           o.ID().String(),
		Code:         o.Code(),
		FirmID:       o.FirmID().String(),
		FirmCode:     o.FirmCode(),
		AddressLine1: nullString(addr.Line1),
		AddressLine2: nullString(addr.Line2),
		AddressLine3: nullString(addr.Line3),
		City:         nullString(addr.City),
		Postcode:     nullString(addr.Postcode),
		Enabled:      o.Enabled(),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
	}
}
