package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/office"
	"github.com/jacksonlee411/provider-portal/modules/provider/infrastructure/persistence/models"
	"github.com/jacksonlee411/provider-portal/pkg/composables"
)

const (
	officeFindQuery = `
		SELECT o.id, o.code, o.firm_id, f.code, o.address_line1, o.address_line2, o.address_line3,
		       o.city, o.postcode, o.enabled, o.created_at, o.updated_at
		FROM provider_offices o
		JOIN provider_firms f ON f.id = o.firm_id`

	officeInsertQuery = `
		INSERT INTO provider_offices (id, code, firm_id, address_line1, address_line2, address_line3, city, postcode, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id, created_at, updated_at`

	officeUpdateQuery = `
		UPDATE provider_offices
		SET firm_id = $1, address_line1 = $2, address_line2 = $3, address_line3 = $4,
		    city = $5, postcode = $6, enabled = $7, updated_at = now()
		WHERE code = $8`
)

var officeConstraints = map[string]error{
	"provider_offices_code_key": office.ErrCodeTaken,
}

type OfficeRepository struct{}

func NewOfficeRepository() office.Repository {
	return &OfficeRepository{}
}

func (r *OfficeRepository) GetAll(ctx context.Context) ([]office.Office, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, officeFindQuery+" ORDER BY o.code")
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var offices []office.Office
	for rows.Next() {
		var m models.Office
		if err := rows.Scan(
			&m.ID,
			&m.Code,
			&m.FirmID,
			&m.FirmCode,
			&m.AddressLine1,
			&m.AddressLine2,
			&m.AddressLine3,
			&m.City,
			&m.Postcode,
			&m.Enabled,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan office row")
		}
		o, err := toDomainOffice(&m)
		if err != nil {
			return nil, err
		}
		offices = append(offices, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate office rows")
	}
	return offices, nil
}

func (r *OfficeRepository) Create(ctx context.Context, o office.Office) (office.Office, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return office.Office{}, err
	}

	m := toDBOffice(o)
	if o.ID() == uuid.Nil {
		m.ID = uuid.NewString()
	}
	if err := tx.QueryRow(ctx, officeInsertQuery,
		m.ID,
		m.Code,
		m.FirmID,
		m.AddressLine1,
		m.AddressLine2,
		m.AddressLine3,
		m.City,
		m.Postcode,
		m.Enabled,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return office.Office{}, pkgerrors.Wrap(mapUniqueViolation(err, o.Code(), officeConstraints), "insert office")
	}
	return toDomainOffice(m)
}

func (r *OfficeRepository) Update(ctx context.Context, o office.Office) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	m := toDBOffice(o)
	tag, err := tx.Exec(ctx, officeUpdateQuery,
		m.FirmID,
		m.AddressLine1,
		m.AddressLine2,
		m.AddressLine3,
		m.City,
		m.Postcode,
		m.Enabled,
		m.Code,
	)
	if err != nil {
		return pkgerrors.Wrap(err, "update office")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(office.ErrNotFound, "update office %s", o.Code())
	}
	return nil
}
