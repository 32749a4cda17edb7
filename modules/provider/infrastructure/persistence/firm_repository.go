package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/firm"
	"github.com/jacksonlee411/provider-portal/modules/provider/infrastructure/persistence/models"
	"github.com/jacksonlee411/provider-portal/pkg/composables"
)

const (
	firmFindQuery = `SELECT id, code, name, firm_type, parent_code, enabled, created_at, updated_at FROM provider_firms`

	firmInsertQuery = `
		INSERT INTO provider_firms (id, code, name, firm_type, parent_code, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, code, name, firm_type, parent_code, enabled, created_at, updated_at`

	firmUpdateQuery = `
		UPDATE provider_firms
		SET name = $1, firm_type = $2, parent_code = $3, enabled = $4, updated_at = now()
		WHERE code = $5`

	firmDetachQuery = `UPDATE provider_firms SET parent_code = NULL, updated_at = now() WHERE parent_code = $1`
)

var firmConstraints = map[string]error{
	"provider_firms_code_key": firm.ErrCodeTaken,
	"provider_firms_name_key": firm.ErrNameTaken,
}

type FirmRepository struct{}

func NewFirmRepository() firm.Repository {
	return &FirmRepository{}
}

func (r *FirmRepository) GetAll(ctx context.Context) ([]firm.Firm, error) {
	return r.queryFirms(ctx, firmFindQuery+" ORDER BY code")
}

func (r *FirmRepository) GetByCode(ctx context.Context, code string) (firm.Firm, error) {
	firms, err := r.queryFirms(ctx, firmFindQuery+" WHERE code = $1", code)
	if err != nil {
		return firm.Firm{}, err
	}
	if len(firms) == 0 {
		return firm.Firm{}, firm.ErrNotFound
	}
	return firms[0], nil
}

func (r *FirmRepository) Create(ctx context.Context, f firm.Firm) (firm.Firm, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return firm.Firm{}, err
	}

	m := toDBFirm(f)
	if f.ID() == uuid.Nil {
		m.ID = uuid.NewString()
	}
	var out models.Firm
	if err := tx.QueryRow(ctx, firmInsertQuery,
		m.ID,
		m.Code,
		m.Name,
		m.FirmType,
		m.ParentCode,
		m.Enabled,
	).Scan(
		&out.ID,
		&out.Code,
		&out.Name,
		&out.FirmType,
		&out.ParentCode,
		&out.Enabled,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return firm.Firm{}, pkgerrors.Wrap(mapUniqueViolation(err, f.Code(), firmConstraints), "insert firm")
	}
	return toDomainFirm(&out)
}

func (r *FirmRepository) Update(ctx context.Context, f firm.Firm) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	m := toDBFirm(f)
	tag, err := tx.Exec(ctx, firmUpdateQuery, m.Name, m.FirmType, m.ParentCode, m.Enabled, m.Code)
	if err != nil {
		return pkgerrors.Wrap(mapUniqueViolation(err, f.Code(), firmConstraints), "update firm")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(firm.ErrNotFound, "update firm %s", f.Code())
	}
	return nil
}

func (r *FirmRepository) DetachChildren(ctx context.Context, parentCode string) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, firmDetachQuery, parentCode)
	if err != nil {
		return 0, errors.Wrap(err, "detach child firms")
	}
	return int(tag.RowsAffected()), nil
}

func (r *FirmRepository) queryFirms(ctx context.Context, query string, args ...interface{}) ([]firm.Firm, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var firms []firm.Firm
	for rows.Next() {
		var m models.Firm
		if err := rows.Scan(
			&m.ID,
			&m.Code,
			&m.Name,
			&m.FirmType,
			&m.ParentCode,
			&m.Enabled,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan firm row")
		}
		f, err := toDomainFirm(&m)
		if err != nil {
			return nil, err
		}
		firms = append(firms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate firm rows")
	}
	return firms, nil
}
