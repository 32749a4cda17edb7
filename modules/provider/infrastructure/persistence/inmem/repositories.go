package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/firm"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/office"
)

type FirmRepository struct {
	store *Store
	now   func() time.Time
}

func NewFirmRepository(store *Store) *FirmRepository {
	return &FirmRepository{store: store, now: time.Now}
}

func (r *FirmRepository) GetAll(ctx context.Context) ([]firm.Firm, error) {
	firms := r.store.firms.Values()
	sort.Slice(firms, func(i, j int) bool { return firms[i].Code() < firms[j].Code() })
	return firms, nil
}

func (r *FirmRepository) GetByCode(ctx context.Context, code string) (firm.Firm, error) {
	f, ok := r.store.firms.Get(code)
	if !ok {
		return firm.Firm{}, firm.ErrNotFound
	}
	return f, nil
}

func (r *FirmRepository) Create(ctx context.Context, f firm.Firm) (firm.Firm, error) {
	if _, exists := r.store.firms.Get(f.Code()); exists {
		return firm.Firm{}, fmt.Errorf("%w: %s", firm.ErrCodeTaken, f.Code())
	}
	if err := r.checkConstraints(f); err != nil {
		return firm.Firm{}, err
	}
	id := f.ID()
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := r.now()
	created := firm.Hydrate(id, f.Code(), f.Name(), f.Type(), f.ParentCode(), f.Enabled(), now, now)
	r.store.firms.Set(created.Code(), created)
	return created, nil
}

func (r *FirmRepository) Update(ctx context.Context, f firm.Firm) error {
	existing, ok := r.store.firms.Get(f.Code())
	if !ok {
		return fmt.Errorf("%w: %s", firm.ErrNotFound, f.Code())
	}
	if err := r.checkConstraints(f); err != nil {
		return err
	}
	updated := firm.Hydrate(existing.ID(), f.Code(), f.Name(), f.Type(), f.ParentCode(), f.Enabled(), existing.CreatedAt(), r.now())
	r.store.firms.Set(updated.Code(), updated)
	return nil
}

func (r *FirmRepository) DetachChildren(ctx context.Context, parentCode string) (int, error) {
	n := 0
	for _, f := range r.store.firms.Values() {
		if f.ParentCode() != parentCode {
			continue
		}
		r.store.firms.Set(f.Code(), f.WithParentCode(""))
		n++
	}
	return n, nil
}

// checkConstraints mirrors the unique name index and the parent foreign key.
func (r *FirmRepository) checkConstraints(f firm.Firm) error {
	for _, other := range r.store.firms.Values() {
		if other.Code() != f.Code() && other.Name() == f.Name() {
			return fmt.Errorf("%w: %q", firm.ErrNameTaken, f.Name())
		}
	}
	if p := f.ParentCode(); p != "" {
		if _, ok := r.store.firms.Get(p); !ok {
			return fmt.Errorf("parent firm %s does not exist", p)
		}
	}
	return nil
}

type OfficeRepository struct {
	store *Store
	now   func() time.Time
}

func NewOfficeRepository(store *Store) *OfficeRepository {
	return &OfficeRepository{store: store, now: time.Now}
}

func (r *OfficeRepository) GetAll(ctx context.Context) ([]office.Office, error) {
	offices := r.store.offices.Values()
	sort.Slice(offices, func(i, j int) bool { return offices[i].Code() < offices[j].Code() })
	return offices, nil
}

func (r *OfficeRepository) Create(ctx context.Context, o office.Office) (office.Office, error) {
	if _, exists := r.store.offices.Get(o.Code()); exists {
		return office.Office{}, fmt.Errorf("%w: %s", office.ErrCodeTaken, o.Code())
	}
	if err := r.checkOwner(o); err != nil {
		return office.Office{}, err
	}
	id := o.ID()
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := r.now()
	created := office.Hydrate(id, o.Code(), o.FirmID(), o.FirmCode(), o.Address(), o.Enabled(), now, now)
	r.store.offices.Set(created.Code(), created)
	return created, nil
}

func (r *OfficeRepository) Update(ctx context.Context, o office.Office) error {
	existing, ok := r.store.offices.Get(o.Code())
	if !ok {
		return fmt.Errorf("%w: %s", office.ErrNotFound, o.Code())
	}
	if err := r.checkOwner(o); err != nil {
		return err
	}
	updated := office.Hydrate(existing.ID(), o.Code(), o.FirmID(), o.FirmCode(), o.Address(), o.Enabled(), existing.CreatedAt(), r.now())
	r.store.offices.Set(updated.Code(), updated)
	return nil
}

func (r *OfficeRepository) checkOwner(o office.Office) error {
	owner, ok := r.store.firms.Get(o.FirmCode())
	if !ok || owner.ID() != o.FirmID() {
		return fmt.Errorf("owning firm %s does not exist", o.FirmCode())
	}
	return nil
}
