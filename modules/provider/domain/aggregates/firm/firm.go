package firm

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/provider-portal/pkg/constants"
)

type Type string

const (
	TypeLegalServicesProvider Type = "LEGAL_SERVICES_PROVIDER"
	TypeChambers              Type = "CHAMBERS"
	TypeAdvocate              Type = "ADVOCATE"
	TypePartnership           Type = "PARTNERSHIP"
	TypeLimitedCompany        Type = "LIMITED_COMPANY"
	TypeSolePractitioner      Type = "SOLE_PRACTITIONER"
	TypeIndividual            Type = "INDIVIDUAL"
)

var knownTypes = map[Type]struct{}{
	TypeLegalServicesProvider: {},
	TypeChambers:              {},
	TypeAdvocate:              {},
	TypePartnership:           {},
	TypeLimitedCompany:        {},
	TypeSolePractitioner:      {},
	TypeIndividual:            {},
}

// ParseType maps a registry classification such as "Legal Services Provider"
// onto a Type.
func ParseType(raw string) (Type, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", ErrEmptyType
	}
	t := Type(strings.ReplaceAll(strings.ToUpper(v), " ", "_"))
	if _, ok := knownTypes[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
	}
	return t, nil
}

// CanBeParent reports whether firms of this type may head a hierarchy.
func (t Type) CanBeParent() bool {
	return t != TypeAdvocate
}

type Firm struct {
	id         uuid.UUID
	code       string
	name       string
	firmType   Type
	parentCode string
	enabled    bool
	createdAt  time.Time
	updatedAt  time.Time
}

func New(code, name string, firmType Type, parentCode string) Firm {
	return Firm{
		code:       strings.TrimSpace(code),
		name:       strings.TrimSpace(name),
		firmType:   firmType,
		parentCode: strings.TrimSpace(parentCode),
		enabled:    true,
	}
}

func Hydrate(
	id uuid.UUID,
	code string,
	name string,
	firmType Type,
	parentCode string,
	enabled bool,
	createdAt time.Time,
	updatedAt time.Time,
) Firm {
	return Firm{
		id:         id,
		code:       code,
		name:       name,
		firmType:   firmType,
		parentCode: parentCode,
		enabled:    enabled,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (f Firm) ID() uuid.UUID        { return f.id }
func (f Firm) Code() string         { return f.code }
func (f Firm) Name() string         { return f.name }
func (f Firm) Type() Type           { return f.firmType }
func (f Firm) ParentCode() string   { return f.parentCode }
func (f Firm) Enabled() bool        { return f.enabled }
func (f Firm) CreatedAt() time.Time { return f.createdAt }
func (f Firm) UpdatedAt() time.Time { return f.updatedAt }
func (f Firm) IsZero() bool         { return f.id == uuid.Nil && f.code == "" }

func (f Firm) WithName(name string) Firm {
	f.name = strings.TrimSpace(name)
	return f
}

func (f Firm) WithParentCode(code string) Firm {
	f.parentCode = strings.TrimSpace(code)
	return f
}

func (f Firm) WithEnabled(enabled bool) Firm {
	f.enabled = enabled
	return f
}

type validation struct {
	Code string `validate:"required,max=255"`
	Name string `validate:"required,max=255"`
	Type Type   `validate:"required"`
}

// Validate checks the persisted column constraints.
func (f Firm) Validate() error {
	if err := constants.Validate.Struct(validation{Code: f.code, Name: f.name, Type: f.firmType}); err != nil {
		return fmt.Errorf("invalid firm %s: %w", f.code, err)
	}
	return nil
}

// IndexByCode keys firms by business code.
func IndexByCode(firms []Firm) map[string]Firm {
	out := make(map[string]Firm, len(firms))
	for _, f := range firms {
		out[f.code] = f
	}
	return out
}
