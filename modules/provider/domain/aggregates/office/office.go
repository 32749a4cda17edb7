package office

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/provider-portal/pkg/constants"
)

type Address struct {
	Line1    string `json:"addressLine1" validate:"required,max=255"`
	Line2    string `json:"addressLine2,omitempty" validate:"max=255"`
	Line3    string `json:"addressLine3,omitempty" validate:"max=255"`
	City     string `json:"city" validate:"required,max=255"`
	Postcode string `json:"postcode" validate:"required,min=2,max=8"`
}

// NewAddress blanks whitespace-only fields so that " " and "" compare equal.
func NewAddress(line1, line2, line3, city, postcode string) Address {
	return Address{
		Line1:    blankToEmpty(line1),
		Line2:    blankToEmpty(line2),
		Line3:    blankToEmpty(line3),
		City:     blankToEmpty(city),
		Postcode: blankToEmpty(postcode),
	}
}

func blankToEmpty(v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return v
}

type Office struct {
	id        uuid.UUID
	code      string
	firmID    uuid.UUID
	firmCode  string
	address   Address
	enabled   bool
	createdAt time.Time
	updatedAt time.Time
}

func New(code string, firmID uuid.UUID, firmCode string, address Address) Office {
	return Office{
		code:     strings.TrimSpace(code),
		firmID:   firmID,
		firmCode: firmCode,
		address:  address,
		enabled:  true,
	}
}

func Hydrate(
	id uuid.UUID,
	code string,
	firmID uuid.UUID,
	firmCode string,
	address Address,
	enabled bool,
	createdAt time.Time,
	updatedAt time.Time,
) Office {
	return Office{
		id:        id,
		code:      code,
		firmID:    firmID,
		firmCode:  firmCode,
		address:   address,
		enabled:   enabled,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (o Office) ID() uuid.UUID        { return o.id }
func (o Office) Code() string         { return o.code }
func (o Office) FirmID() uuid.UUID    { return o.firmID }
func (o Office) FirmCode() string     { return o.firmCode }
func (o Office) Address() Address     { return o.address }
func (o Office) Enabled() bool        { return o.enabled }
func (o Office) CreatedAt() time.Time { return o.createdAt }
func (o Office) UpdatedAt() time.Time { return o.updatedAt }

func (o Office) WithFirm(id uuid.UUID, code string) Office {
	o.firmID = id
	o.firmCode = code
	return o
}

func (o Office) WithAddress(a Address) Office {
	o.address = a
	return o
}

func (o Office) WithEnabled(enabled bool) Office {
	o.enabled = enabled
	return o
}

func (o Office) Validate() error {
	if strings.TrimSpace(o.code) == "" {
		return fmt.Errorf("invalid office: code is required")
	}
	if o.firmID == uuid.Nil {
		return fmt.Errorf("invalid office %s: owning firm is required", o.code)
	}
	if err := constants.Validate.Struct(o.address); err != nil {
		return fmt.Errorf("invalid office %s address: %w", o.code, err)
	}
	return nil
}

func IndexByCode(offices []Office) map[string]Office {
	out := make(map[string]Office, len(offices))
	for _, o := range offices {
		out[o.code] = o
	}
	return out
}
