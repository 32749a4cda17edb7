package firm

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("firm not found")
	ErrCodeTaken   = errors.New("firm code already exists")
	ErrNameTaken   = errors.New("firm name already exists")
	ErrEmptyType   = errors.New("firm type is empty")
	ErrUnknownType = errors.New("unknown firm type")
)

type Repository interface {
	GetAll(ctx context.Context) ([]Firm, error)
	GetByCode(ctx context.Context, code string) (Firm, error)
	Create(ctx context.Context, f Firm) (Firm, error)
	Update(ctx context.Context, f Firm) error
	// DetachChildren clears the parent link of every firm pointing at parentCode.
	DetachChildren(ctx context.Context, parentCode string) (int, error)
}
