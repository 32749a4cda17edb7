package office

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("office not found")
	ErrCodeTaken = errors.New("office code already exists")
)

type Repository interface {
	GetAll(ctx context.Context) ([]Office, error)
	Create(ctx context.Context, o Office) (Office, error)
	Update(ctx context.Context, o Office) error
}
