package registry

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/snapshot"
	"github.com/jacksonlee411/provider-portal/pkg/configuration"
)

var ErrNotConfigured = errors.New("registry source is not configured: set PDA_BASE_URL or PDA_USE_LOCAL_FILE")

type Source interface {
	Fetch(ctx context.Context) ([]snapshot.Row, error)
}

type unconfigured struct{}

func (unconfigured) Fetch(context.Context) ([]snapshot.Row, error) {
	return nil, ErrNotConfigured
}

// FromConfig picks the snapshot source the registry options describe. An
// unconfigured registry yields a source that always fails, so a server can
// still start and serve health and metrics.
func FromConfig(opts configuration.RegistryOptions, log *logrus.Entry) Source {
	switch {
	case opts.UseLocalFile:
		return NewFileSource(opts.LocalFilePath)
	case opts.BaseURL != "":
		return NewHTTPSource(HTTPOptions{
			BaseURL:        opts.BaseURL,
			APIKey:         opts.APIKey,
			ConnectTimeout: opts.ConnectTimeout,
			ReadTimeout:    opts.ReadTimeout,
			Logger:         log,
		})
	default:
		return unconfigured{}
	}
}
