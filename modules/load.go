package modules

import (
	"fmt"

	"github.com/jacksonlee411/provider-portal/pkg/application"
)

// Load registers modules in order; the first failure stops loading.
func Load(app application.Application, modules ...application.Module) error {
	for _, module := range modules {
		if err := module.Register(app); err != nil {
			return fmt.Errorf("load module %s: %w", module.Name(), err)
		}
	}
	return nil
}
