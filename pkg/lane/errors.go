package lane

import (
	"fmt"

	"github.com/jacksonlee411/provider-portal/pkg/serrors"
)

var (
	ErrInvalidConfig   = serrors.NewError("LANE_INVALID_CONFIG", "invalid lane configuration", "")
	ErrSaturated       = serrors.NewError("LANE_SATURATED", "too many concurrent sync operations, please try again later", "")
	ErrClosed          = serrors.NewError("LANE_CLOSED", "lane is shut down", "")
	ErrShutdownTimeout = serrors.NewError("LANE_SHUTDOWN_TIMEOUT", "lane did not drain before the shutdown deadline", "")
)

func invalidConfig(msg string, args ...any) error {
	return fmt.Errorf("%w: "+msg, append([]any{ErrInvalidConfig}, args...)...)
}
