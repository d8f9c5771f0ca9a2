package module

import (
	"context"

	"crimedash/internal/services/api/dashboard/domain"
)

// Ports exposes the dashboard service and its session janitor
type Ports struct {
	Service domain.ServicePort

	// Janitor sweeps expired sessions until ctx is done
	Janitor func(ctx context.Context)
}
