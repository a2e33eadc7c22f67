package compliance

import (
	"context"

	"github.com/google/uuid"

	"github.com/davidleathers/campaign-dialer/internal/domain/dnc"
)

// DNCCache is a read-through cache of DNC lookups keyed by organization and
// normalized phone. Implementations cache negative results too.
type DNCCache interface {
	Get(ctx context.Context, orgID uuid.UUID, phone string) (dnc.CheckResult, bool, error)
	Set(ctx context.Context, orgID uuid.UUID, phone string, result dnc.CheckResult) error
	Invalidate(ctx context.Context, orgID uuid.UUID, phone string) error
}

// ContactMarker flags every contact of an organization that has a phone
type ContactMarker interface {
	MarkDNCByPhone(ctx context.Context, orgID uuid.UUID, phone string) (int64, error)
}
