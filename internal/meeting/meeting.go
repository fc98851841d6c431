package meeting

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Provisioner hands out a meeting URL for a new session. The URL is opaque
// to the scheduling core; it is stored and returned as-is.
type Provisioner interface {
	MeetingURL(ctx context.Context, sessionID string) (string, error)
}

// StaticProvisioner mints room URLs under a fixed base, one random room per
// session.
type StaticProvisioner struct {
	baseURL string
}

func NewStaticProvisioner(baseURL string) *StaticProvisioner {
	return &StaticProvisioner{baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *StaticProvisioner) MeetingURL(_ context.Context, _ string) (string, error) {
	return fmt.Sprintf("%s/%s", p.baseURL, uuid.NewString()), nil
}
