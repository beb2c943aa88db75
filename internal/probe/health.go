package probe

import (
	"context"
	"io"
	"net/http"
	"time"
)

// HealthResult classifies one bounded health request.
type HealthResult string

const (
	Healthy     HealthResult = "healthy"     // 2xx response
	Unhealthy   HealthResult = "unhealthy"   // responded, non-2xx
	Unreachable HealthResult = "unreachable" // refused, reset, or timed out
)

func (r HealthResult) String() string { return string(r) }

// HealthCheck issues a single GET with a hard timeout. Unhealthy and
// Unreachable are both "not yet ready" to the supervisor but are logged
// distinctly for diagnostics, so they stay separate results here.
func (p *Probe) HealthCheck(ctx context.Context, url string, timeout time.Duration) HealthResult {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Unreachable
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Unreachable
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Healthy
	}
	return Unhealthy
}
