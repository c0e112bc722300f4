package port

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmr-tortoise/portblock/internal/model"
)

// Prober checks whether a single port can be bound on a given host.
//
// It opens a listener with the same ListenConfig the blocker uses and closes
// it immediately, so a "free" verdict means portblock itself could take the
// port at that moment. It never walks a range of ports.
type Prober struct {
	host   string
	logger *zap.Logger
}

// NewProber creates a Prober bound to host. A nil logger disables logging.
func NewProber(host string, logger *zap.Logger) *Prober {
	if host == "" {
		host = model.DefaultHost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{host: host, logger: logger}
}

// Check returns the availability of port. For anything other than
// model.PortFree the returned error explains why.
func (p *Prober) Check(ctx context.Context, port int) (model.PortStatus, error) {
	if err := ValidateRange(port); err != nil {
		return model.PortUnknown, err
	}

	ln, err := Listen(ctx, p.host, port)
	if err != nil {
		p.logger.Debug("probe bind failed", zap.String("host", p.host), zap.Int("port", port), zap.Error(err))
		if IsAddrInUse(err) {
			return model.PortInUse, err
		}
		return model.PortUnknown, err
	}
	defer func() {
		if cerr := ln.Close(); cerr != nil {
			p.logger.Debug("probe listener close failed", zap.Error(cerr))
		}
	}()
	return model.PortFree, nil
}

// Report builds a ProbeReport for port without the Docker section.
func (p *Prober) Report(ctx context.Context, port int) *model.ProbeReport {
	status, err := p.Check(ctx, port)
	report := &model.ProbeReport{
		Host:       p.host,
		Port:       port,
		Status:     status,
		Advisories: Advisories(port),
	}
	if err != nil {
		report.Reason = err.Error()
	}
	return report
}
