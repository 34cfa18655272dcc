package collector

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dograga/compliance-checks/internal/domain"
)

// runTimeout bounds a single scheduled collection run.
const runTimeout = 30 * time.Minute

// Scheduler runs periodic collection for a fixed scope on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	svc    *Service
	req    CollectRequest
	spec   string
	logger *slog.Logger
}

// NewScheduler creates a scheduler for the given cron spec and scope
// ("folders/N" or "organizations/N").
func NewScheduler(svc *Service, spec, scope string, logger *slog.Logger) (*Scheduler, error) {
	req, err := requestForScope(scope)
	if err != nil {
		return nil, err
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, domain.ErrValidation("invalid cron expression %q: %v", spec, err)
	}
	return &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		req:    req,
		spec:   spec,
		logger: logger.With("component", "collect-scheduler"),
	}, nil
}

// Start registers the collection job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		summary, err := s.svc.Collect(ctx, s.req)
		if err != nil {
			s.logger.Error("scheduled collection failed", "scope", s.req.Scope(), "error", err)
			return
		}
		s.logger.Info("scheduled collection finished",
			"scope", summary.Scope, "projects", summary.Projects, "records", summary.Records, "failed_projects", len(summary.Errors))
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("collect scheduler started", "cron", s.spec, "scope", s.req.Scope())
	return nil
}

// Stop stops the cron loop and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("collect scheduler stopped")
}

// requestForScope builds a full collection request from a scope string.
func requestForScope(scope string) (CollectRequest, error) {
	req := CollectRequest{IncludeVMs: true, IncludeBuckets: true}
	switch {
	case strings.HasPrefix(scope, "folders/"):
		req.FolderID = strings.TrimPrefix(scope, "folders/")
	case strings.HasPrefix(scope, "organizations/"):
		req.OrgID = strings.TrimPrefix(scope, "organizations/")
	default:
		return CollectRequest{}, domain.ErrValidation("scope must be folders/N or organizations/N, got %q", scope)
	}
	return req, nil
}
