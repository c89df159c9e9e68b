package automation

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

const (
	// DefaultPollInterval is the fixed wait between status checks.
	DefaultPollInterval = 10 * time.Second

	// DefaultMaxWait bounds how long Poll waits for a terminal status.
	DefaultMaxWait = 600 * time.Second
)

// DefaultTerminalStatuses end polling unless Poller.Terminal says otherwise.
var DefaultTerminalStatuses = []aps.Status{
	aps.StatusSuccess,
	aps.StatusFailedUpload,
	aps.StatusCancelled,
}

// errNotTerminal makes the backoff loop try again.
var errNotTerminal = errors.New("work item has not reached a terminal status")

// StatusFetcher reads the status of a work item. *aps.Client implements it.
type StatusFetcher interface {
	GetWorkItemStatus(ctx context.Context, token, workItemID string) (*aps.WorkItemStatus, error)
}

// Poller waits for a work item to reach a terminal status, checking at a
// constant interval.
type Poller struct {
	Fetcher  StatusFetcher
	Interval time.Duration
	MaxWait  time.Duration
	Terminal []aps.Status
	Logger   hclog.Logger

	timer backoff.Timer
}

// NewPoller returns a Poller with the default interval, wait bound and
// terminal statuses.
func NewPoller(fetcher StatusFetcher, logger hclog.Logger) *Poller {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Poller{
		Fetcher:  fetcher,
		Interval: DefaultPollInterval,
		MaxWait:  DefaultMaxWait,
		Terminal: DefaultTerminalStatuses,
		Logger:   logger.Named("poller"),
	}
}

func (p *Poller) isTerminal(s aps.Status) bool {
	terminal := p.Terminal
	if len(terminal) == 0 {
		terminal = DefaultTerminalStatuses
	}
	for _, t := range terminal {
		if s == t {
			return true
		}
	}
	return false
}

func (p *Poller) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultPollInterval
	}
	return p.Interval
}

// attempts is the number of status checks that fit in MaxWait.
func (p *Poller) attempts() uint64 {
	interval := p.interval()
	n := uint64(p.MaxWait / interval)
	if p.MaxWait%interval != 0 {
		n++
	}
	return n
}

// Poll fetches the status of workItemID until it is terminal or MaxWait has
// elapsed. Reaching MaxWait is not an error: the last observed status is
// returned and the caller must check it. Fetch errors and context
// cancellation end polling with an error.
func (p *Poller) Poll(ctx context.Context, token, workItemID string) (*aps.WorkItemStatus, error) {
	logger := p.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.With("workitem", workItemID)

	if p.Fetcher == nil {
		return nil, ErrMissingFetcher
	}

	if p.MaxWait <= 0 {
		return &aps.WorkItemStatus{ID: workItemID}, nil
	}

	if exp, ok := aps.TokenExpiry(token); ok && time.Until(exp) < p.MaxWait {
		logger.Warn("token may expire before polling ends", "expires", exp, "max_wait", p.MaxWait)
	}

	var (
		last  *aps.WorkItemStatus
		start = time.Now()
	)

	check := func() error {
		status, err := p.Fetcher.GetWorkItemStatus(ctx, token, workItemID)
		if err != nil {
			return backoff.Permanent(err)
		}
		last = status

		logger.Info("polled work item",
			"status", status.Status,
			"elapsed", time.Since(start).Round(time.Second),
			"report_url", status.ReportURL)

		if p.isTerminal(status.Status) {
			return nil
		}
		return errNotTerminal
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.interval()), p.attempts()-1),
		ctx)

	err := backoff.RetryNotifyWithTimer(check, b, nil, p.timer)
	switch {
	case err == nil:
		if last.ReportURL != "" {
			logger.Info("work item finished", "status", last.Status, "report_url", last.ReportURL)
		}
		return last, nil
	case errors.Is(err, errNotTerminal):
		logger.Warn("gave up waiting for work item", "status", last.Status, "max_wait", p.MaxWait)
		return last, nil
	default:
		return last, err
	}
}
