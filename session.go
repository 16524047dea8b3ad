package mailcheck

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tinylib/msgp/msgp"
	"golang.org/x/sync/errgroup"

	"github.com/synqronlabs/mailcheck/report"
)

// Status is the state of a session or of a single test in it.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// TestRun is a single test of a session.
type TestRun struct {
	Type   TestType       `json:"type"`
	Status Status         `json:"status"`
	Result *report.Result `json:"result,omitempty"`

	// ErrorMessage is set for a failed test.
	ErrorMessage string `json:"errorMessage,omitempty"`

	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// MarshalMsg implements msgp.Marshaler.
func (r TestRun) MarshalMsg(b []byte) ([]byte, error) {
	var err error
	b = report.AppendMap(b,
		report.Field{Key: "type", Append: report.String(string(r.Type))},
		report.Field{Key: "status", Append: report.String(string(r.Status))},
		report.Field{Key: "result", Append: report.Object(r.Result, &err), Omit: r.Result == nil},
		report.Field{Key: "errorMessage", Append: report.String(r.ErrorMessage), Omit: r.ErrorMessage == ""},
		report.Field{Key: "startedAt", Append: report.Time(r.StartedAt)},
		report.Field{Key: "completedAt", Append: report.Time(r.CompletedAt)},
	)
	return b, err
}

// Session is a run of several tests against one domain.
type Session struct {
	ID     ulid.ULID `json:"id"`
	Domain string    `json:"domain"`
	Status Status    `json:"status"`

	// Tests are in the requested order.
	Tests []TestRun `json:"tests"`

	// OverallScore is the rounded mean score of the completed tests, or 0
	// if no test completed.
	OverallScore int `json:"overallScore"`

	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// MarshalMsg implements msgp.Marshaler.
func (s *Session) MarshalMsg(b []byte) ([]byte, error) {
	var err error
	b = report.AppendMap(b,
		report.Field{Key: "id", Append: report.String(s.ID.String())},
		report.Field{Key: "domain", Append: report.String(s.Domain)},
		report.Field{Key: "status", Append: report.String(string(s.Status))},
		report.Field{Key: "tests", Append: func(b []byte) []byte {
			b = msgp.AppendArrayHeader(b, uint32(len(s.Tests)))
			for _, t := range s.Tests {
				b = report.Object(t, &err)(b)
			}
			return b
		}},
		report.Field{Key: "overallScore", Append: report.Int(s.OverallScore)},
		report.Field{Key: "startedAt", Append: report.Time(s.StartedAt)},
		report.Field{Key: "completedAt", Append: report.Time(s.CompletedAt)},
	)
	return b, err
}

// CompletedTests returns the number of tests that have finished, completed
// or failed.
func (s *Session) CompletedTests() int {
	var n int
	for _, t := range s.Tests {
		if t.Status == StatusCompleted || t.Status == StatusFailed {
			n++
		}
	}
	return n
}

// OverallScore returns the rounded mean score of the completed tests in
// runs, or 0 if none completed. Failed tests are not counted.
func OverallScore(runs []TestRun) int {
	var sum, n int
	for _, r := range runs {
		if r.Status != StatusCompleted || r.Result == nil {
			continue
		}
		sum += r.Result.Score
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// Progress is reported while a session runs.
type Progress struct {
	SessionID      ulid.ULID
	Domain         string
	TotalTests     int
	CompletedTests int
	CurrentTest    TestType // Empty when the session has finished.
	Status         Status
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(Progress)

// RunSession runs tests against domain and returns the session with all
// results.
//
// Tests run one after the other, or up to Config.Parallel at a time. Either
// way the session lists them in the order given. A test that cannot complete
// is marked failed and does not count toward the overall score. The session
// itself only fails, with an error, if ctx is done before all tests ran.
func (c *Checker) RunSession(ctx context.Context, domain string, tests []TestType, progress ProgressFunc) (*Session, error) {
	s := &Session{
		ID:        ulid.Make(),
		Domain:    domain,
		Status:    StatusRunning,
		Tests:     make([]TestRun, len(tests)),
		StartedAt: time.Now(),
	}
	for i, t := range tests {
		s.Tests[i] = TestRun{Type: t, Status: StatusPending}
	}

	log := c.log.With(slog.String("session", s.ID.String()), slog.String("domain", domain))
	log.Info("session started", slog.Int("tests", len(tests)))

	var mu sync.Mutex
	notify := func(current TestType) {
		if progress == nil {
			return
		}
		progress(Progress{
			SessionID:      s.ID,
			Domain:         domain,
			TotalTests:     len(tests),
			CompletedTests: s.CompletedTests(),
			CurrentTest:    current,
			Status:         s.Status,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Parallel)
	for i, t := range tests {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			mu.Lock()
			s.Tests[i].Status = StatusRunning
			s.Tests[i].StartedAt = time.Now()
			notify(t)
			mu.Unlock()

			result, err := c.Check(gctx, t, domain)

			mu.Lock()
			defer mu.Unlock()
			run := &s.Tests[i]
			run.CompletedAt = time.Now()
			if err != nil {
				run.Status = StatusFailed
				run.ErrorMessage = err.Error()
			} else {
				run.Status = StatusCompleted
				run.Result = &result
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	s.CompletedAt = time.Now()
	s.OverallScore = OverallScore(s.Tests)
	if err != nil {
		s.Status = StatusFailed
		log.Info("session failed", slog.Any("err", err))
		notify("")
		return s, fmt.Errorf("session %s: %w", s.ID, err)
	}
	s.Status = StatusCompleted
	log.Info("session completed", slog.Int("score", s.OverallScore))
	notify("")
	return s, nil
}
