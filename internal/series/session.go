package series

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jsyzc2019/abquant-data/internal/adjust"
	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/frame"
	"github.com/jsyzc2019/abquant-data/internal/idhash"
)

var errNoBuilder = errors.New("no table builder configured")

// Session holds the bars of one request and, lazily, their adjusted table.
// It is safe for concurrent use.
type Session struct {
	id      string
	req     Request
	builder adjust.TableBuilder
	logger  *log.Logger

	mu      sync.RWMutex
	records []domain.MinuteBar
	closed  bool

	// The adjusted table is built at most once; a failed build is kept too.
	tableMu  sync.Mutex
	built    bool
	table    *frame.Frame
	tableErr error
}

// SessionOptions contains configuration for creating a Session.
type SessionOptions struct {
	ID      string // Default: a new ULID
	Request Request
	Records []domain.MinuteBar
	Builder adjust.TableBuilder // required for adjusted modes
	Logger  *log.Logger
}

// NewSession creates a session over a copy of opts.Records.
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	id := opts.ID
	if id == "" {
		id = idhash.NewSessionID()
	}

	return &Session{
		id:      id,
		req:     opts.Request,
		builder: opts.Builder,
		logger:  logger,
		records: append(make([]domain.MinuteBar, 0, len(opts.Records)), opts.Records...),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Request returns the request the session was opened for.
func (s *Session) Request() Request {
	return s.req
}

// Mode returns the session's adjustment mode.
func (s *Session) Mode() domain.AdjustmentMode {
	return s.req.Mode
}

// Records returns a copy of all records in store order.
func (s *Session) Records() []domain.MinuteBar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]domain.MinuteBar, 0, len(s.records)), s.records...)
}

// Len returns the number of records.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// AdjustedTable returns a copy of the session's adjusted table, building it on first use.
func (s *Session) AdjustedTable(ctx context.Context) (*frame.Frame, error) {
	table, err := s.adjustedTable(ctx)
	if err != nil {
		return nil, err
	}
	return table.Clone(), nil
}

// Close releases the records and the adjusted table. Later lookups fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.records = nil
	s.mu.Unlock()

	s.tableMu.Lock()
	s.table = nil
	s.tableMu.Unlock()
	return nil
}

// snapshot returns the records without copying; callers must not modify them.
func (s *Session) snapshot() ([]domain.MinuteBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.records, nil
}

func (s *Session) adjustedTable(ctx context.Context) (*frame.Frame, error) {
	records, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if !s.req.Mode.Adjusted() {
		return nil, adjust.ErrNotAdjusted
	}

	s.tableMu.Lock()
	defer s.tableMu.Unlock()

	if !s.built {
		s.built = true
		if s.builder == nil {
			s.tableErr = errNoBuilder
		} else {
			s.table, s.tableErr = s.builder.Build(ctx, records, s.req.Mode)
			if s.tableErr == nil && s.table == nil {
				s.tableErr = fmt.Errorf("builder returned no table")
			}
		}
	}
	if s.tableErr != nil {
		return nil, s.tableErr
	}
	if s.table == nil {
		// closed while waiting for the lock
		return nil, ErrSessionClosed
	}
	return s.table, nil
}
