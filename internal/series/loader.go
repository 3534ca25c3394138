package series

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/jsyzc2019/abquant-data/internal/adjust"
	"github.com/jsyzc2019/abquant-data/internal/cache"
	"github.com/jsyzc2019/abquant-data/internal/domain"
	"github.com/jsyzc2019/abquant-data/internal/idhash"
	"github.com/jsyzc2019/abquant-data/internal/observability"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// ErrInvalidRequest is returned by Loader.Open for a malformed request.
var ErrInvalidRequest = errors.New("invalid request")

// Request selects the bars of a session.
type Request struct {
	Codes []string
	Start string // "2006-01-02", inclusive
	End   string // "2006-01-02", inclusive
	Freq  domain.MinFreq
	Mode  domain.AdjustmentMode
}

// ParseRequest builds a normalized request from text inputs: comma-separated
// codes, dates, a frequency ("1", "5min"; empty means 1min) and a mode ("qfq", "post").
func ParseRequest(codes, start, end, freq, mode string) (Request, error) {
	req := Request{
		Codes: strings.Split(codes, ","),
		Start: strings.TrimSpace(start),
		End:   strings.TrimSpace(end),
	}
	if strings.TrimSpace(freq) != "" {
		f, err := domain.ParseMinFreq(freq)
		if err != nil {
			return Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		req.Freq = f
	}
	m, err := domain.ParseAdjustmentMode(mode)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Mode = m

	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Normalize returns a copy with sorted, de-duplicated codes and a default frequency.
func (r Request) Normalize() Request {
	seen := make(map[string]struct{}, len(r.Codes))
	codes := make([]string, 0, len(r.Codes))
	for _, c := range r.Codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}
	sort.Strings(codes)
	r.Codes = codes
	if r.Freq == 0 {
		r.Freq = domain.MinFreq1
	}
	return r
}

// Validate checks codes, the date range and the frequency.
func (r Request) Validate() error {
	if len(r.Codes) == 0 {
		return fmt.Errorf("%w: no codes", ErrInvalidRequest)
	}
	start, err := time.Parse(domain.DateLayout, r.Start)
	if err != nil {
		return fmt.Errorf("%w: start: %v", ErrInvalidRequest, err)
	}
	end, err := time.Parse(domain.DateLayout, r.End)
	if err != nil {
		return fmt.Errorf("%w: end: %v", ErrInvalidRequest, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidRequest, r.End, r.Start)
	}
	if !r.Freq.IsValid() {
		return fmt.Errorf("%w: frequency %d", ErrInvalidRequest, int(r.Freq))
	}
	return nil
}

// Key identifies the raw bars of a normalized request; the mode does not change them.
func (r Request) Key() string {
	return idhash.ComputeRequestKey(r.Codes, r.Start, r.End, r.Freq)
}

// Loader opens sessions from a bar store.
type Loader struct {
	bars     storage.MinuteBarStore
	builder  adjust.TableBuilder
	cache    *cache.Cache[string, []domain.MinuteBar]
	cacheTTL time.Duration
	logger   *log.Logger
}

// LoaderOptions contains configuration for creating a Loader.
type LoaderOptions struct {
	Bars     storage.MinuteBarStore
	Builder  adjust.TableBuilder
	CacheTTL time.Duration // 0 disables caching; negative never expires
	// CacheMaxItems bounds the number of cached requests.
	// Default: DefaultCacheMaxItems
	CacheMaxItems int
	Logger        *log.Logger
}

// DefaultCacheMaxItems is the record cache bound when none is configured.
const DefaultCacheMaxItems = 256

// NewLoader creates a new Loader.
func NewLoader(opts LoaderOptions) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	l := &Loader{
		bars:     opts.Bars,
		builder:  opts.Builder,
		cacheTTL: opts.CacheTTL,
		logger:   logger,
	}
	if opts.CacheTTL != 0 {
		maxItems := opts.CacheMaxItems
		if maxItems <= 0 {
			maxItems = DefaultCacheMaxItems
		}
		l.cache = cache.New[string, []domain.MinuteBar](cache.Options{MaxItems: maxItems})
	}
	return l
}

// Open loads the bars selected by req and returns a session over them.
func (l *Loader) Open(ctx context.Context, req Request) (*Session, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	records, err := l.load(ctx, req)
	if err != nil {
		return nil, err
	}

	s := NewSession(SessionOptions{
		Request: req,
		Records: records,
		Builder: l.builder,
		Logger:  l.logger,
	})
	l.logger.Printf("session %s: %d bars for %d codes, %s..%s %s mode=%s",
		s.ID(), len(records), len(req.Codes), req.Start, req.End, req.Freq, req.Mode)
	return s, nil
}

// Invalidate drops all cached bars.
func (l *Loader) Invalidate() {
	if l.cache != nil {
		l.cache.Clear()
	}
}

func (l *Loader) load(ctx context.Context, req Request) ([]domain.MinuteBar, error) {
	key := req.Key()
	if l.cache != nil {
		records, ok := l.cache.Get(key)
		observability.RecordCacheLookup(ok)
		if ok {
			return records, nil
		}
	}

	records, err := l.bars.GetByCodes(ctx, req.Codes, req.Start, req.End, req.Freq)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}

	if l.cache != nil {
		l.cache.Set(key, records, l.cacheTTL)
	}
	return records, nil
}
