package series

import (
	"context"
	"errors"
	"fmt"

	"github.com/jsyzc2019/abquant-data/internal/frame"
	"github.com/jsyzc2019/abquant-data/internal/observability"
)

var (
	// ErrUnknownColumn is returned for a column outside the schema.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrTypeMismatch is returned when a column is requested as a type it does not hold.
	ErrTypeMismatch = errors.New("column type mismatch")

	// ErrAdjustedTable is returned when an adjusted column cannot be produced.
	ErrAdjustedTable = errors.New("adjusted table unavailable")

	// ErrSessionClosed is returned for lookups on a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// Lookup returns column as a []T with one value per record.
//
// For a price-adjusted session, float64 columns are read from the adjusted
// table and any failure there is reported as ErrAdjustedTable. Everything
// else is read from the records.
func Lookup[T Scalar](ctx context.Context, s *Session, column string) (values []T, err error) {
	path := "records"
	defer func() {
		recordLookup(column, path, err)
	}()

	if !inSchema(column) {
		path = "none"
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}

	records, err := s.snapshot()
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", column, err)
	}

	if isFloat[T]() && s.req.Mode.Adjusted() {
		path = "adjusted"
		return lookupAdjusted[T](ctx, s, column)
	}

	get, ok := accessorFor[T](column)
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: %s is not %T", ErrTypeMismatch, column, zero)
	}

	values = make([]T, len(records))
	for i := range records {
		values[i] = get(&records[i])
	}
	return values, nil
}

func lookupAdjusted[T Scalar](ctx context.Context, s *Session, column string) ([]T, error) {
	table, err := s.adjustedTable(ctx)
	if err != nil {
		if errors.Is(err, ErrSessionClosed) {
			return nil, fmt.Errorf("lookup %s: %w", column, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrAdjustedTable, column, err)
	}
	values, err := frame.Column[T](table, adjustedName(column))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAdjustedTable, column, err)
	}
	return values, nil
}

// Extract is Lookup with every failure mapped to an empty, non-nil slice.
// Adjusted table failures are logged; other failures are silent.
func Extract[T Scalar](ctx context.Context, s *Session, column string) []T {
	values, err := Lookup[T](ctx, s, column)
	if err != nil {
		if errors.Is(err, ErrAdjustedTable) {
			s.logger.Printf("session %s: extract %s: %v", s.id, column, err)
		}
		return []T{}
	}
	return values
}

// Open returns the open price series.
func Open(ctx context.Context, s *Session) []float64 {
	return Extract[float64](ctx, s, "open")
}

func recordLookup(column, path string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownColumn):
		// keep label cardinality bounded
		column = "unknown"
		outcome = "unknown_column"
	case errors.Is(err, ErrTypeMismatch):
		outcome = "type_mismatch"
	case errors.Is(err, ErrAdjustedTable):
		outcome = "adjusted_table"
	case errors.Is(err, ErrSessionClosed):
		outcome = "closed"
	default:
		outcome = "error"
	}
	observability.RecordExtraction(column, path, outcome)
}
