package series

import (
	"context"
	"errors"

	"github.com/jsyzc2019/abquant-data/internal/frame"
)

// Materialize reads every schema column into a frame.
//
// A column that fails is stored empty and its error is joined into the
// returned error; the frame is returned either way.
func Materialize(ctx context.Context, s *Session) (*frame.Frame, error) {
	f := frame.New()
	var errs []error
	for _, c := range columns {
		switch c.kind {
		case frame.KindFloat:
			errs = append(errs, materialize[float64](ctx, s, f, c.name))
		case frame.KindString:
			errs = append(errs, materialize[string](ctx, s, f, c.name))
		}
	}
	return f, errors.Join(errs...)
}

func materialize[T Scalar](ctx context.Context, s *Session, f *frame.Frame, column string) error {
	values, err := Lookup[T](ctx, s, column)
	if err != nil {
		frame.Set(f, column, []T{})
		return err
	}
	frame.Set(f, column, values)
	return nil
}
