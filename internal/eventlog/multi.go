package eventlog

import (
	"context"
	"errors"

	"github.com/1cedrus/squid-chat/internal/directory"
)

// Multi fans one event out to several sinks. Every sink sees the event even
// when an earlier one fails.
type Multi []directory.Sink

func (m Multi) Emit(ctx context.Context, event directory.Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
