// pkg/sink/sink.go
package sink

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/config"
	"github.com/smart-sales/dataprep/pkg/model"
)

// Sink writes a cleaned table to its configured destination
type Sink interface {
	// Write persists the table for the named dataset
	Write(ctx context.Context, dataset string, table *model.Table) error

	// Destination describes where the table goes, for logging
	Destination() string

	// Close releases any resources held by the sink
	Close() error
}

// ForOutput returns the sink matching a dataset's output declaration.
// File outputs go to a CSV sink; table outputs need warehouse
// configuration and go to the PostgreSQL sink.
func ForOutput(ctx context.Context, out config.OutputSpec, pg *config.PostgresConfig, logger *zap.Logger) (Sink, error) {
	switch {
	case out.Path != "":
		return NewCSVSink(out.Path, logger), nil
	case out.Table != "":
		if pg == nil {
			return nil, errors.New("table output requires PostgreSQL configuration")
		}
		return NewPostgresSink(ctx, pg, out.Table, logger)
	default:
		return nil, errors.New("output declares no destination")
	}
}
