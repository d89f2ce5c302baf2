package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfHandler opens a GELF UDP writer to addr ("host:port") and
// returns a handler shipping records to Graylog as JSON. The writer
// chunks oversized messages itself; no local buffering is needed.
func NewGelfHandler(addr string, opts *slog.HandlerOptions) (slog.Handler, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open graylog writer for %s: %w", addr, err)
	}
	return slog.NewJSONHandler(w, opts), nil
}
