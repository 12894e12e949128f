package tisym

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jward/tisym/internal/config"
	"github.com/jward/tisym/internal/dialect"
)

var (
	// ErrUnknownDialect is returned when no dialect matches a file.
	ErrUnknownDialect = errors.New("tisym: unknown dialect")

	// ErrPosition is returned for a line and column outside the text.
	ErrPosition = errors.New("tisym: position out of range")

	// ErrNoPath is returned by Save on a document that was not opened from a file.
	ErrNoPath = errors.New("tisym: document has no path")
)

// Option configures a Document or an Engine.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	dialect string
	cfg     *config.Config
	workers int
}

func newOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the structured logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDialect makes a Document use the named dialect instead of choosing
// one by extension. An Engine only indexes files of that dialect.
func WithDialect(name string) Option {
	return func(o *options) { o.dialect = name }
}

// WithConfig supplies the extension mapping and worker count.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithWorkers bounds the parallel parsers of Engine.IndexFiles. Zero or
// less means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// rulesFor picks the dialect for path: WithDialect first, then the
// configured extensions, then the registered ones.
func (o options) rulesFor(path string) (*dialect.Rules, error) {
	name := o.dialect
	if name == "" && o.cfg != nil {
		name, _ = o.cfg.DialectFor(path)
	}
	if name != "" {
		r, ok := dialect.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, name)
		}
		return r, nil
	}
	r, ok := dialect.ForPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, path)
	}
	return r, nil
}
