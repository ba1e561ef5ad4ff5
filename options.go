package termexp

import (
	"github.com/hupe1980/termexp/expand"
	"github.com/hupe1980/termexp/resource"
)

const (
	// DefaultMaxItems is the number of terms ExpandSet returns unless
	// WithMaxItems is given.
	DefaultMaxItems = 10

	// DefaultExpandK is the default document length normalisation parameter.
	DefaultExpandK = 1.0
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	controller       *resource.Controller
	expandDefaults   []ExpandOption
}

// Option configures New and Open.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithResourceController sets the controller bounding concurrent shard
// opens. A nil controller imposes no limits.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithExpandDefaults sets expansion options applied before the options
// passed to each ExpandSet call.
func WithExpandDefaults(opts ...ExpandOption) Option {
	return func(o *options) {
		o.expandDefaults = append(o.expandDefaults, opts...)
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Decider decides whether a candidate term may appear in an ESet.
type Decider interface {
	Accept(term []byte) bool
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(term []byte) bool

// Accept implements Decider.
func (f DeciderFunc) Accept(term []byte) bool { return f(term) }

type expandOptions struct {
	maxItems      int
	minWeight     float64
	decider       Decider
	exclude       map[string]struct{}
	exactTermFreq bool
	scheme        expand.Scheme
	expandK       float64
}

// ExpandOption configures ExpandSet.
type ExpandOption func(*expandOptions)

// WithMaxItems bounds the number of terms returned. n <= 0 returns every
// term above the minimum weight.
func WithMaxItems(n int) ExpandOption {
	return func(o *expandOptions) {
		o.maxItems = n
	}
}

// WithMinWeight drops terms whose weight is not greater than w.
func WithMinWeight(w float64) ExpandOption {
	return func(o *expandOptions) {
		o.minWeight = w
	}
}

// WithDecider filters candidate terms before they are weighted.
func WithDecider(d Decider) ExpandOption {
	return func(o *expandOptions) {
		o.decider = d
	}
}

// WithExcludeTerms never returns the given terms, typically those of the
// original query.
func WithExcludeTerms(terms ...[]byte) ExpandOption {
	return func(o *expandOptions) {
		if o.exclude == nil {
			o.exclude = make(map[string]struct{}, len(terms))
		}
		for _, t := range terms {
			o.exclude[string(t)] = struct{}{}
		}
	}
}

// WithExactTermFreq looks up the exact collection term frequency of every
// candidate instead of estimating it from the shards the RSet touches.
func WithExactTermFreq(exact bool) ExpandOption {
	return func(o *expandOptions) {
		o.exactTermFreq = exact
	}
}

// WithScheme selects the weighting scheme. If nil is passed, expand.Prob is
// used.
func WithScheme(s expand.Scheme) ExpandOption {
	return func(o *expandOptions) {
		if s == nil {
			s = expand.Prob{}
		}
		o.scheme = s
	}
}

// WithExpandK sets the document length normalisation parameter of the
// probabilistic multiplier. Zero disables normalisation.
func WithExpandK(k float64) ExpandOption {
	return func(o *expandOptions) {
		o.expandK = k
	}
}

func applyExpandOptions(opts []ExpandOption) expandOptions {
	o := expandOptions{
		maxItems: DefaultMaxItems,
		scheme:   expand.Prob{},
		expandK:  DefaultExpandK,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
