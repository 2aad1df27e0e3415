package staticd

import (
	"github.com/brickingsoft/staticd/pkg/log"
	"github.com/brickingsoft/staticd/pkg/metrics"
	"github.com/sirupsen/logrus"
)

type Options struct {
	// Root is the directory request paths are resolved against.
	Root string
	// ConfinePaths cleans request paths as absolute paths so they can not leave Root.
	ConfinePaths bool
	// CPUAffinity pins the thread running Serve when not negative.
	CPUAffinity int
	Logger      *logrus.Entry
	Metrics     *metrics.Metrics
}

type Option func(options *Options)

// WithRoot
// sets the document root, default is the working directory.
func WithRoot(root string) Option {
	return func(options *Options) {
		if root != "" {
			options.Root = root
		}
	}
}

// WithConfinePaths
// enabled by default.
func WithConfinePaths(confine bool) Option {
	return func(options *Options) {
		options.ConfinePaths = confine
	}
}

// WithCPUAffinity
// negative leaves the thread unpinned, which is the default.
func WithCPUAffinity(cpu int) Option {
	return func(options *Options) {
		options.CPUAffinity = cpu
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(options *Options) {
		if logger != nil {
			options.Logger = logger
		}
	}
}

// WithMetrics
// nil disables collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(options *Options) {
		options.Metrics = m
	}
}

func newOptions(options []Option) Options {
	opts := Options{
		Root:         ".",
		ConfinePaths: true,
		CPUAffinity:  -1,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewLogger("server")
	}
	return opts
}
