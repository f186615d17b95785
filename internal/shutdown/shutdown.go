// Package shutdown provides graceful shutdown coordination. Components
// register in dependency order and are shut down in reverse, so the
// ingest queue drains into the store before the store closes.
package shutdown

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout is the default graceful shutdown timeout.
const DefaultTimeout = 30 * time.Second

// Component is a resource that participates in graceful shutdown.
type Component interface {
	// Name returns the component name for logging.
	Name() string
	// Shutdown releases the component's resources. It should return
	// within the given context deadline.
	Shutdown(ctx context.Context) error
}

// Coordinator shuts registered components down in reverse registration
// order (LIFO), bounded by a single overall timeout.
type Coordinator struct {
	components []Component
	timeout    time.Duration
	logger     *slog.Logger
	mu         sync.Mutex

	shutdownOnce sync.Once
	failed       bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout sets the shutdown timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a new shutdown coordinator.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a component. Components are shut down in reverse order
// of registration.
func (c *Coordinator) Register(component Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components = append(c.components, component)
	c.logger.Debug("registered shutdown component", "name", component.Name())
}

// Shutdown runs each component's Shutdown sequentially, newest first,
// so dependents release before their dependencies. Errors are logged
// and do not stop later components. Returns false if any component
// failed or the timeout expired.
func (c *Coordinator) Shutdown() bool {
	c.shutdownOnce.Do(func() {
		c.logger.Info("initiating graceful shutdown", "timeout", c.timeout)

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		c.mu.Lock()
		components := make([]Component, len(c.components))
		copy(components, c.components)
		c.mu.Unlock()

		for i := len(components) - 1; i >= 0; i-- {
			component := components[i]

			if ctx.Err() != nil {
				c.logger.Warn("shutdown timeout exceeded, skipping remaining components",
					"next", component.Name(),
				)
				c.failed = true
				return
			}

			c.logger.Info("shutting down component", "name", component.Name())
			if err := component.Shutdown(ctx); err != nil {
				c.logger.Error("component shutdown error",
					"name", component.Name(),
					"error", err,
				)
				c.failed = true
				continue
			}
			c.logger.Info("component shutdown complete", "name", component.Name())
		}
	})

	return !c.failed
}
