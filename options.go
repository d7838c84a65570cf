package gcra

// defaultClock is the process-wide RealClock every DirectLimiter uses
// unless WithClock overrides it. Sharing one instance keeps Instants
// produced by different default-configured DirectLimiters in the same
// time frame. keyed.Limiter does not use it: it has its own options and
// builds a fresh RealClock by default.
var defaultClock = NewRealClock()

// config holds the construction-time options of a DirectLimiter.
type config struct {
	clock Clock
}

// Option configures a DirectLimiter at construction time.
type Option func(*config) error

func newConfig() *config {
	return &config{clock: defaultClock}
}

func (c *config) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// WithClock overrides the Clock a limiter reads time from. Production
// code rarely needs this; tests use it to inject a VirtualClock.
func WithClock(clock Clock) Option {
	return func(cfg *config) error {
		if clock == nil {
			return &ConstructionError{Reason: "clock must not be nil"}
		}
		cfg.clock = clock
		return nil
	}
}
