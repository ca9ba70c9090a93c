package safetree

import "github.com/BazookaMusic/safetree/internal/txguard"

// RetryPolicyKind selects how the engine's guards back off before taking the
// fallback lock. See internal/txguard.PolicyKind.
type RetryPolicyKind = txguard.PolicyKind

const (
	Stubborn = txguard.Stubborn
	Half     = txguard.Half
)

// Config collects every tunable knob an Engine needs at construction time:
// arena sizes, path depth, and retry policy. It is set once and never
// mutated afterwards, via a functional-options constructor (see Option,
// modeled on github.com/joeycumines/go-utilpkg/logiface's Option[E]/New
// pattern).
type Config struct {
	// TreeType selects the reachability-check strategy; set implicitly by
	// whether the caller uses NewGeneralTreeEngine or NewSearchTreeEngine.
	TreeType TreeType

	// MaxGoroutines is recorded in the Config but not read by the engine:
	// the arena registries are sync.Pool-backed, hold no per-goroutine
	// slots, and place no limit on how many goroutines use them at once.
	MaxGoroutines int

	// PathMaxLen bounds the path stack.
	PathMaxLen int

	// RetryPolicy and MaxRetries configure the transactional guard's
	// backoff before falling back to the global lock.
	RetryPolicy RetryPolicyKind
	MaxRetries  int

	// WrapperArenaCapacity is the fixed per-attempt capacity of the
	// SafeNode wrapper arena; exceeding it is fatal (a mis-sized arena,
	// per FatalError). UserNodeArenaCapacity is the chunk size of the
	// user-node arena, which grows on demand and is only a tuning knob.
	WrapperArenaCapacity  int
	UserNodeArenaCapacity int

	// PreallocValidationSet, if > 0, preallocates the validation set slice
	// to this capacity instead of letting it grow organically.
	PreallocValidationSet int

	// EarlyAbort and EarlyAbortOnCopy enable eager abort checking: when
	// set, the engine re-checks a node's captured child snapshot against
	// the live tree early (respectively: when ConnPoint.WrapSafe wraps it;
	// when a SafeNode is promoted). A stale pointer marks the attempt as
	// failed; the operation body still runs to completion, and Commit then
	// fails at once without running the final validation pass.
	EarlyAbort       bool
	EarlyAbortOnCopy bool

	// Logger, if set, receives diagnostic events for conditions worth
	// knowing about off the hot path: retaking an attempt under the
	// fallback lock, and any attempt that fails to validate even while
	// holding it. Nil (the default) disables logging entirely.
	Logger Logger
}

// DefaultConfig returns sensible defaults: a 10,000-frame path stack, a
// stubborn retry policy with 30 attempts before falling back to the lock,
// and modestly sized per-goroutine arenas.
func DefaultConfig() Config {
	return Config{
		TreeType:              GeneralTree,
		MaxGoroutines:         100,
		PathMaxLen:            10000,
		RetryPolicy:           Stubborn,
		MaxRetries:            30,
		WrapperArenaCapacity:  1024,
		UserNodeArenaCapacity: 256,
	}
}

// ResolveConfig applies opts over DefaultConfig, the same resolution
// NewGeneralTreeEngine/NewSearchTreeEngine perform internally. Map-layer
// constructors that need a Config value (e.g. UserNodeArenaCapacity, to
// size their NodeArenaPool) before they have an Engine to ask call this
// directly instead of duplicating DefaultConfig's defaults.
func ResolveConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option mutates a Config at Engine construction time.
type Option func(*Config)

// WithMaxGoroutines sets MaxGoroutines.
func WithMaxGoroutines(n int) Option { return func(c *Config) { c.MaxGoroutines = n } }

// WithPathMaxLen sets PathMaxLen.
func WithPathMaxLen(n int) Option { return func(c *Config) { c.PathMaxLen = n } }

// WithRetryPolicy sets the retry policy kind and attempt budget.
func WithRetryPolicy(kind RetryPolicyKind, maxRetries int) Option {
	return func(c *Config) {
		c.RetryPolicy = kind
		c.MaxRetries = maxRetries
	}
}

// WithArenaCapacities sets the wrapper and user-node arena sizes.
func WithArenaCapacities(wrapper, userNode int) Option {
	return func(c *Config) {
		c.WrapperArenaCapacity = wrapper
		c.UserNodeArenaCapacity = userNode
	}
}

// WithPreallocValidationSet sets PreallocValidationSet.
func WithPreallocValidationSet(n int) Option { return func(c *Config) { c.PreallocValidationSet = n } }

// WithEarlyAbort enables eager-abort checking (and, optionally, the
// additional eager check on every SafeNode promotion).
func WithEarlyAbort(onCopy bool) Option {
	return func(c *Config) {
		c.EarlyAbort = true
		c.EarlyAbortOnCopy = onCopy
	}
}

// WithLogger attaches a Logger for fallback/validation diagnostics. See
// NewStderrLogger for a ready-made one backed by stumpy.
func WithLogger(l Logger) Option { return func(c *Config) { c.Logger = l } }
