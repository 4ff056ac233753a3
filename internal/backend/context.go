package backend

import (
	"log/slog"
	"math/rand/v2"

	"github.com/born-ml/qnn/internal/parallel"
)

// AcceleratedProvider is the provider name of the in-process simulators.
//
// Samplers bound to an accelerated backend compile each circuit once and
// bind parameter rows directly into the compiled program.
const AcceleratedProvider = "born.sim"

// Config holds execution options shared by every circuit run through a context.
type Config struct {
	// Shots per circuit for shot-based backends (default: 1024).
	Shots int

	// Seed for shot sampling. -1 = random.
	Seed int64

	// Parallel controls row-parallel evaluation on accelerated backends.
	Parallel parallel.Config

	// Logger receives sampler diagnostics (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultConfig returns sensible execution defaults.
func DefaultConfig() Config {
	return Config{
		Shots:    1024,
		Seed:     -1,
		Parallel: parallel.DefaultConfig(),
		Logger:   slog.Default(),
	}
}

// ExecutionContext pairs a backend with its execution options.
type ExecutionContext struct {
	backend Backend
	config  Config
	seed    uint64
}

// NewExecutionContext creates an execution context.
//
// Zero-valued Shots and a nil Logger fall back to DefaultConfig.
func NewExecutionContext(b Backend, cfg Config) *ExecutionContext {
	def := DefaultConfig()
	if cfg.Shots <= 0 {
		cfg.Shots = def.Shots
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	seed := uint64(cfg.Seed) //nolint:gosec // Intentional reinterpretation of a non-negative seed
	if cfg.Seed < 0 {
		seed = randomSeed()
	}
	return &ExecutionContext{backend: b, config: cfg, seed: seed}
}

// FromBackend wraps a raw backend handle into a context with default options.
func FromBackend(b Backend) *ExecutionContext {
	return NewExecutionContext(b, DefaultConfig())
}

// Backend returns the wrapped backend.
func (c *ExecutionContext) Backend() Backend {
	return c.backend
}

// Config returns the execution options.
func (c *ExecutionContext) Config() Config {
	return c.config
}

// Shots returns the shots per circuit.
func (c *ExecutionContext) Shots() int {
	return c.config.Shots
}

// Logger returns the diagnostics logger.
func (c *ExecutionContext) Logger() *slog.Logger {
	return c.config.Logger
}

// Seed derives the sampling seed of one circuit evaluation.
//
// The seed depends only on the context seed, the batch row and the circuit's
// position in the expression, so a seeded context reproduces its results
// regardless of evaluation order.
func (c *ExecutionContext) Seed(row, circuit int) uint64 {
	return splitmix64(c.seed ^ splitmix64(uint64(row)<<32|uint64(uint32(circuit)))) //nolint:gosec // Row and circuit indices are small and non-negative
}

// RunOptions returns the options of one circuit evaluation.
func (c *ExecutionContext) RunOptions(row, circuit int) RunOptions {
	return RunOptions{Shots: c.config.Shots, Seed: c.Seed(row, circuit)}
}

// IsAccelerated reports whether b is one of the in-process simulators.
func IsAccelerated(b Backend) bool {
	return b != nil && b.Provider() == AcceleratedProvider
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

func randomSeed() uint64 {
	return rand.Uint64() //nolint:gosec // User requested random seed
}
