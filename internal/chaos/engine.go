// Package chaos perturbs synthetic sessions to exercise the engine's
// missing-liquidity handling.
package chaos

import (
	"fmt"
	"math/rand"
	"sort"

	"main/internal/schema"
)

// Config controls perturbation behavior. All rates are probabilities per
// product per tick.
type Config struct {
	// Seed fixes the perturbation sequence. Zero selects seed 1 so that
	// unseeded runs stay reproducible.
	Seed int64
	// DropProductRate removes a product's book from the tick entirely.
	DropProductRate float64
	// DropSideRate removes one side of a surviving book.
	DropSideRate float64
}

// Engine applies perturbation rules to ticks.
type Engine struct {
	cfg Config
	rng *rand.Rand
}

// NewEngine creates a perturbation engine with validation.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.DropProductRate < 0 || c.DropProductRate > 1 {
		return fmt.Errorf("dropProductRate must be between 0 and 1")
	}
	if c.DropSideRate < 0 || c.DropSideRate > 1 {
		return fmt.Errorf("dropSideRate must be between 0 and 1")
	}
	return nil
}

// Apply perturbs one tick in place and returns it. Products are visited in
// symbol order so a fixed seed yields a fixed outcome.
func (e *Engine) Apply(tick schema.Tick) schema.Tick {
	symbols := make([]schema.Symbol, 0, len(tick.Depths))
	for sym := range tick.Depths {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })

	for _, sym := range symbols {
		if e.cfg.DropProductRate > 0 && e.rng.Float64() < e.cfg.DropProductRate {
			delete(tick.Depths, sym)
			continue
		}
		if e.cfg.DropSideRate > 0 && e.rng.Float64() < e.cfg.DropSideRate {
			depth := tick.Depths[sym]
			if e.rng.Intn(2) == 0 {
				depth.BuyOrders = nil
			} else {
				depth.SellOrders = nil
			}
			tick.Depths[sym] = depth
		}
	}
	return tick
}
