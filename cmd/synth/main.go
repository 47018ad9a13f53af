package main

import (
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"main/internal/chaos"
	"main/internal/feed"
	"main/internal/ops"
	"main/internal/schema"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config (default: built-in product table)")
	outPath := flag.String("out", "", "Session output file (default: stdout)")
	ticks := flag.Int("ticks", 100, "Number of ticks to generate")
	interval := flag.Int64("interval", 100, "Timestamp step between ticks")
	size := flag.Int64("size", 5, "Inside level size")
	halfSpread := flag.Int64("half-spread", 1, "Distance from mid to the inside levels")
	amplitude := flag.Int64("amplitude", 3, "Mid-price wave amplitude")
	swing := flag.Int64("swing", 0, "Composite divergence swing (0=none)")
	bases := flag.String("bases", "", "Base mids as SYMBOL=PRICE,SYMBOL=PRICE")
	chaosSeed := flag.Int64("chaos-seed", 0, "Perturbation seed (0=default)")
	chaosDrop := flag.Float64("chaos-drop", 0, "Probability of dropping a product's book per tick")
	chaosDropSide := flag.Float64("chaos-drop-side", 0, "Probability of dropping one book side per tick")
	flag.Parse()

	if *ticks <= 0 {
		log.Fatalf("ticks must be > 0")
	}

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	baseMap, err := parseBases(*bases)
	if err != nil {
		log.Fatalf("invalid bases: %v", err)
	}

	generator, err := feed.NewGenerator(loaded.Registry, feed.GeneratorConfig{
		Interval:       *interval,
		Size:           schema.Quantity(*size),
		HalfSpread:     schema.Price(*halfSpread),
		Amplitude:      schema.Price(*amplitude),
		CompositeSwing: schema.Price(*swing),
		Bases:          baseMap,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	var perturb *chaos.Engine
	if *chaosDrop > 0 || *chaosDropSide > 0 {
		perturb, err = chaos.NewEngine(chaos.Config{
			Seed:            *chaosSeed,
			DropProductRate: *chaosDrop,
			DropSideRate:    *chaosDropSide,
		})
		if err != nil {
			log.Fatalf("chaos init failed: %v", err)
		}
	}

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("create session output failed: %v", err)
		}
		defer f.Close()
		out = f
	}

	writer := feed.NewWriter(out)
	for i := 0; i < *ticks; i++ {
		tick := generator.Next()
		if perturb != nil {
			tick = perturb.Apply(tick)
		}
		if err := writer.WriteTick(tick); err != nil {
			log.Fatalf("write tick %d failed: %v", i, err)
		}
	}
	if err := writer.Flush(); err != nil {
		log.Fatalf("flush session failed: %v", err)
	}
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Default()
	}
	return ops.Load(path)
}

func parseBases(raw string) (map[schema.Symbol]schema.Price, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	out := make(map[schema.Symbol]schema.Price)
	for _, pair := range strings.Split(raw, ",") {
		sym, price, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, strconv.ErrSyntax
		}
		v, err := strconv.ParseInt(price, 10, 64)
		if err != nil {
			return nil, err
		}
		out[schema.Symbol(sym)] = schema.Price(v)
	}
	return out, nil
}
