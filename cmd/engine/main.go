package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/bytedance/sonic"
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/book"
	"main/internal/engine"
	"main/internal/feed"
	"main/internal/ledger"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/schema"
	"main/internal/store"
)

type resultRecord struct {
	Timestamp   int64                            `json:"ts"`
	Orders      map[schema.Symbol][]schema.Order `json:"orders"`
	Conversions int                              `json:"conversions"`
	TraderData  string                           `json:"traderData,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "Path to JSON config (default: built-in product table)")
	feedPath := flag.String("feed", "", "Session feed file, one JSON tick per line")
	outPath := flag.String("out", "", "Result output file (default: stdout)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0=run the whole feed)")
	fromTS := flag.Int64("from", 0, "Skip feed ticks stamped before this timestamp")
	session := flag.String("session", "local", "Session name for result persistence")
	pgDSN := flag.String("pg", "", "PostgreSQL DSN for result persistence (empty=disabled)")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	if *feedPath == "" {
		log.Fatalf("missing feed; use -feed")
	}

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "decision-engine",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	in, err := os.Open(*feedPath)
	if err != nil {
		log.Fatalf("open feed failed: %v", err)
	}
	defer in.Close()

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("create result output failed: %v", err)
		}
		defer f.Close()
		out = f
	}

	metrics := obs.NewMetrics()
	eng := engine.New(loaded, metrics)

	reader := feed.NewReader(in)
	if *fromTS > 0 {
		reader.SkipBefore(*fromTS)
	}

	last, err := runSession(eng, reader, out, *maxTicks)
	if err != nil {
		log.Fatalf("session failed: %v", err)
	}

	snapshot := metrics.Snapshot()
	report := finalReport(eng, last)
	logs.Infof("session done: ticks=%d failures=%d takes=%d rests=%d entries=%d suppressed=%d emptyBooks=%d avgTick=%s",
		snapshot.Ticks, snapshot.TickFailures,
		snapshot.OrderCounts[obs.OrderTake], snapshot.OrderCounts[obs.OrderRest], snapshot.OrderCounts[obs.OrderEntry],
		snapshot.EntriesSuppressed, snapshot.EmptyBooks, snapshot.TickLatency.Avg)
	logs.Infof("final pnl: total=%d realized=%d unrealized=%d", report.Total, report.Realized, report.Unrealized)

	if *pgDSN != "" {
		if err := persistSummary(*pgDSN, *session, loaded, eng, snapshot, report); err != nil {
			logs.Errorf("persist session summary, err: %+v", err)
		}
	}
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Default()
	}
	return ops.Load(path)
}

func runSession(eng *engine.Engine, reader *feed.Reader, out io.Writer, maxTicks int) (schema.Tick, error) {
	var last schema.Tick
	for count := 0; maxTicks <= 0 || count < maxTicks; count++ {
		select {
		case <-sys.Shutdown():
			logs.Info("shutdown requested, stopping session")
			return last, nil
		default:
		}

		tick, err := reader.Next()
		if err == io.EOF {
			return last, nil
		}
		if err != nil {
			return last, err
		}

		result, err := eng.Run(tick)
		if err != nil {
			return last, err
		}
		if err := writeResult(out, tick.Timestamp, result); err != nil {
			return last, err
		}
		last = tick
	}
	return last, nil
}

func writeResult(out io.Writer, ts int64, result schema.Result) error {
	data, err := sonic.ConfigStd.Marshal(resultRecord{
		Timestamp:   ts,
		Orders:      result.Orders,
		Conversions: result.Conversions,
		TraderData:  result.TraderData,
	})
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return err
	}
	_, err = out.Write([]byte{'\n'})
	return err
}

func finalReport(eng *engine.Engine, last schema.Tick) ledger.Report {
	views := make(map[schema.Symbol]book.View, len(last.Depths))
	for sym, depth := range last.Depths {
		views[sym] = book.NewView(depth)
	}
	return eng.Ledger().MarkToMarket(views)
}

func persistSummary(dsn, session string, loaded ops.Loaded, eng *engine.Engine, snapshot obs.Snapshot, report ledger.Report) error {
	db, err := store.Open(store.Option{ConnString: dsn})
	if err != nil {
		return err
	}
	defer db.Close()

	products := make([]store.ProductSummary, 0, loaded.Registry.Count())
	for i := 0; i < loaded.Registry.Count(); i++ {
		product, _ := loaded.Registry.At(i)
		sym := product.Symbol
		products = append(products, store.ProductSummary{
			Symbol:   string(sym),
			Position: int64(eng.Ledger().Position(sym)),
			Volume:   int64(eng.Ledger().Volume(sym)),
			PnL:      int64(report.PerProduct[sym]),
		})
	}
	return db.SaveSummary(store.SessionSummary{
		Session:    session,
		Ticks:      int64(snapshot.Ticks),
		Realized:   int64(report.Realized),
		Unrealized: int64(report.Unrealized),
		Total:      int64(report.Total),
	}, products)
}
