package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	nhttp "net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"go-rate-matrix/config"
	"go-rate-matrix/exchange"
	"go-rate-matrix/http"
	"go-rate-matrix/matrix"
)

func main() {
	from := flag.String("from", "", "asset to convert from")
	to := flag.String("to", "", "asset to convert to")
	value := flag.String("amount", "1", "amount to convert")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.MustLoad()

	logger := newLogger(cfg.Log)

	if err := run(context.Background(), cfg, logger, *from, *to, *value); err != nil {
		level.Error(logger).Log("msg", "rate matrix failed", "err", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Log) log.Logger {
	w := log.NewSyncWriter(os.Stderr)
	var logger log.Logger
	if cfg.Format == "json" {
		logger = log.NewJSONLogger(w)
	} else {
		logger = log.NewLogfmtLogger(w)
	}
	logger = level.NewFilter(logger, level.Allow(level.ParseDefault(cfg.Level, level.InfoValue())))
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func run(ctx context.Context, cfg *config.Config, logger log.Logger, from string, to string, value string) error {
	assets, err := cfg.BuildAssets()
	if err != nil {
		return err
	}
	quotes, err := cfg.BuildQuotes(assets)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	rates := matrix.New(log.With(logger, "component", "matrix"), matrix.WithStablecoinPeg(cfg.Matrix.StablecoinPegOverride))

	var matrixService matrix.Service = rates
	matrixService = matrix.NewInstrumentingService(matrix.NewMetrics(registry), matrixService)
	matrixService = matrix.NewLoggingService(level.Debug(log.With(logger, "component", "matrix")), matrixService)

	exchangeService := exchange.NewService(matrixService)
	exchangeService = exchange.NewLoggingService(log.With(logger, "component", "exchange"), exchangeService)

	for _, q := range quotes {
		if err := exchangeService.Observe(ctx, q); err != nil {
			return err
		}
	}
	fmt.Println(rates.String())

	if from != "" && to != "" {
		fromAsset, ok := assets[from]
		if !ok {
			return fmt.Errorf("unknown asset %v", from)
		}
		toAsset, ok := assets[to]
		if !ok {
			return fmt.Errorf("unknown asset %v", to)
		}
		v, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		ex, err := exchangeService.Convert(ctx, v, fromAsset, toAsset)
		if err != nil {
			return err
		}
		fmt.Printf("%v %v = %v %v (rate %v)\n",
			ex.Original.Decimal().StringFixed(fromAsset.Scale), from,
			ex.Amount.Decimal().StringFixed(toAsset.Scale), to,
			ex.Rate.Decimal())
	}

	if cfg.Server.Addr != "" {
		handler := http.NewServer(exchangeService, assets)
		handler.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		level.Info(logger).Log("msg", "listening", "addr", cfg.Server.Addr)
		return nhttp.ListenAndServe(cfg.Server.Addr, handler)
	}
	return nil
}
