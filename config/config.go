package config

import (
	"fmt"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"

	"go-rate-matrix/domain"
)

// PathEnv names the environment variable holding the config file path
const PathEnv = "RATE_MATRIX_CONFIG_PATH"

type Config struct {
	Env    string  `yaml:"env" env:"ENV" env-default:"local"`
	Matrix Matrix  `yaml:"matrix"`
	Log    Log     `yaml:"log"`
	Server Server  `yaml:"server"`
	Assets []Asset `yaml:"assets"`
	Quotes []Quote `yaml:"quotes"`
}

type Matrix struct {
	// StablecoinPegOverride pins USD/USDT to 1. Defaults to true, see defaults.
	StablecoinPegOverride bool `yaml:"stablecoin-peg-override" env:"STABLECOIN_PEG_OVERRIDE"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"logfmt"`
}

// Server serves conversions and metrics over HTTP when Addr is set
type Server struct {
	Addr string `yaml:"addr" env:"HTTP_ADDR"`
}

type Asset struct {
	Symbol string `yaml:"symbol"`
	Basis  string `yaml:"basis"`
	Scale  int32  `yaml:"scale"`
}

// Quote 1 Base = Rate Quote
type Quote struct {
	Base  string `yaml:"base"`
	Quote string `yaml:"quote"`
	Rate  string `yaml:"rate"`
}

// defaults for fields whose default is not the zero value.
// cleanenv only applies env-default to zero fields, so an explicit false would be lost.
func defaults() Config {
	return Config{
		Matrix: Matrix{StablecoinPegOverride: true},
	}
}

// Load reads the config file at path, or only the environment when path is empty
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("reading env: %w", err)
		}
		return &cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("reading config [%v]: %w", path, err)
	}
	return &cfg, nil
}

// MustLoad loads the config from the file named by PathEnv
func MustLoad() *Config {
	cfg, err := Load(os.Getenv(PathEnv))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// BuildAssets validates the configured assets and indexes them by symbol
func (c *Config) BuildAssets() (map[string]*domain.Asset, error) {
	assets := make(map[string]*domain.Asset, len(c.Assets))
	for _, a := range c.Assets {
		basis, err := decimal.NewFromString(a.Basis)
		if err != nil {
			return nil, fmt.Errorf("asset [%v] basis: %w", a.Symbol, err)
		}
		asset, err := domain.NewAsset(a.Symbol, basis, a.Scale)
		if err != nil {
			return nil, err
		}
		if _, ok := assets[a.Symbol]; ok {
			return nil, fmt.Errorf("asset [%v] defined twice", a.Symbol)
		}
		assets[a.Symbol] = asset
	}
	return assets, nil
}

// BuildQuotes resolves the configured quotes against assets, keeping their order
func (c *Config) BuildQuotes(assets map[string]*domain.Asset) ([]domain.Quote, error) {
	quotes := make([]domain.Quote, 0, len(c.Quotes))
	for _, q := range c.Quotes {
		base, ok := assets[q.Base]
		if !ok {
			return nil, fmt.Errorf("quote %v/%v: unknown asset %v", q.Base, q.Quote, q.Base)
		}
		quote, ok := assets[q.Quote]
		if !ok {
			return nil, fmt.Errorf("quote %v/%v: unknown asset %v", q.Base, q.Quote, q.Quote)
		}
		rate, err := decimal.NewFromString(q.Rate)
		if err != nil {
			return nil, fmt.Errorf("quote %v/%v rate: %w", q.Base, q.Quote, err)
		}
		quotes = append(quotes, domain.Quote{Base: base, Quote: quote, Rate: rate})
	}
	return quotes, nil
}
