package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/tierbot/internal/strategy"
)

// Config es la configuración completa del bot.
type Config struct {
	Strategy StrategyConfig `yaml:"strategy"`
	Backtest BacktestConfig `yaml:"backtest"`
	Live     LiveConfig     `yaml:"live"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`

	// Credenciales — solo desde variables de entorno, nunca del YAML.
	PrivateKey     string `yaml:"-"`
	APIKey         string `yaml:"-"`
	APISecret      string `yaml:"-"`
	APIPassphrase  string `yaml:"-"`
}

// StrategyConfig expone los parámetros ajustables de la estrategia.
// Los que se dejen a cero toman el valor del parameter set por defecto.
type StrategyConfig struct {
	TakeProfitPrice        float64 `yaml:"take_profit_price"`
	ReboundMargin          float64 `yaml:"rebound_margin"`
	TakerFeeRate           float64 `yaml:"taker_fee_rate"`
	MaxConcurrentPositions int     `yaml:"max_concurrent_positions"`
	MaxSameCategory        int     `yaml:"max_same_category"`
	PositionSizeUSDC       float64 `yaml:"position_size_usdc"`
}

// BacktestConfig controla el modo replay.
type BacktestConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	MinVolume      float64 `yaml:"min_volume"`
	CacheDir       string  `yaml:"cache_dir"`
}

// LiveConfig controla el modo live.
type LiveConfig struct {
	InitialCapital      float64 `yaml:"initial_capital"`
	MinVolume           float64 `yaml:"min_volume"`
	ScanIntervalSeconds int     `yaml:"scan_interval_seconds"`
	PollIntervalSeconds int     `yaml:"poll_interval_seconds"`
	MaxLossUSD          float64 `yaml:"max_loss_usd"`
	MaxLossPct          float64 `yaml:"max_loss_pct"`
	MaxConsecutiveLoss  int     `yaml:"max_consecutive_losses"`
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un path vacío (o inexistente) arranca con todos los defaults — el bot
// funciona sin archivo de configuración.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// StrategyParams construye el Config de estrategia aplicando los overrides
// del YAML sobre el parameter set por defecto.
func (c *Config) StrategyParams() strategy.Config {
	params := strategy.Default()

	if c.Strategy.TakeProfitPrice > 0 {
		params.TakeProfitPrice = c.Strategy.TakeProfitPrice
	}
	if c.Strategy.ReboundMargin > 0 {
		params.ReboundMargin = c.Strategy.ReboundMargin
	}
	if c.Strategy.TakerFeeRate > 0 {
		params.TakerFeeRate = c.Strategy.TakerFeeRate
	}
	if c.Strategy.MaxConcurrentPositions > 0 {
		params.MaxConcurrentPositions = c.Strategy.MaxConcurrentPositions
	}
	if c.Strategy.MaxSameCategory > 0 {
		params.MaxSameCategory = c.Strategy.MaxSameCategory
	}
	if c.Strategy.PositionSizeUSDC > 0 {
		for i := range params.Tiers {
			params.Tiers[i].PositionSize = c.Strategy.PositionSizeUSDC
		}
	}

	return params
}

// ScanInterval devuelve el intervalo del scanner live.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Live.ScanIntervalSeconds) * time.Second
}

// PollInterval devuelve el intervalo del monitor live.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Live.PollIntervalSeconds) * time.Second
}

// HasTradingCreds indica si hay credenciales para operar en real.
// Basta la private key — las API creds se derivan por L1 si faltan.
func (c *Config) HasTradingCreds() bool {
	return c.PrivateKey != ""
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	cfg.PrivateKey = os.Getenv("POLY_PRIVATE_KEY")
	cfg.APIKey = os.Getenv("POLY_API_KEY")
	cfg.APISecret = os.Getenv("POLY_API_SECRET")
	cfg.APIPassphrase = os.Getenv("POLY_API_PASSPHRASE")
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Backtest.InitialCapital <= 0 {
		cfg.Backtest.InitialCapital = 10_000
	}
	if cfg.Backtest.MinVolume <= 0 {
		cfg.Backtest.MinVolume = 5_000
	}
	if cfg.Backtest.CacheDir == "" {
		cfg.Backtest.CacheDir = "data/cache"
	}
	if cfg.Live.InitialCapital <= 0 {
		cfg.Live.InitialCapital = 10_000
	}
	if cfg.Live.MinVolume <= 0 {
		cfg.Live.MinVolume = 5_000
	}
	if cfg.Live.ScanIntervalSeconds <= 0 {
		cfg.Live.ScanIntervalSeconds = 300
	}
	if cfg.Live.PollIntervalSeconds <= 0 {
		cfg.Live.PollIntervalSeconds = 60
	}
	if cfg.Live.MaxLossUSD <= 0 {
		cfg.Live.MaxLossUSD = 500
	}
	if cfg.Live.MaxLossPct <= 0 {
		cfg.Live.MaxLossPct = 0.10
	}
	if cfg.Live.MaxConsecutiveLoss <= 0 {
		cfg.Live.MaxConsecutiveLoss = 10
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "tierbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
