package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de polyedge.
type Config struct {
	Scanner   ScannerConfig   `yaml:"scanner"`
	Model     PluginConfig    `yaml:"model"`
	Sizer     PluginConfig    `yaml:"sizer"`
	Costs     CostsConfig     `yaml:"costs"`
	Gate      GateConfig      `yaml:"gate"`
	Execution ExecutionConfig `yaml:"execution"`
	Reference ReferenceConfig `yaml:"reference"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Events    EventsConfig    `yaml:"events"`
	Log       LogConfig       `yaml:"log"`
}

// ScannerConfig controla qué mercados entran en cada ciclo y cada cuánto.
type ScannerConfig struct {
	IntervalSeconds        int      `yaml:"interval_seconds"` // 0 = un solo ciclo
	MaxCycles              int      `yaml:"max_cycles"`
	Limit                  int      `yaml:"limit"`
	Query                  string   `yaml:"query"`
	CryptoTerms            []string `yaml:"crypto_terms"`
	MinLiquidityUSD        float64  `yaml:"min_liquidity_usd"`
	MinVolumeUSD           float64  `yaml:"min_volume_usd"`
	RequireAcceptingOrders bool     `yaml:"require_accepting_orders"`
	RequireOrderBook       bool     `yaml:"require_orderbook"`
	MinHoursToResolution   float64  `yaml:"min_hours_to_resolution"`
	TopN                   int      `yaml:"top_n"`
	ExperimentTag          string   `yaml:"experiment_tag"`
	Label                  string   `yaml:"label"`
}

// PluginConfig selecciona un modelo o sizer por nombre con sus parámetros.
// Name acepta un builtin o "ruta/al/plugin.so:Simbolo".
type PluginConfig struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
}

// CostsConfig son los costes que se restan del edge bruto.
type CostsConfig struct {
	FeeBps      float64 `yaml:"fee_bps"`
	SlippageBps float64 `yaml:"slippage_bps"`
	GasUSD      float64 `yaml:"gas_usd"`
}

// GateConfig controla persistencia y cooldown de señales.
type GateConfig struct {
	Threshold         float64 `yaml:"threshold"`
	MinPersistRuns    int     `yaml:"min_persist_runs"`
	CooldownRuns      int     `yaml:"signal_cooldown_runs"`
	MinImprovementBps float64 `yaml:"min_improvement_bps"`
}

// ExecutionConfig controla el modo de ejecución y el bankroll.
// Live exige execute_live y confirm_live a la vez.
type ExecutionConfig struct {
	ExecuteLive      bool    `yaml:"execute_live"`
	ConfirmLive      bool    `yaml:"confirm_live"`
	PaperOnly        bool    `yaml:"paper_only"`
	LiveOrderUSD     float64 `yaml:"live_order_usd"`
	MaxPaperOrderUSD float64 `yaml:"max_paper_order_usd"`
	BankrollUSD      float64 `yaml:"bankroll_usd"`
	PrivateKey       string  `yaml:"-"` // solo desde POLYEDGE_PRIVATE_KEY
	// PolygonRPC se usa para comprobar saldo y allowance de USDC.e antes de operar live.
	PolygonRPC string `yaml:"polygon_rpc"`
	// SkipFundsCheck desactiva esa comprobación.
	SkipFundsCheck bool `yaml:"skip_funds_check"`
}

// ReferenceConfig controla las fuentes del subyacente.
type ReferenceConfig struct {
	Symbol       string  `yaml:"symbol"`
	KrakenBase   string  `yaml:"kraken_base"`
	KrakenPair   string  `yaml:"kraken_pair"`
	BybitBase    string  `yaml:"bybit_base"`
	BybitSymbol  string  `yaml:"bybit_symbol"`
	UseBybit     bool    `yaml:"use_bybit"`
	CandleWindow int     `yaml:"candle_window"`
	VolFloor     float64 `yaml:"vol_floor"`
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	CLOBBase       string `yaml:"clob_base"`
	GammaBase      string `yaml:"gamma_base"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// EventsConfig controla el log JSONL de decisiones y su rotación.
type EventsConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// ConfigError es un valor de configuración inválido.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Default devuelve la configuración por defecto. Load decodifica el YAML
// encima, así que las claves ausentes conservan estos valores.
func Default() Config {
	return Config{
		Scanner: ScannerConfig{
			Limit:                  50,
			Query:                  "bitcoin",
			CryptoTerms:            []string{"bitcoin", "btc", "ethereum", "eth", "solana", "sol", "crypto", "binance", "coinbase"},
			MinLiquidityUSD:        50_000,
			MinVolumeUSD:           100_000,
			RequireAcceptingOrders: true,
			RequireOrderBook:       true,
			TopN:                   5,
		},
		Model: PluginConfig{Name: "kelly_gbm", Params: map[string]float64{}},
		Sizer: PluginConfig{Name: "kelly", Params: map[string]float64{"fraction": 0.25}},
		Costs: CostsConfig{
			FeeBps:      0,
			SlippageBps: 20,
			GasUSD:      0.02,
		},
		Gate: GateConfig{
			Threshold:         0.012,
			MinPersistRuns:    2,
			CooldownRuns:      5,
			MinImprovementBps: 25,
		},
		Execution: ExecutionConfig{
			LiveOrderUSD:     domain.MaxLiveOrderUSD,
			MaxPaperOrderUSD: 100,
			BankrollUSD:      10_000,
			PolygonRPC:       "https://polygon-rpc.com",
		},
		Reference: ReferenceConfig{
			Symbol:       "BTCUSD",
			KrakenPair:   "XBTUSD",
			BybitSymbol:  "BTCUSDT",
			UseBybit:     true,
			CandleWindow: 240,
			VolFloor:     0.05,
		},
		Events: EventsConfig{
			Path:       "spread_monitor.log.jsonl",
			MaxSizeMB:  50,
			MaxBackups: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un path vacío usa solo los defaults y el entorno. Las variables de entorno
// sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// APITimeout devuelve el timeout por request HTTP.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Live devuelve true si la config pide ejecución real.
func (c *Config) Live() bool {
	return c.Execution.ExecuteLive && !c.Execution.PaperOnly
}

// ForcePaper apaga los dos interruptores de live.
func (c *Config) ForcePaper() {
	c.Execution.PaperOnly = true
	c.Execution.ExecuteLive = false
	c.Execution.ConfirmLive = false
}

// Validate comprueba los límites de seguridad y los rangos de los parámetros.
func (c *Config) Validate() error {
	switch {
	case c.Execution.LiveOrderUSD > domain.MaxLiveOrderUSD:
		return &ConfigError{"execution.live_order_usd", fmt.Errorf("%.2f exceeds hard cap %.2f", c.Execution.LiveOrderUSD, domain.MaxLiveOrderUSD)}
	case c.Execution.LiveOrderUSD <= 0:
		return &ConfigError{"execution.live_order_usd", errors.New("must be positive")}
	case c.Execution.PaperOnly && c.Execution.ExecuteLive:
		return &ConfigError{"execution.paper_only", errors.New("paper_only blocks execute_live")}
	case c.Execution.BankrollUSD <= 0:
		return &ConfigError{"execution.bankroll_usd", errors.New("must be positive")}
	case c.Gate.Threshold <= 0:
		return &ConfigError{"gate.threshold", errors.New("must be positive")}
	case c.Gate.MinPersistRuns < 1:
		return &ConfigError{"gate.min_persist_runs", errors.New("must be >= 1")}
	case c.Gate.CooldownRuns < 0:
		return &ConfigError{"gate.signal_cooldown_runs", errors.New("must be >= 0")}
	case c.Gate.MinImprovementBps < 0:
		return &ConfigError{"gate.min_improvement_bps", errors.New("must be >= 0")}
	case c.Costs.FeeBps < 0 || c.Costs.SlippageBps < 0 || c.Costs.GasUSD < 0:
		return &ConfigError{"costs", errors.New("costs must be >= 0")}
	}
	if f, ok := c.Sizer.Params["fraction"]; ok && (f < 0 || f > 1) {
		return &ConfigError{"sizer.params.fraction", fmt.Errorf("%.4f not in [0, 1]", f)}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{"log.level", fmt.Errorf("unknown level %q", c.Log.Level)}
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLYEDGE_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("POLYEDGE_EVENT_LOG"); v != "" {
		cfg.Events.Path = v
	}
	if v := os.Getenv("POLYEDGE_PRIVATE_KEY"); v != "" {
		cfg.Execution.PrivateKey = v
	}
	if v := os.Getenv("POLYGON_RPC_URL"); v != "" {
		cfg.Execution.PolygonRPC = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds < 0 {
		cfg.Scanner.IntervalSeconds = 0
	}
	if cfg.Scanner.Limit <= 0 {
		cfg.Scanner.Limit = 50
	}
	if cfg.Scanner.TopN <= 0 {
		cfg.Scanner.TopN = 5
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = "kelly_gbm"
	}
	if cfg.Sizer.Name == "" {
		cfg.Sizer.Name = "kelly"
	}
	if cfg.Reference.CandleWindow < 2 {
		cfg.Reference.CandleWindow = 240
	}
	if cfg.Reference.VolFloor <= 0 {
		cfg.Reference.VolFloor = 0.05
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 10
	}
	if cfg.API.MaxRetries <= 0 {
		cfg.API.MaxRetries = 3
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyedge.db"
	}
	if cfg.Events.Path == "" {
		cfg.Events.Path = "spread_monitor.log.jsonl"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
