package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/internal/service/strategy"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const EnvPrefix = "PERP"

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Network  NetworkConfig  `mapstructure:"network"`
	Cex      CexConfig      `mapstructure:"cex"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Reports  []ReportConfig `mapstructure:"reports" validate:"dive"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" default:"json" validate:"oneof=json console"`
}

type NetworkConfig struct {
	Proxy string `mapstructure:"proxy" validate:"omitempty,url"`
}

type CexConfig struct {
	Binance BinanceConfig `mapstructure:"binance"`
	OKX     OKXConfig     `mapstructure:"okx"`
}

type BinanceConfig struct {
	ApiKey    string `mapstructure:"api_key"`
	ApiSecret string `mapstructure:"api_secret"`
	BaseURL   string `mapstructure:"base_url" validate:"omitempty,url"`
}

type OKXConfig struct {
	ApiKey     string `mapstructure:"api_key"`
	ApiSecret  string `mapstructure:"api_secret"`
	Passphrase string `mapstructure:"passphrase"`
	BaseURL    string `mapstructure:"base_url" default:"https://www.okx.com" validate:"url"`
}

// Signed 三项齐全才签名
func (c OKXConfig) Signed() bool {
	return c.ApiKey != "" && c.ApiSecret != "" && c.Passphrase != ""
}

type TelegramConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Token      string        `mapstructure:"token" validate:"required_if=Enabled true"`
	ChatID     int64         `mapstructure:"chat_id" validate:"required_if=Enabled true"`
	MaxLength  int           `mapstructure:"max_length" default:"4000" validate:"gt=0"`
	ChunkSize  int           `mapstructure:"chunk_size" default:"3000" validate:"gt=0,ltefield=MaxLength"`
	ChunkDelay time.Duration `mapstructure:"chunk_delay" default:"100ms"`
}

type MonitorConfig struct {
	BatchSize      int           `mapstructure:"batch_size" default:"5" validate:"gt=0"`
	BatchPause     time.Duration `mapstructure:"batch_pause" default:"500ms"`
	CallTimeout    time.Duration `mapstructure:"call_timeout" default:"10s" validate:"gt=0"`
	CycleTimeout   time.Duration `mapstructure:"cycle_timeout" default:"10m" validate:"gt=0"`
	MinQuoteVolume float64       `mapstructure:"min_quote_volume" default:"100000000" validate:"gte=0"`
	Exclude        []string      `mapstructure:"exclude" default:"[\"USDC\"]"`
	Lock           string        `mapstructure:"lock" default:"memory" validate:"oneof=memory redis"`
	Timezone       string        `mapstructure:"timezone" default:"Local"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" default:"127.0.0.1:6379"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl" default:"15m"`
}

type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" default:":9090"`
}

// ReportConfig 一条流水线: 数据源 + 调度 + 规则
type ReportConfig struct {
	Name            string          `mapstructure:"name" validate:"required"`
	Exchange        string          `mapstructure:"exchange" validate:"required,oneof=binance okx"`
	Label           string          `mapstructure:"label"`
	Schedule        string          `mapstructure:"schedule" validate:"required"`
	RunOnStart      bool            `mapstructure:"run_on_start"`
	KlineInterval   string          `mapstructure:"kline_interval" default:"4h"`
	KlineLimit      int             `mapstructure:"kline_limit" default:"1" validate:"gt=0"`
	LongShortPeriod string          `mapstructure:"long_short_period" default:"5m"`
	EMAPeriod       int             `mapstructure:"ema_period" default:"120" validate:"gt=0"`
	ATRPeriod       int             `mapstructure:"atr_period" default:"14" validate:"gt=0"`
	Rules           []strategy.Rule `mapstructure:"rules" validate:"required,min=1,dive"`
}

func (r ReportConfig) Interval() exchange.Interval {
	return exchange.Interval(r.KlineInterval)
}

func (r ReportConfig) Period() exchange.Interval {
	return exchange.Interval(r.LongShortPeriod)
}

// DefaultReports 币安日线趋势摘要 + OKX 4小时异常提醒, 启动时各跑一次再按 cron 执行
func DefaultReports() []ReportConfig {
	return []ReportConfig{
		{
			Name:            "binance-trend",
			Exchange:        "binance",
			Schedule:        "50 7 * * *",
			RunOnStart:      true,
			KlineInterval:   string(exchange.Interval1d),
			KlineLimit:      241,
			LongShortPeriod: string(exchange.Interval5m),
			EMAPeriod:       120,
			ATRPeriod:       14,
			Rules:           strategy.DefaultTrendRules(),
		},
		{
			Name:            "okx-anomaly",
			Exchange:        "okx",
			Label:           "OKX",
			Schedule:        "55 3,7,11,15,19,23 * * *",
			RunOnStart:      true,
			KlineInterval:   string(exchange.Interval4h),
			KlineLimit:      1,
			LongShortPeriod: string(exchange.Interval5m),
			EMAPeriod:       120,
			ATRPeriod:       14,
			Rules:           strategy.DefaultAnomalyRules(),
		},
	}
}

// 只有写进 viper 的 key 才会被 AutomaticEnv 覆盖, 密钥类配置显式绑定
var envKeys = []string{
	"log.level",
	"network.proxy",
	"cex.binance.api_key",
	"cex.binance.api_secret",
	"cex.okx.api_key",
	"cex.okx.api_secret",
	"cex.okx.passphrase",
	"telegram.enabled",
	"telegram.token",
	"telegram.chat_id",
	"redis.addr",
	"redis.password",
	"monitor.lock",
}

// Load 读取配置文件, 环境变量 PERP_XXX_YYY 覆盖 xxx.yyy
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.Reports) == 0 {
		cfg.Reports = DefaultReports()
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("set config defaults: %w", err)
	}
	for i := range cfg.Reports {
		if err := defaults.Set(&cfg.Reports[i]); err != nil {
			return nil, fmt.Errorf("set report defaults: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if dup := lo.FindDuplicatesBy(c.Reports, func(item ReportConfig) string { return item.Name }); len(dup) > 0 {
		return fmt.Errorf("invalid config: duplicate report %q", dup[0].Name)
	}
	for _, r := range c.Reports {
		if _, err := cron.ParseStandard(r.Schedule); err != nil {
			return fmt.Errorf("report %s: schedule %q: %w", r.Name, r.Schedule, err)
		}
		if r.Interval().Duration() <= 0 {
			return fmt.Errorf("report %s: unsupported kline interval %q", r.Name, r.KlineInterval)
		}
		if r.Period().Duration() <= 0 {
			return fmt.Errorf("report %s: unsupported long/short period %q", r.Name, r.LongShortPeriod)
		}
		for _, rule := range r.Rules {
			if err := rule.Validate(); err != nil {
				return fmt.Errorf("report %s: %w", r.Name, err)
			}
		}
	}
	if c.Monitor.Lock == "redis" {
		if c.Redis.Addr == "" {
			return fmt.Errorf("invalid config: redis lock needs redis.addr")
		}
		// 锁在周期结束前过期会让另一实例并发跑同一交易所
		if c.Redis.LockTTL < c.Monitor.CycleTimeout {
			return fmt.Errorf("invalid config: redis.lock_ttl %s shorter than monitor.cycle_timeout %s",
				c.Redis.LockTTL, c.Monitor.CycleTimeout)
		}
	}
	return nil
}
