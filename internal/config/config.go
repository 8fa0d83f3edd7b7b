package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const defaultPath = "."

// Configはアプリ全体の設定
type Config struct {
	Env struct {
		Name        string `json:"name" yaml:"name"` // dev/prod
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port        int      `json:"port" yaml:"port"`
		CORSOrigins []string `json:"corsOrigins" yaml:"corsOrigins"`
		//cookieのSecure属性
		CookieSecure bool `json:"cookieSecure" yaml:"cookieSecure"`
		Timeouts     struct {
			ReadTimeout     time.Duration `json:"readTimeout" yaml:"readTimeout"`
			WriteTimeout    time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres Postgres `json:"postgres" yaml:"postgres"`

	Redis Redis `json:"redis" yaml:"redis"`

	JWT struct {
		Secret    string        `json:"secret" yaml:"secret"`
		AccessTTL time.Duration `json:"accessTTL" yaml:"accessTTL"`
	} `json:"jwt" yaml:"jwt"`

	Auth struct {
		BcryptCost int `json:"bcryptCost" yaml:"bcryptCost"`
	} `json:"auth" yaml:"auth"`

	Payment Payment `json:"payment" yaml:"payment"`

	Pricing Pricing `json:"pricing" yaml:"pricing"`

	Kafka Kafka `json:"kafka" yaml:"kafka"`

	RateLimit struct {
		RPS   float64 `json:"rps" yaml:"rps"`
		Burst int     `json:"burst" yaml:"burst"`
	} `json:"rateLimit" yaml:"rateLimit"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

type Postgres struct {
	// DSN があれば最優先で使う
	DSN      string `json:"dsn" yaml:"dsn"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	DB       string `json:"db" yaml:"db"`
	SSLMode  string `json:"sslMode" yaml:"sslMode"`
	//起動時にAutoMigrateする
	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate"`
}

type Redis struct {
	//空ならメモリのカートストアを使う
	Addr     string        `json:"addr" yaml:"addr"`
	Password string        `json:"password" yaml:"password"`
	DB       int           `json:"db" yaml:"db"`
	CartTTL  time.Duration `json:"cartTTL" yaml:"cartTTL"`
}

type Payment struct {
	Enabled       bool          `json:"enabled" yaml:"enabled"`
	KeyID         string        `json:"keyId" yaml:"keyId"`
	KeySecret     string        `json:"keySecret" yaml:"keySecret"`
	WebhookSecret string        `json:"webhookSecret" yaml:"webhookSecret"`
	BaseURL       string        `json:"baseUrl" yaml:"baseUrl"`
	Currency      string        `json:"currency" yaml:"currency"`
	Timeout       time.Duration `json:"timeout" yaml:"timeout"`
}

type Pricing struct {
	DeliveryFee       decimal.Decimal `json:"deliveryFee" yaml:"deliveryFee"`
	FreeDeliveryAbove decimal.Decimal `json:"freeDeliveryAbove" yaml:"freeDeliveryAbove"`
}

type Kafka struct {
	//空ならイベントは送らない
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

// LoadWithEnv は yaml を読んでから環境変数で上書きする。
func LoadWithEnv[T any](name string, configPath ...string) (*T, error) {
	cfg := new(T)
	k := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	for _, path := range searchPaths {
		candidate := filepath.Join(path, name+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			break
		}
	}
	if configFile == "" {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", name)
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", name)
	}

	existing := k.Raw()

	// POSTGRES_SSLMODE -> postgres.sslMode
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, v string) (string, any) {
			return canonicalizeEnvKey(key, existing), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				stringToDecimalHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", name)
	}

	return cfg, nil
}

// New は .env（あれば）→ config/config.yaml → 環境変数 の順で読む
func New() (*Config, error) {
	//.envは無くてもよい
	_ = godotenv.Load(".env", "../.env")

	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.Timeouts.ShutdownTimeout == 0 {
		c.HTTP.Timeouts.ShutdownTimeout = 10 * time.Second
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 15 * time.Minute
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 12
	}
	if c.Redis.CartTTL == 0 {
		c.Redis.CartTTL = 7 * 24 * time.Hour
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "INR"
	}
	if c.Payment.Timeout == 0 {
		c.Payment.Timeout = 10 * time.Second
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "orders"
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}
}

// 必須チェック
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.DB == "") {
		return errors.New("postgres.dsn or postgres.host/user/db is required")
	}
	if c.Payment.Enabled {
		if c.Payment.KeyID == "" || c.Payment.KeySecret == "" {
			return errors.New("payment.keyId and payment.keySecret are required")
		}
		if c.Payment.WebhookSecret == "" {
			return errors.New("payment.webhookSecret is required")
		}
	}
	if c.Pricing.DeliveryFee.IsNegative() || c.Pricing.FreeDeliveryAbove.IsNegative() {
		return errors.New("pricing must not be negative")
	}
	return nil
}

func stringToDecimalHookFunc() mapstructure.DecodeHookFuncType {
	target := decimal.Decimal{}
	return func(from, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(target) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return decimal.Zero, nil
			}
			return decimal.NewFromString(strings.TrimSpace(v))
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		case float64:
			return decimal.NewFromFloat(v), nil
		}
		return data, nil
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (string, map[string]any, bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}
		child, _ := value.(map[string]any)
		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
