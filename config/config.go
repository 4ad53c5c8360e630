package config

import (
	"strings"
	"time"

	"github.com/DomeLiquid/paylink/core"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type (
	AssetFees struct {
		BaseFee      uint64 `mapstructure:"base_fee"`
		WithdrawRate string `mapstructure:"withdraw_rate"`
	}

	AssetGuard struct {
		NetworkFee   uint64 `mapstructure:"network_fee"`
		SafetyBuffer uint64 `mapstructure:"safety_buffer"`
	}

	Config struct {
		Server struct {
			Port    int    `mapstructure:"port"`
			BaseURL string `mapstructure:"base_url"`
		} `mapstructure:"server"`

		Database struct {
			Driver string `mapstructure:"driver"`
			DSN    string `mapstructure:"dsn"`
			Debug  bool   `mapstructure:"debug"`
		} `mapstructure:"database"`

		Log struct {
			Level  string `mapstructure:"level"`
			Pretty bool   `mapstructure:"pretty"`
		} `mapstructure:"log"`

		Solana struct {
			RPCURL          string `mapstructure:"rpc_url"`
			OperatorAddress string `mapstructure:"operator_address"`
		} `mapstructure:"solana"`

		Vault struct {
			AppSalt    string `mapstructure:"app_salt"`
			Iterations int    `mapstructure:"iterations"`
		} `mapstructure:"vault"`

		Fees struct {
			OwnerRate string               `mapstructure:"owner_rate"`
			Assets    map[string]AssetFees `mapstructure:"assets"`
		} `mapstructure:"fees"`

		Guard map[string]AssetGuard `mapstructure:"guard"`

		Auth struct {
			JWTSecret string        `mapstructure:"jwt_secret"`
			TokenTTL  time.Duration `mapstructure:"token_ttl"`
		} `mapstructure:"auth"`
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "paylink.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	v.SetDefault("database.debug", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.operator_address", "")
	v.SetDefault("vault.app_salt", "")
	v.SetDefault("vault.iterations", 100_000)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")

	defaults := core.DefaultFeeEngine()
	v.SetDefault("fees.owner_rate", defaults.OwnerRate.String())
	for t, s := range defaults.Schedules {
		key := "fees.assets." + strings.ToLower(string(t))
		v.SetDefault(key+".base_fee", s.BaseFee)
		v.SetDefault(key+".withdraw_rate", s.WithdrawRate.String())
	}
	for t, p := range core.DefaultGuardParams() {
		key := "guard." + strings.ToLower(string(t))
		v.SetDefault(key+".network_fee", p.NetworkFee)
		v.SetDefault(key+".safety_buffer", p.SafetyBuffer)
	}
}

// LoadConfig reads config.yaml from path (or ./configs and . when empty) and
// lets PAYLINK_* environment variables override any key. A missing file is
// not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PAYLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

func (c *Config) FeeEngine() (*core.FeeEngine, error) {
	owner, err := decimal.NewFromString(c.Fees.OwnerRate)
	if err != nil {
		return nil, errors.Wrapf(err, "fees.owner_rate %q", c.Fees.OwnerRate)
	}
	fe := &core.FeeEngine{Schedules: map[core.AssetType]core.FeeSchedule{}, OwnerRate: owner}
	for name, f := range c.Fees.Assets {
		t, err := core.ParseAssetType(name)
		if err != nil {
			return nil, errors.Wrapf(err, "fees.assets.%s", name)
		}
		rate, err := decimal.NewFromString(f.WithdrawRate)
		if err != nil {
			return nil, errors.Wrapf(err, "fees.assets.%s.withdraw_rate %q", name, f.WithdrawRate)
		}
		fe.Schedules[t] = core.FeeSchedule{BaseFee: f.BaseFee, WithdrawRate: rate}
	}
	if err := fe.Validate(); err != nil {
		return nil, err
	}
	return fe, nil
}

func (c *Config) GuardParams() (map[core.AssetType]core.GuardParams, error) {
	params := make(map[core.AssetType]core.GuardParams, len(c.Guard))
	for name, g := range c.Guard {
		t, err := core.ParseAssetType(name)
		if err != nil {
			return nil, errors.Wrapf(err, "guard.%s", name)
		}
		params[t] = core.GuardParams{NetworkFee: g.NetworkFee, SafetyBuffer: g.SafetyBuffer}
	}
	return params, nil
}
