package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
		PingTimeout     time.Duration `koanf:"ping_timeout"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Discord struct {
		Token          string        `koanf:"token"`
		CommandTimeout time.Duration `koanf:"command_timeout"`
	} `koanf:"discord"`

	Stripe struct {
		SecretKey string `koanf:"secret_key"`
	} `koanf:"stripe"`

	Checkout struct {
		Currency   string        `koanf:"currency"`
		SuccessURL string        `koanf:"success_url"`
		CancelURL  string        `koanf:"cancel_url"`
		LockTTL    time.Duration `koanf:"lock_ttl"`
	} `koanf:"checkout"`

	Delivery struct {
		BaseURL    string        `koanf:"base_url"`
		SignSecret string        `koanf:"sign_secret"`
		LinkTTL    time.Duration `koanf:"link_ttl"`
		FilesDir   string        `koanf:"files_dir"`
	} `koanf:"delivery"`

	Rabbit struct {
		URL      string `koanf:"url"`
		Exchange string `koanf:"exchange"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
		GroupID string   `koanf:"group_id"`
	} `koanf:"kafka"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix EBOOKBOT_, nested with __)
	// e.g. EBOOKBOT_MYSQL__DSN, EBOOKBOT_DISCORD__TOKEN, EBOOKBOT_STRIPE__SECRET_KEY
	if err := k.Load(env.Provider("EBOOKBOT_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "EBOOKBOT_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token required")
	}
	if c.Stripe.SecretKey == "" {
		return fmt.Errorf("stripe.secret_key required")
	}
	if c.Delivery.SignSecret == "" {
		return fmt.Errorf("delivery.sign_secret required")
	}
	return nil
}
