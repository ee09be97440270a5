package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppCfg struct{ Env, Port, BaseURL, FrontendURL string }
type DBCfg struct{ DSN string }
type RedisCfg struct{ Addr string }

// MercadoPagoCfg carries the marketplace application credentials plus the
// platform-level access token used as a fallback when a webhook arrives for a
// payment we cannot yet attribute to a professional.
type MercadoPagoCfg struct {
	AppID               string
	ClientSecret        string
	RedirectURI         string
	PlatformAccessToken string
	BaseURL             string
	AuthBaseURL         string
}

type SecurityCfg struct {
	RateLimitPerMin int
}

type Cfg struct {
	App   AppCfg
	DB    DBCfg
	Redis RedisCfg
	MP    MercadoPagoCfg
	Sec   SecurityCfg
}

func Load() Cfg {
	// 1) Load .env into process env (if file exists)
	_ = godotenv.Load()

	// 2) Read from env via viper
	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", "sandbox")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("RATE_LIMIT_PER_MIN", 300)
	viper.SetDefault("MP_API_BASE_URL", "https://api.mercadopago.com")
	viper.SetDefault("MP_AUTH_BASE_URL", "https://auth.mercadopago.com")

	cfg := Cfg{
		App: AppCfg{
			Env:         viper.GetString("APP_ENV"),
			Port:        viper.GetString("APP_PORT"),
			BaseURL:     viper.GetString("APP_BASE_URL"),
			FrontendURL: viper.GetString("FRONTEND_URL"),
		},
		DB:    DBCfg{DSN: viper.GetString("DB_DSN")},
		Redis: RedisCfg{Addr: viper.GetString("REDIS_ADDR")},
		MP: MercadoPagoCfg{
			AppID:               strings.TrimSpace(viper.GetString("MP_APP_ID")),
			ClientSecret:        strings.TrimSpace(viper.GetString("MP_CLIENT_SECRET")),
			RedirectURI:         strings.TrimSpace(viper.GetString("MP_REDIRECT_URI")),
			PlatformAccessToken: strings.TrimSpace(viper.GetString("MP_PLATFORM_ACCESS_TOKEN")),
			BaseURL:             viper.GetString("MP_API_BASE_URL"),
			AuthBaseURL:         viper.GetString("MP_AUTH_BASE_URL"),
		},
		Sec: SecurityCfg{
			RateLimitPerMin: viper.GetInt("RATE_LIMIT_PER_MIN"),
		},
	}

	// 3) Fail fast on required settings
	if cfg.DB.DSN == "" {
		log.Fatal().Msg("DB_DSN is required")
	}
	if cfg.MP.AppID == "" || cfg.MP.ClientSecret == "" {
		log.Fatal().Msg("MP_APP_ID and MP_CLIENT_SECRET are required")
	}
	if cfg.MP.RedirectURI == "" {
		log.Fatal().Msg("MP_REDIRECT_URI is required")
	}

	return cfg
}
