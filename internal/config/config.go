package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DBPath      string `env:"DB_PATH" envDefault:"stargifty.db"`

	Telegram Telegram `envPrefix:"TELEGRAM_"`
	Market   Market   `envPrefix:"MARKET_"`
	Sniper   Sniper   `envPrefix:"SNIPER_"`
}

type Telegram struct {
	BotToken   string `env:"BOT_TOKEN,required"`
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.telegram.org"`
}

type Market struct {
	// Empty BaseApiURL selects the built-in demo market.
	BaseApiURL   string        `env:"BASE_API_URL"`
	ApiKey       string        `env:"API_KEY"`
	CallTimeout  time.Duration `env:"CALL_TIMEOUT" envDefault:"15s"`
	ListingLimit int           `env:"LISTING_LIMIT" envDefault:"10"`
}

type Sniper struct {
	ScanInterval time.Duration `env:"SCAN_INTERVAL" envDefault:"8s"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
