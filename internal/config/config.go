// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	Timezone                string `yaml:"timezone" env:"TIMEZONE" env-default:"America/Sao_Paulo"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	SMTP                    `yaml:"smtp"`
	RabbitMQ                `yaml:"rabbitmq"`
	PaymentGateway          `yaml:"payment_gateway"`
	WhatsApp                `yaml:"whatsapp"`
	ProofAI                 `yaml:"proof_ai"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:"0.0.0.0:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// SMTP структура для настройки исходящей почты
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// RabbitMQ структура для настройки подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"10"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// PaymentGateway структура для настройки платёжного шлюза PIX.
// WebhookSecret может быть пустым: тогда подпись входящих вебхуков
// не проверяется (осознанный, но рискованный дефолт).
type PaymentGateway struct {
	GatewayAPIURL    string `yaml:"api_url" env:"GATEWAY_API_URL"`
	GatewayAPIKey    string `yaml:"api_key" env:"GATEWAY_API_KEY"`
	WebhookSecret    string `yaml:"webhook_secret" env:"GATEWAY_WEBHOOK_SECRET"`
	GatewayReturnURL string `yaml:"return_url" env:"GATEWAY_RETURN_URL"`
}

// WhatsApp структура для настройки шлюза WhatsApp-уведомлений.
// Пустой URL полностью отключает канал.
type WhatsApp struct {
	WhatsAppAPIURL   string `yaml:"api_url" env:"WHATSAPP_API_URL"`
	WhatsAppAPIKey   string `yaml:"api_key" env:"WHATSAPP_API_KEY"`
	WhatsAppInstance string `yaml:"instance" env:"WHATSAPP_INSTANCE"`
}

// ProofAI структура для настройки модели, анализирующей чеки об оплате
type ProofAI struct {
	ProofAIModel string `yaml:"model" env:"PROOF_AI_MODEL" env-default:"gemini-2.5-flash"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, прочитанный из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// Location возвращает референсный часовой пояс приложения.
// Все календарные даты (начало и конец подписки, проверки истечения)
// вычисляются именно в нём.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
