// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
// Конфиг читается один раз при старте процесса; горячей перезагрузки нет.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	AllowedOrigin           string `yaml:"allowed_origin" env:"ALLOWED_ORIGIN"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitConnection        `yaml:"rabbit_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Stripe                  `yaml:"stripe"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"5s"`
}

// RabbitConnection структура для настройки подключения к RabbitMQ.
type RabbitConnection struct {
	AddressRabbit string        `yaml:"addressrabbit"`
	Retries       int           `yaml:"retries" env-default:"5"`
	RetryDelay    time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// JWTToken структура для работы с jwt-токеном.
// Секрет хранится в base64; TTL задаётся длительностью
// (конфиг вида "3600000ms" совместим с миллисекундами исходной системы).
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"1h"`
}

// Stripe структура для доступа к платёжному шлюзу.
type Stripe struct {
	SecretKey string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	ReturnURL string `yaml:"return_url" env-default:"https://www.example.com"`
}

// MustLoad функция для загрузки конфига из файла по пути CONFIG_PATH.
// Завершает процесс, если файл отсутствует или не читается.
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
