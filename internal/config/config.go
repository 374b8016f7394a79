package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

// ZaloPay holds gateway credentials and endpoints. Key1 signs outbound
// requests, Key2 verifies inbound callbacks.
type ZaloPay struct {
	AppID               int
	Key1                string
	Key2                string
	CreateEndpoint      string
	RefundEndpoint      string
	QueryEndpoint       string
	RefundQueryEndpoint string
	CallbackURL         string
	Timeout             time.Duration
}

type Config struct {
	MongoURI     string
	DBName       string
	JWTSecret    string
	DeliveryFee  int64
	RedisAddr    string
	AMQPURL      string
	AMQPExchange string
	ZaloPay      ZaloPay
}

func Load() {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not loaded", "error", err)
	}
	AppEnv = Config{
		MongoURI:     getEnvOrDefault("MONGO_URI", ""),
		DBName:       getEnvOrDefault("DB_NAME", "shopdb"),
		JWTSecret:    getEnvOrDefault("JWT_SECRET", ""),
		DeliveryFee:  getInt64Env("DELIVERY_FEE", 20000),
		RedisAddr:    getEnvOrDefault("REDIS_ADDR", ""),
		AMQPURL:      getEnvOrDefault("AMQP_URL", ""),
		AMQPExchange: getEnvOrDefault("AMQP_EXCHANGE", "shop.events"),
		ZaloPay: ZaloPay{
			AppID:               int(getInt64Env("ZALOPAY_APP_ID", 0)),
			Key1:                getEnvOrDefault("ZALOPAY_KEY1", ""),
			Key2:                getEnvOrDefault("ZALOPAY_KEY2", ""),
			CreateEndpoint:      getEnvOrDefault("ZALOPAY_CREATE_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/create"),
			RefundEndpoint:      getEnvOrDefault("ZALOPAY_REFUND_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/refund"),
			QueryEndpoint:       getEnvOrDefault("ZALOPAY_QUERY_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/query"),
			RefundQueryEndpoint: getEnvOrDefault("ZALOPAY_REFUND_QUERY_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/query_refund"),
			CallbackURL:         getEnvOrDefault("ZALOPAY_CALLBACK_URL", ""),
			Timeout:             getDurationEnv("ZALOPAY_TIMEOUT", 10, time.Second),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}
