package config

import "os"

type Config struct {
	HTTPAddr      string
	StorageDriver string // "memory" or "mysql"
	MySQLDSN      string
	RedisAddr     string // empty disables the cache
	AMQPURL       string // empty disables event publishing
	AllowedOrigin string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() Config {
	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		StorageDriver: getenv("STORAGE_DRIVER", "memory"),
		MySQLDSN:      getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		AMQPURL:       getenv("AMQP_URL", ""),
		AllowedOrigin: getenv("ALLOWED_ORIGIN", "*"),
	}
}
