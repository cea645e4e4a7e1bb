package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/onepost/notifier/internal/persistence/mongodb"
	"github.com/samber/lo"
)

const (
	StorageDriverMemory  = "memory"
	StorageDriverMongoDB = "mongodb"
	StorageDriverMySQL   = "mysql"
)

type Settings struct {
	Port        int    `env:"PORT,default=3001"`
	BasePath    string `env:"BASE_PATH,default=/api"`
	LogEncoding string `env:"LOG_ENCODING,default=console"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	JWTSecret      string `env:"JWT_SECRET,required=true"`
	JWTAudience    string `env:"JWT_AUDIENCE"`
	APIKeys        string `env:"API_KEYS,required=true"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=*"`

	StorageDriver         string        `env:"STORAGE_DRIVER,default=memory"`
	MongoURI              string        `env:"MONGO_URI"`
	MongoDatabase         string        `env:"MONGO_DATABASE,default=onepost"`
	NotificationRetention time.Duration `env:"NOTIFICATION_RETENTION,default=720h"`
	MySQLDSN              string        `env:"MYSQL_DSN"`

	SendBufferSize int           `env:"SEND_BUFFER_SIZE,default=64"`
	PongWait       time.Duration `env:"PONG_WAIT,default=60s"`
	WriteWait      time.Duration `env:"WRITE_WAIT,default=10s"`
	MaxMessageSize int           `env:"MAX_MESSAGE_SIZE,default=4096"`
}

func (s Settings) Validate() error {
	switch s.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverMongoDB:
		if s.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORAGE_DRIVER=%s", s.StorageDriver)
		}

		if err := mongodb.ValidateRetention(s.NotificationRetention); err != nil {
			return fmt.Errorf("NOTIFICATION_RETENTION: %w", err)
		}
	case StorageDriverMySQL:
		if s.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required when STORAGE_DRIVER=%s", s.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", s.StorageDriver)
	}

	if len(s.APIKeyList()) == 0 {
		return fmt.Errorf("API_KEYS must contain at least one key")
	}

	if s.SendBufferSize <= 0 {
		return fmt.Errorf("SEND_BUFFER_SIZE must be positive")
	}

	if s.PongWait <= 0 || s.WriteWait <= 0 {
		return fmt.Errorf("PONG_WAIT and WRITE_WAIT must be positive")
	}

	return nil
}

func (s Settings) APIKeyList() []string {
	return splitList(s.APIKeys)
}

func (s Settings) AllowedOriginList() []string {
	return splitList(s.AllowedOrigins)
}

func splitList(value string) []string {
	return lo.Compact(lo.Map(strings.Split(value, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}
