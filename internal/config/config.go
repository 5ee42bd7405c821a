package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	commoncfg "healthmon/common/config"
)

// Config healthmon-api（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr        string
		CORSOrigin  string
		MaxBodySize int64
		// 0 表示使用 service.ServerTimeouts 的默认值
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}
	DBEnabled bool
	Database  commoncfg.DatabaseConfig
	// 建库用的管理员账号（DB_CREATE_DATABASE=true 时才使用）
	Admin struct {
		CreateDatabase bool
		Database       commoncfg.DatabaseConfig
	}
	Readings struct {
		DefaultLimit int
		MaxLimit     int
	}
	Redis struct {
		Enabled bool
		commoncfg.RedisConfig
		Stream       string
		StreamMaxLen int64
	}
	MQTT struct {
		Enabled bool
		commoncfg.MQTTConfig
		Topic string
	}
	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置，只在进程启动时调用一次
func Load() (*Config, error) {
	cfg := &Config{}

	// PaaS（Railway/Heroku）只给 PORT
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.HTTP.CORSOrigin = getEnv("CORS_ALLOWED_ORIGIN", "*")
	cfg.HTTP.MaxBodySize = int64(parseInt(getEnv("HTTP_MAX_BODY_BYTES", "1048576"), 1<<20))
	cfg.HTTP.ReadTimeout = parseDuration(getEnv("HTTP_READ_TIMEOUT", "15s"), 15*time.Second)
	cfg.HTTP.WriteTimeout = parseDuration(getEnv("HTTP_WRITE_TIMEOUT", "30s"), 30*time.Second)
	cfg.HTTP.ShutdownTimeout = parseDuration(getEnv("HTTP_SHUTDOWN_TIMEOUT", "5s"), 5*time.Second)

	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", getEnv("PGHOST", "localhost"))
	cfg.Database.Port = parseInt(getEnv("DB_PORT", getEnv("PGPORT", "5432")), 5432)
	cfg.Database.User = getEnv("DB_USER", getEnv("PGUSER", "postgres"))
	cfg.Database.Password = getEnv("DB_PASSWORD", getEnv("PGPASSWORD", "postgres"))
	cfg.Database.Database = getEnv("DB_NAME", getEnv("PGDATABASE", "healthcare_db"))
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	// DATABASE_URL 优先于单独的字段
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		if err := cfg.Database.ParseURL(raw); err != nil {
			return nil, fmt.Errorf("DATABASE_URL: %w", err)
		}
	}

	cfg.Admin.CreateDatabase = getEnv("DB_CREATE_DATABASE", "false") == "true"
	cfg.Admin.Database = cfg.Database.WithDatabase(getEnv("DB_ADMIN_DATABASE", "postgres"))
	cfg.Admin.Database.LoadFromEnv("DB_ADMIN")

	cfg.Readings.DefaultLimit = parseInt(getEnv("READINGS_DEFAULT_LIMIT", "100"), 100)
	cfg.Readings.MaxLimit = parseInt(getEnv("READINGS_MAX_LIMIT", "1000"), 1000)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.RedisConfig.LoadFromEnv("REDIS")
	cfg.Redis.Stream = getEnv("REDIS_STREAM", "healthmon:readings:stream")
	cfg.Redis.StreamMaxLen = int64(parseInt(getEnv("REDIS_STREAM_MAXLEN", "10000"), 10000))

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "healthmon-api"
	cfg.MQTT.MQTTConfig.LoadFromEnv("MQTT")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "healthmon/+/reading")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// SimConfig 设备模拟器配置（cmd/healthmon-sim）
type SimConfig struct {
	APIURL    string
	DeviceID  string
	PatientID int
	Count     int
	Interval  time.Duration
	// 非空时通过 MQTT 上报，而不是 POST /api/sensor
	MQTT commoncfg.MQTTConfig
	Log  struct {
		Level  string
		Format string
	}
}

// LoadSim 加载模拟器配置；DeviceID 为空时由调用方生成
func LoadSim() *SimConfig {
	cfg := &SimConfig{}
	cfg.APIURL = getEnv("SIM_API_URL", "http://localhost:8080")
	cfg.DeviceID = getEnv("SIM_DEVICE_ID", "")
	cfg.PatientID = parseInt(getEnv("SIM_PATIENT_ID", "1"), 1)
	cfg.Count = parseInt(getEnv("SIM_COUNT", "10"), 10)
	cfg.Interval = parseDuration(getEnv("SIM_INTERVAL", "2s"), 2*time.Second)
	cfg.MQTT.LoadFromEnv("SIM_MQTT")
	cfg.MQTT.QoS = byte(parseInt(getEnv("SIM_MQTT_QOS", "1"), 1))
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "console")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
