package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	RedisStreams RedisStreamsConfig
	Cache        CacheConfig
	Log          LogConfig
	Map          MapConfig
	Fetch        FetchConfig
	Storage      StorageConfig
	Worker       WorkerConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	CORSOrigins string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisStreamsConfig - отдельный инстанс Redis для стримов действий
type RedisStreamsConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	NearbyCacheTTL time.Duration
}

type LogConfig struct {
	Level string
}

// MapConfig - параметры карты, которые отдаются клиентам и используются в ядре
type MapConfig struct {
	NearbyRadiusM     float64
	ClusterMaxZoom    int
	ClusterRadiusPx   int
	WatchdogTimeout   time.Duration
	HoverDismissDelay time.Duration
	ResizeDelay       time.Duration
	StreetStyleURL    string
	SatelliteTilesURL string
}

// FetchConfig - устойчивость запросов к внешнему хранилищу
type FetchConfig struct {
	MaxRetries              int
	InitialBackoff          time.Duration
	BreakerFailureThreshold uint32
	BreakerTimeout          time.Duration
}

type StorageConfig struct {
	PublicURL string
	Bucket    string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
	ShutdownTimeout   time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// .env необязателен: в контейнере всё приходит через окружение
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        viper.GetString("API_HOST"),
			Port:        viper.GetInt("API_PORT"),
			Env:         viper.GetString("API_ENV"),
			CORSOrigins: viper.GetString("CORS_ALLOW_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RedisStreams: RedisStreamsConfig{
			Host:     viper.GetString("REDIS_STREAMS_HOST"),
			Port:     viper.GetInt("REDIS_STREAMS_PORT"),
			Password: viper.GetString("REDIS_STREAMS_PASSWORD"),
			DB:       viper.GetInt("REDIS_STREAMS_DB"),
		},
		Cache: CacheConfig{
			NearbyCacheTTL: time.Duration(viper.GetInt("NEARBY_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Map: MapConfig{
			NearbyRadiusM:     viper.GetFloat64("NEARBY_RADIUS_M"),
			ClusterMaxZoom:    viper.GetInt("CLUSTER_MAX_ZOOM"),
			ClusterRadiusPx:   viper.GetInt("CLUSTER_RADIUS_PX"),
			WatchdogTimeout:   time.Duration(viper.GetInt("WATCHDOG_TIMEOUT_MS")) * time.Millisecond,
			HoverDismissDelay: time.Duration(viper.GetInt("HOVER_DISMISS_MS")) * time.Millisecond,
			ResizeDelay:       time.Duration(viper.GetInt("RESIZE_DELAY_MS")) * time.Millisecond,
			StreetStyleURL:    viper.GetString("STREET_STYLE_URL"),
			SatelliteTilesURL: viper.GetString("SATELLITE_TILES_URL"),
		},
		Fetch: FetchConfig{
			MaxRetries:              viper.GetInt("FETCH_MAX_RETRIES"),
			InitialBackoff:          time.Duration(viper.GetInt("FETCH_INITIAL_BACKOFF_MS")) * time.Millisecond,
			BreakerFailureThreshold: viper.GetUint32("BREAKER_FAILURE_THRESHOLD"),
			BreakerTimeout:          time.Duration(viper.GetInt("BREAKER_TIMEOUT_S")) * time.Second,
		},
		Storage: StorageConfig{
			PublicURL: viper.GetString("STORAGE_PUBLIC_URL"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
			ShutdownTimeout:   viper.GetDuration("WORKER_SHUTDOWN_TIMEOUT"),
		},
	}

	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults - значения по умолчанию для незаданных параметров
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.RedisStreams.Host == "" {
		c.RedisStreams = RedisStreamsConfig(c.Redis)
	}
	if c.Cache.NearbyCacheTTL == 0 {
		c.Cache.NearbyCacheTTL = 60 * time.Second
	}
	if c.Map.NearbyRadiusM == 0 {
		c.Map.NearbyRadiusM = 5000
	}
	if c.Map.ClusterMaxZoom == 0 {
		c.Map.ClusterMaxZoom = 14
	}
	if c.Map.ClusterRadiusPx == 0 {
		c.Map.ClusterRadiusPx = 50
	}
	if c.Map.WatchdogTimeout == 0 {
		c.Map.WatchdogTimeout = 3 * time.Second
	}
	if c.Map.HoverDismissDelay == 0 {
		c.Map.HoverDismissDelay = 300 * time.Millisecond
	}
	if c.Map.ResizeDelay == 0 {
		c.Map.ResizeDelay = 100 * time.Millisecond
	}
	if c.Map.SatelliteTilesURL == "" {
		c.Map.SatelliteTilesURL = "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}"
	}
	if c.Fetch.MaxRetries == 0 {
		c.Fetch.MaxRetries = 3
	}
	if c.Fetch.InitialBackoff == 0 {
		c.Fetch.InitialBackoff = 200 * time.Millisecond
	}
	if c.Fetch.BreakerFailureThreshold == 0 {
		c.Fetch.BreakerFailureThreshold = 5
	}
	if c.Fetch.BreakerTimeout == 0 {
		c.Fetch.BreakerTimeout = 30 * time.Second
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "building-images"
	}
	if c.Worker.ConsumerGroup == "" {
		c.Worker.ConsumerGroup = "map-action-workers"
	}
	if c.Worker.StreamReadTimeout == 0 {
		c.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 3
	}
	if c.Worker.ShutdownTimeout <= 0 {
		c.Worker.ShutdownTimeout = 30 * time.Second
	}
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
