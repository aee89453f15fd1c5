package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jimlawless/whereami"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

type Config struct {
	Minio  *MinIOCfg
	Http   *HTTPConfig
	Db     *PGDBCfg
	Redis  *RedisCfg
	Kafka  *KafkaCfg
	Planet *PlanetCfg
	Sync   *SyncCfg
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	MinioEndpoint     string
	BucketName        string
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	PublicBaseURL     string // externally visible URL prefix for stored media
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ResponseTTL time.Duration // TTL of cached remote catalog responses
	ProgressTTL time.Duration // TTL of the cached progress snapshot
}

// PlanetCfg points the client at the remote Planet catalog API.
type PlanetCfg struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// SyncCfg controls sync engine and background worker behavior.
type SyncCfg struct {
	Method              string // background or step
	MaxAttempts         int
	PerItemSleep        time.Duration
	HealthCheckInterval time.Duration
	ChunkSize           int
	OrphanAction        string // keep, hide, soft_delete or hard_delete
	AutoSync            bool
	AutoSyncInterval    time.Duration
	StalePendingAfter   time.Duration
}

// Load builds the full configuration and fails fast on invalid values.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	planet, err := loadPlanetCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	sync, err := loadSyncCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:  minio,
		Http:   http,
		Db:     db,
		Redis:  redis,
		Kafka:  kafka,
		Planet: planet,
		Sync:   sync,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}
	brokers := strings.Split(brokerStr, ",")

	topic := os.Getenv("KAFKA_TOPIC")

	if topic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC environment variable is required")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	networkMode := getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode)

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             topic,
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       networkMode,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnv("BUCKET_NAME"),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		PublicBaseURL:     getEnvOrDefault("MEDIA_PUBLIC_BASE_URL", "http://"+getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint)),
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadPlanetCfg(log logger.Logger) (*PlanetCfg, error) {
	const (
		defaultTimeout    = 30 * time.Second
		defaultRetries    = 3
		defaultRetryDelay = 2 * time.Second
	)

	baseURL := getEnv("PLANET_API_BASE_URL")
	if baseURL == "" {
		err := fmt.Errorf("PLANET_API_BASE_URL is required")
		log.Errorf(err, "missing PLANET_API_BASE_URL")
		return nil, err
	}

	apiKey := getEnv("PLANET_API_KEY")
	if apiKey == "" {
		err := fmt.Errorf("PLANET_API_KEY is required")
		log.Errorf(err, "missing PLANET_API_KEY")
		return nil, err
	}

	timeout, err := parseDurationEnv("PLANET_API_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid PLANET_API_TIMEOUT")
		return nil, err
	}

	retries, err := parseIntEnv("PLANET_API_RETRIES", defaultRetries)
	if err != nil {
		return nil, e.Wrap("PLANET_API_RETRIES", err)
	}

	retryDelay, err := parseDurationEnv("PLANET_API_RETRY_DELAY", defaultRetryDelay)
	if err != nil {
		log.Errorf(err, "invalid PLANET_API_RETRY_DELAY")
		return nil, err
	}

	return &PlanetCfg{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Timeout:    timeout,
		Retries:    retries,
		RetryDelay: retryDelay,
	}, nil
}

func loadSyncCfg(log logger.Logger) (*SyncCfg, error) {
	const (
		defaultMethod              = "background"
		defaultMaxAttempts         = 3
		defaultPerItemSleep        = time.Second
		defaultHealthCheckInterval = 5 * time.Minute
		defaultChunkSize           = 20
		defaultOrphanAction        = "hide"
		defaultAutoSyncInterval    = 24 * time.Hour
		defaultStalePendingAfter   = 24 * time.Hour
	)

	method := getEnvOrDefault("SYNC_METHOD", defaultMethod)
	switch method {
	case "background", "step":
	default:
		log.Errorf(e.ErrUnknownSyncMethod, "invalid SYNC_METHOD %q", method)
		return nil, e.ErrUnknownSyncMethod
	}

	orphanAction := getEnvOrDefault("SYNC_ORPHAN_ACTION", defaultOrphanAction)
	switch orphanAction {
	case "keep", "hide", "soft_delete", "hard_delete":
	default:
		err := fmt.Errorf("invalid SYNC_ORPHAN_ACTION %q", orphanAction)
		log.Errorf(err, "invalid SYNC_ORPHAN_ACTION")
		return nil, err
	}

	maxAttempts, err := parseIntEnv("SYNC_MAX_ATTEMPTS", defaultMaxAttempts)
	if err != nil {
		return nil, e.Wrap("SYNC_MAX_ATTEMPTS", err)
	}

	perItemSleep, err := parseDurationEnv("SYNC_PER_ITEM_SLEEP", defaultPerItemSleep)
	if err != nil {
		log.Errorf(err, "invalid SYNC_PER_ITEM_SLEEP")
		return nil, err
	}

	healthCheckInterval, err := parseDurationEnv("SYNC_HEALTH_CHECK_INTERVAL", defaultHealthCheckInterval)
	if err != nil {
		log.Errorf(err, "invalid SYNC_HEALTH_CHECK_INTERVAL")
		return nil, err
	}

	chunkSize, err := parseIntEnv("SYNC_CHUNK_SIZE", defaultChunkSize)
	if err != nil {
		return nil, e.Wrap("SYNC_CHUNK_SIZE", err)
	}

	autoSync, err := strconv.ParseBool(getEnvOrDefault("SYNC_AUTO", "false"))
	if err != nil {
		log.Errorf(err, "invalid SYNC_AUTO")
		return nil, err
	}

	autoSyncInterval, err := parseDurationEnv("SYNC_AUTO_INTERVAL", defaultAutoSyncInterval)
	if err != nil {
		log.Errorf(err, "invalid SYNC_AUTO_INTERVAL")
		return nil, err
	}

	stalePendingAfter, err := parseDurationEnv("SYNC_STALE_PENDING_AFTER", defaultStalePendingAfter)
	if err != nil {
		log.Errorf(err, "invalid SYNC_STALE_PENDING_AFTER")
		return nil, err
	}

	return &SyncCfg{
		Method:              method,
		MaxAttempts:         maxAttempts,
		PerItemSleep:        perItemSleep,
		HealthCheckInterval: healthCheckInterval,
		ChunkSize:           chunkSize,
		OrphanAction:        orphanAction,
		AutoSync:            autoSync,
		AutoSyncInterval:    autoSyncInterval,
		StalePendingAfter:   stalePendingAfter,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultResponseTTL  = 5 * time.Minute
		defaultProgressTTL  = 3 * time.Second
	)

	addr := getEnvOrDefault("REDIS_ADDR", defaultAddr)
	password := getEnv("REDIS_PASSWORD")
	user := getEnv("REDIS_USER")

	dbStr := getEnvOrDefault("REDIS_DB_ID", strconv.Itoa(defaultDB))
	db, err := strconv.Atoi(dbStr)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetriesStr := getEnvOrDefault("MAX_RETRIES", strconv.Itoa(defaultMaxRetries))
	maxRetries, err := strconv.Atoi(maxRetriesStr)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	responseTTL, err := parseDurationEnv("RESPONSE_CACHE_TTL", defaultResponseTTL)
	if err != nil {
		log.Errorf(err, "invalid RESPONSE_CACHE_TTL")
		return nil, err
	}

	progressTTL, err := parseDurationEnv("PROGRESS_CACHE_TTL", defaultProgressTTL)
	if err != nil {
		log.Errorf(err, "invalid PROGRESS_CACHE_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        addr,
		Password:    password,
		User:        user,
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ResponseTTL: responseTTL,
		ProgressTTL: progressTTL,
	}, nil
}

// getEnv returns the value of an environment variable.
// Returns an empty string when the variable is unset.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault returns the environment variable value or the default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv reads a duration or returns the default.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
