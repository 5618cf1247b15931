package settings

type Config struct {
	MongoDB MongoDB `mapstructure:"mongodb"`
	Redis   Redis   `mapstructure:"redis"`
	Logger  Logger  `mapstructure:"logger"`
	Retry   Retry   `mapstructure:"retry"`
}

// MongoDB is the configuration for MongoDB
type MongoDB struct {
	URI             string `mapstructure:"uri"`
	Host            string `mapstructure:"host" validate:"required_without=URI"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxPoolSize     uint64 `mapstructure:"max_pool_size"`
	MinPoolSize     uint64 `mapstructure:"min_pool_size"`
	MaxConnIdleTime uint64 `mapstructure:"max_conn_idle_time"`
	Port            int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Timeout         int    `mapstructure:"timeout" validate:"gte=0"`
}

// Logger is the configuration for the logger
type Logger struct {
	LogLevel    string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	FileLogName string `mapstructure:"file_log_name"`
	MaxBackups  int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge      int    `mapstructure:"max_age" validate:"gte=0"`
	MaxSize     int    `mapstructure:"max_size" validate:"gte=0"`
	Compress    bool   `mapstructure:"compress"`
}

// Redis is the configuration for Redis
type Redis struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Password        string `mapstructure:"password"`
	Database        int    `mapstructure:"database" validate:"gte=0"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	PoolSize        int    `mapstructure:"pool_size"`
	MinIdleConns    int    `mapstructure:"min_idle_conns"`
	PoolTimeout     int    `mapstructure:"pool_timeout"`
	DialTimeout     int    `mapstructure:"dial_timeout"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	MaxRetries      int    `mapstructure:"max_retries"`
	MaxRetryBackoff int    `mapstructure:"max_retry_backoff"`
	MinRetryBackoff int    `mapstructure:"min_retry_backoff"`
}

// Retry is the configuration for the transient fault retry policy
type Retry struct {
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=0"` // Total attempts, including the first
	BackoffMs   int `mapstructure:"backoff_ms" validate:"gte=0"`   // Milliseconds
}
