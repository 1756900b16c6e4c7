package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"300"` // 自动排座可能耗时较长
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 14 天，单位为小时
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD,required"`
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN,required"`
		SMTP       struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	OTP struct {
		Expiration int `env:"EXPIRATION" envDefault:"900"` // 15 分钟
	} `envPrefix:"OTP_"`
	NewUser struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`
	Arranger   ArrangerConfig   `envPrefix:"ARRANGER_"`
	Preference PreferenceConfig `envPrefix:"PREFERENCE_"`
}

// ArrangerConfig: 自动排座的默认参数
type ArrangerConfig struct {
	GroupSize           int32   `env:"GROUP_SIZE" envDefault:"4"`
	PopulationSize      int32   `env:"POPULATION_SIZE" envDefault:"100"`
	MaxGenerations      int32   `env:"MAX_GENERATIONS" envDefault:"5000"`
	SelectionCount      int32   `env:"SELECTION_COUNT" envDefault:"10"`
	Selector            string  `env:"SELECTOR" envDefault:"stochastic"`
	TournamentSize      int32   `env:"TOURNAMENT_SIZE" envDefault:"3"`
	MutationRate        float64 `env:"MUTATION_RATE" envDefault:"1"`
	EliteCount          int32   `env:"ELITE_COUNT" envDefault:"0"`
	ConvergenceDelta    int64   `env:"CONVERGENCE_DELTA" envDefault:"0"`
	ConvergencePatience int32   `env:"CONVERGENCE_PATIENCE" envDefault:"0"`
	Workers             int32   `env:"WORKERS" envDefault:"4"`
	LockExpiration      int     `env:"LOCK_EXPIRATION" envDefault:"600"` // 排座锁的过期时间，单位为秒
}

// PreferenceConfig: 偏好表各列的权重
type PreferenceConfig struct {
	PositiveColumns []int `env:"POSITIVE_COLUMNS" envDefault:"1,2"`
	NegativeColumns []int `env:"NEGATIVE_COLUMNS" envDefault:"3"`
	PositiveWeight  int64 `env:"POSITIVE_WEIGHT" envDefault:"1"`
	NegativeWeight  int64 `env:"NEGATIVE_WEIGHT" envDefault:"-1"`
}

func (c PreferenceConfig) WeightPolicy() domain.WeightPolicy {
	return domain.WeightPolicy{
		PositiveColumns: c.PositiveColumns,
		NegativeColumns: c.NegativeColumns,
		PositiveWeight:  c.PositiveWeight,
		NegativeWeight:  c.NegativeWeight,
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate 检查各项配置之间的关系
func (c *Config) Validate() error {
	// 排座最多运行 WriteTimeout 秒，锁必须比它活得更久
	if c.Arranger.LockExpiration <= c.Server.WriteTimeout {
		return fmt.Errorf("ARRANGER_LOCK_EXPIRATION (%d) 必须大于 SERVER_WRITE_TIMEOUT (%d)", c.Arranger.LockExpiration, c.Server.WriteTimeout)
	}
	return nil
}

// LoadArrangerConfig 只读取排座相关的配置，供不连接任何外部服务的命令行工具使用
func LoadArrangerConfig() (*ArrangerConfig, *PreferenceConfig, error) {
	arrangerCfg := &ArrangerConfig{}
	if err := env.ParseWithOptions(arrangerCfg, env.Options{Prefix: "ARRANGER_"}); err != nil {
		return nil, nil, err
	}

	preferenceCfg := &PreferenceConfig{}
	if err := env.ParseWithOptions(preferenceCfg, env.Options{Prefix: "PREFERENCE_"}); err != nil {
		return nil, nil, err
	}

	return arrangerCfg, preferenceCfg, nil
}
