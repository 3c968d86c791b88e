package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"scumsim-be/internal/service/night"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	// 为空时只输出到控制台
	LogFile string `mapstructure:"log_file"`

	Night NightConfig `mapstructure:"night"`
	// 启动时用于创建默认房间的名单，可为空
	Roster []night.Seat `mapstructure:"roster"`
}

type NightConfig struct {
	SetupNightKills      bool `mapstructure:"setup_night_kills"`
	ParallelStages       bool `mapstructure:"parallel_stages"`
	SubmitTimeoutSeconds int  `mapstructure:"submit_timeout_seconds"`
}

const envPrefix = "SCUMSIM"

// InitConfig 读取当前目录下的 app_config，失败直接 panic
func InitConfig() *AppConfig {
	config, err := LoadConfig("app_config")
	if err != nil {
		panic(err)
	}

	return config
}

func LoadConfig(path string) (*AppConfig, error) {
	// .env 是可选的
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("加载 .env 失败: %w", err)
	}

	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("night.setup_night_kills", false)
	v.SetDefault("night.parallel_stages", false)
	v.SetDefault("night.submit_timeout_seconds", 120)

	// SCUMSIM_PORT、SCUMSIM_NIGHT_PARALLEL_STAGES 等环境变量覆盖文件中的值
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if config.Night.SubmitTimeoutSeconds < 0 {
		return nil, fmt.Errorf("解析配置失败: submit_timeout_seconds 不能为负数")
	}

	return &config, nil
}
