package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config 应用程序配置
type Config struct {
	Log  LogConfig  `json:"log"`
	Pool PoolConfig `json:"pool"`
	Join JoinConfig `json:"join"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json, text or plain
}

// PoolConfig 并行度配置
type PoolConfig struct {
	// Workers is the number of probe workers; 0 means runtime.NumCPU().
	Workers int `json:"workers"`
	// Shards is the number of hash index shards; 0 means one per worker.
	Shards int `json:"shards"`
}

// JoinConfig 连接配置
type JoinConfig struct {
	Suffix     string `json:"suffix"`
	NullsEqual bool   `json:"nulls_equal"`
	Coalesce   bool   `json:"coalesce"`
	HashSeed   uint64 `json:"hash_seed"`
	// SwapSmaller lets the executor hash the smaller input and swap sides back
	// in the output.
	SwapSmaller bool `json:"swap_smaller"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Pool: PoolConfig{
			Workers: 0,
			Shards:  0,
		},
		Join: JoinConfig{
			Suffix:      "_right",
			NullsEqual:  false,
			Coalesce:    false,
			HashSeed:    0x9E3779B97F4A7C15,
			SwapSmaller: true,
		},
	}
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	// 如果没有指定配置文件，使用默认配置
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfigOrDefault 尝试从常见位置加载配置文件
func LoadConfigOrDefault() *Config {
	possiblePaths := []string{
		"config.json",
		"./config/config.json",
		"/etc/pipejoin/config.json",
	}

	if envPath := os.Getenv("PIPEJOIN_CONFIG"); envPath != "" {
		if config, err := LoadConfig(envPath); err == nil {
			return config
		}
	}

	for _, path := range possiblePaths {
		if absPath, err := filepath.Abs(path); err == nil {
			if config, err := LoadConfig(absPath); err == nil {
				return config
			}
		}
	}

	return DefaultConfig()
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	switch config.Log.Format {
	case "json", "text", "plain":
	default:
		return fmt.Errorf("无效的日志格式: %s", config.Log.Format)
	}

	if config.Pool.Workers < 0 {
		return fmt.Errorf("工作线程数不能为负数")
	}

	if config.Pool.Shards < 0 {
		return fmt.Errorf("分片数不能为负数")
	}

	if config.Join.Suffix == "" {
		return fmt.Errorf("列名后缀不能为空")
	}

	return nil
}
