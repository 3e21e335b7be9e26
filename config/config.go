package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 运行时配置。班次窗口、看门狗阈值与周期都是显式输入，
// 便于测试时使用虚拟时钟。
type Config struct {
	Listen   string `mapstructure:"listen"`
	DBDriver string `mapstructure:"db_driver"`
	DBDSN    string `mapstructure:"db_dsn"`

	Timezone   string `mapstructure:"timezone"`
	ShiftStart string `mapstructure:"shift_start"` // HH:MM，本地时区
	ShiftEnd   string `mapstructure:"shift_end"`   // HH:MM，本地时区

	HeartbeatTimeout time.Duration `mapstructure:"heartbeat_timeout"` // 超过该时长无心跳则强制关闭会话
	WatchdogPeriod   time.Duration `mapstructure:"watchdog_period"`
	AgentReadWait    time.Duration `mapstructure:"agent_read_wait"` // 连接级存活：读超时

	location *time.Location
}

// Load 读取 data/config.yaml（可缺省）并叠加 HELLOCENTER_* 环境变量。
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("listen", "0.0.0.0:25080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "./data/presence.db")
	v.SetDefault("timezone", "Local")
	v.SetDefault("shift_start", "09:00")
	v.SetDefault("shift_end", "18:00")
	v.SetDefault("heartbeat_timeout", 30*time.Minute)
	v.SetDefault("watchdog_period", 30*time.Second)
	v.SetDefault("agent_read_wait", 60*time.Second)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./data")
	v.SetEnvPrefix("HELLOCENTER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config failed: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal failed: %w", err)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize 校验并解析时区与班次窗口。
func (c *Config) Finalize() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	c.location = loc
	if _, _, err := parseHHMM(c.ShiftStart); err != nil {
		return fmt.Errorf("config: invalid shift_start %q: %w", c.ShiftStart, err)
	}
	if _, _, err := parseHHMM(c.ShiftEnd); err != nil {
		return fmt.Errorf("config: invalid shift_end %q: %w", c.ShiftEnd, err)
	}
	if c.HeartbeatTimeout <= 0 || c.WatchdogPeriod <= 0 {
		return fmt.Errorf("config: heartbeat_timeout and watchdog_period must be positive")
	}
	return nil
}

// Location 返回配置时区，未 Finalize 时退化为 time.Local。
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// ShiftBounds 返回 day 所在自然日的班次起止时刻。
func (c *Config) ShiftBounds(day time.Time) (time.Time, time.Time) {
	loc := c.Location()
	day = day.In(loc)
	sh, sm, _ := parseHHMM(c.ShiftStart)
	eh, em, _ := parseHHMM(c.ShiftEnd)
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)
	return start, end
}

func parseHHMM(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("bad hour %q", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("bad minute %q", parts[1])
	}
	return h, m, nil
}
