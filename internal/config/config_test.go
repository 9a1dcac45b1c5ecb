package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	// 无配置文件时使用默认值
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.ListenAddress)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Server.AllowedOrigins)

	assert.Equal(t, []string{"localhost:2379"}, cfg.Etcd.Endpoints)
	assert.Equal(t, 5*time.Second, cfg.Etcd.DialTimeout)
	assert.Equal(t, 10*time.Second, cfg.Etcd.RequestTimeout)

	assert.Equal(t, time.Second, cfg.Fleet.HeartbeatInterval)
	assert.Equal(t, 2*time.Second, cfg.Fleet.ProbeTimeout)
	assert.Equal(t, 10*time.Second, cfg.Fleet.CommandTimeout)
	assert.Equal(t, 10*time.Second, cfg.Fleet.StatusTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Fleet.Retention)
	assert.Equal(t, 1050, cfg.Fleet.DefaultNodePort)

	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("VMARK_SERVER_PORT", "9000")
	t.Setenv("VMARK_ETCD_ENDPOINTS", "etcd.internal:2379")
	t.Setenv("VMARK_FLEET_CONTROLLER_ID", "central-1")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	// 环境变量覆盖默认值
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"etcd.internal:2379"}, cfg.Etcd.Endpoints)
	assert.Equal(t, "central-1", cfg.Fleet.ControllerID)
}

func TestLoadConfigMissingFile(t *testing.T) {
	// 明确指定的配置文件不存在时报错
	_, err := LoadConfig("/nonexistent/vmark.yaml")
	assert.Error(t, err)
}

// validTestConfig 构造一份通过验证的最小配置
func validTestConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8000
	cfg.Etcd.Endpoints = []string{"localhost:2379"}
	cfg.Fleet.HeartbeatInterval = time.Second
	cfg.Fleet.ProbeTimeout = 2 * time.Second
	cfg.Fleet.CommandTimeout = 10 * time.Second
	cfg.Fleet.StatusTimeout = 10 * time.Second
	cfg.Fleet.Retention = 24 * time.Hour
	cfg.Fleet.DefaultNodePort = 1050
	return cfg
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{"有效配置", func(cfg *Config) {}, false},
		{"端口越界", func(cfg *Config) { cfg.Server.Port = 70000 }, true},
		{"etcd端点为空", func(cfg *Config) { cfg.Etcd.Endpoints = nil }, true},
		{"心跳间隔非法", func(cfg *Config) { cfg.Fleet.HeartbeatInterval = 0 }, true},
		{"探测超时非法", func(cfg *Config) { cfg.Fleet.ProbeTimeout = 0 }, true},
		{"命令超时为零", func(cfg *Config) { cfg.Fleet.CommandTimeout = 0 }, true},
		{"命令超时超过上限", func(cfg *Config) { cfg.Fleet.CommandTimeout = time.Minute }, true},
		{"状态查询超时为零", func(cfg *Config) { cfg.Fleet.StatusTimeout = 0 }, true},
		{"保留时长非法", func(cfg *Config) { cfg.Fleet.Retention = 0 }, true},
		{"默认节点端口非法", func(cfg *Config) { cfg.Fleet.DefaultNodePort = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
