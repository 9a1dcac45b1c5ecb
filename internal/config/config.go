package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用程序配置结构
type Config struct {
	// 管理API服务配置
	Server struct {
		ListenAddress string `mapstructure:"listen_address"`
		Port          int    `mapstructure:"port"`
		// 允许跨域访问的来源列表
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"server"`

	// etcd配置
	Etcd struct {
		Endpoints      []string      `mapstructure:"endpoints"`
		Username       string        `mapstructure:"username"`
		Password       string        `mapstructure:"password"`
		DialTimeout    time.Duration `mapstructure:"dial_timeout"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
	} `mapstructure:"etcd"`

	// 节点集群配置
	Fleet struct {
		// 控制器ID，作为与vMark-node通信的共享凭证
		ControllerID string `mapstructure:"controller_id"`
		// 心跳周期间隔
		HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
		// 单次心跳探测超时
		ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
		// 临时命令执行超时
		CommandTimeout time.Duration `mapstructure:"command_timeout"`
		// E-Line状态查询超时
		StatusTimeout time.Duration `mapstructure:"status_timeout"`
		// 延迟历史保留时长
		Retention time.Duration `mapstructure:"retention"`
		// 节点代理默认端口
		DefaultNodePort int `mapstructure:"default_node_port"`
	} `mapstructure:"fleet"`

	// 日志配置
	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

// LoadConfig 从文件和环境变量加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果指定了配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 设置配置文件名和路径
		v.SetConfigName("config")       // 配置文件名（无扩展名）
		v.AddConfigPath(".")            // 当前目录
		v.AddConfigPath("./configs")    // configs目录
		v.AddConfigPath("$HOME/.vmark") // 用户目录
		v.AddConfigPath("/etc/vmark")   // 系统目录
	}

	// 配置文件格式
	v.SetConfigType("yaml")

	// 尝试从配置文件加载
	if err := v.ReadInConfig(); err != nil {
		// 如果找不到配置文件，仅记录警告；其他错误则返回
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件错误: %w", err)
		}
	}

	// 绑定环境变量
	v.SetEnvPrefix("VMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 从环境变量覆盖
	bindEnvVariables(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置错误: %w", err)
	}

	// 进行配置验证
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// 管理API默认配置
	v.SetDefault("server.listen_address", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})

	// etcd默认配置
	v.SetDefault("etcd.endpoints", []string{"localhost:2379"})
	v.SetDefault("etcd.username", "")
	v.SetDefault("etcd.password", "")
	v.SetDefault("etcd.dial_timeout", 5*time.Second)
	v.SetDefault("etcd.request_timeout", 10*time.Second)

	// 节点集群默认配置
	v.SetDefault("fleet.controller_id", "")
	v.SetDefault("fleet.heartbeat_interval", time.Second)
	v.SetDefault("fleet.probe_timeout", 2*time.Second)
	v.SetDefault("fleet.command_timeout", 10*time.Second)
	v.SetDefault("fleet.status_timeout", 10*time.Second)
	v.SetDefault("fleet.retention", 24*time.Hour)
	v.SetDefault("fleet.default_node_port", 1050)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", true)
}

// bindEnvVariables 绑定特定的环境变量
func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("server.port", "VMARK_SERVER_PORT")
	v.BindEnv("server.allowed_origins", "VMARK_ALLOWED_ORIGINS")
	v.BindEnv("etcd.endpoints", "VMARK_ETCD_ENDPOINTS")
	v.BindEnv("fleet.controller_id", "VMARK_FLEET_CONTROLLER_ID")
}

// validateConfig 验证配置有效性
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("管理API端口配置无效: %d", config.Server.Port)
	}

	if len(config.Etcd.Endpoints) == 0 {
		return fmt.Errorf("etcd端点不能为空")
	}

	if config.Fleet.HeartbeatInterval <= 0 {
		return fmt.Errorf("心跳间隔必须大于0")
	}

	if config.Fleet.ProbeTimeout <= 0 {
		return fmt.Errorf("心跳探测超时必须大于0")
	}

	if config.Fleet.CommandTimeout <= 0 {
		return fmt.Errorf("命令执行超时必须大于0")
	}

	if config.Fleet.CommandTimeout > 30*time.Second {
		return fmt.Errorf("命令执行超时不能超过30秒: %v", config.Fleet.CommandTimeout)
	}

	if config.Fleet.StatusTimeout <= 0 {
		return fmt.Errorf("E-Line状态查询超时必须大于0")
	}

	if config.Fleet.Retention <= 0 {
		return fmt.Errorf("延迟历史保留时长必须大于0")
	}

	if config.Fleet.DefaultNodePort <= 0 || config.Fleet.DefaultNodePort > 65535 {
		return fmt.Errorf("节点代理默认端口配置无效: %d", config.Fleet.DefaultNodePort)
	}

	return nil
}
