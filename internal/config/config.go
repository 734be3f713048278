package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/reddit_radar/internal/model"
)

const (
	ProviderOpenAI = "openai"
	ProviderXAI    = "xai"

	DefaultOpenAIModel = "gpt-4o"
	DefaultXAIModel    = "grok-4-1-fast-reasoning"

	// DefaultOpenAIProxy OpenAI web_search 的 x402 代理地址
	DefaultOpenAIProxy = "https://proxy-monetize.fluxapay.xyz/api/4dbb5253-9974-427c-81b1-c52d00bcb28a/web_search"

	DefaultDomain = "reddit.com"
)

// Config 项目配置结构体
type Config struct {
	Models      ModelsConfig      `yaml:"models"`
	X402        X402Config        `yaml:"x402"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ModelsConfig 各供应商使用的模型，可被环境变量覆盖
type ModelsConfig struct {
	OpenAI string `yaml:"openai"`
	XAI    string `yaml:"xai"`
}

// X402Config 付费代理相关配置
type X402Config struct {
	Endpoints map[string]string `yaml:"endpoints"`
	// Timeouts 单位秒，按档位配置
	Timeouts map[model.Depth]int `yaml:"timeouts"`
	// MaxPriceAtomic 报价上限，0 表示不限制
	MaxPriceAtomic uint64 `yaml:"max_price_atomic"`
}

// DiscoveryConfig 帖子发现相关配置
type DiscoveryConfig struct {
	Provider string              `yaml:"provider"`
	Domain   string              `yaml:"domain"`
	Depths   model.DepthProfiles `yaml:"depths"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 出站请求限流，均为 0 时不限流
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// DBConfig 数据库相关配置，Host 为空时不记录运行历史
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// MetricsConfig 指标输出，Textfile 为空时不输出
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default 不需要配置文件也能运行
func Default() *Config {
	return &Config{
		Models: ModelsConfig{
			OpenAI: DefaultOpenAIModel,
			XAI:    DefaultXAIModel,
		},
		X402: X402Config{
			Endpoints: map[string]string{
				ProviderOpenAI: DefaultOpenAIProxy,
			},
		},
		Discovery: DiscoveryConfig{
			Provider: ProviderOpenAI,
			Domain:   DefaultDomain,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig 从指定路径加载配置，path 为空时只使用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.fillDefaults()
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// fillDefaults 配置文件里显式写空的字段回退到默认值
func (c *Config) fillDefaults() {
	def := Default()
	if c.Models.OpenAI == "" {
		c.Models.OpenAI = def.Models.OpenAI
	}
	if c.Models.XAI == "" {
		c.Models.XAI = def.Models.XAI
	}
	if c.X402.Endpoints == nil {
		c.X402.Endpoints = map[string]string{}
	}
	for k, v := range def.X402.Endpoints {
		if c.X402.Endpoints[k] == "" {
			c.X402.Endpoints[k] = v
		}
	}
	if c.Discovery.Provider == "" {
		c.Discovery.Provider = def.Discovery.Provider
	}
	if c.Discovery.Domain == "" {
		c.Discovery.Domain = def.Discovery.Domain
	}
}

// ApplyEnv 环境变量 OPENAI_MODEL / XAI_MODEL 覆盖模型配置
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("OPENAI_MODEL"); v != "" {
		c.Models.OpenAI = v
	}
	if v := getenv("XAI_MODEL"); v != "" {
		c.Models.XAI = v
	}
}

// ModelFor 返回某个供应商的模型
func (c *Config) ModelFor(provider string) string {
	switch provider {
	case ProviderXAI:
		return c.Models.XAI
	default:
		return c.Models.OpenAI
	}
}

// DepthProfiles 配置中的档位覆盖默认表
func (c *Config) DepthProfiles() model.DepthProfiles {
	profiles := model.DefaultDepthProfiles()
	for d, p := range c.Discovery.Depths {
		if p.MinItems > 0 && p.MaxItems >= p.MinItems {
			profiles[d] = p
		}
	}
	return profiles
}

// DepthTimeouts 配置中的超时覆盖默认表
func (c *Config) DepthTimeouts() model.DepthTimeouts {
	timeouts := model.DefaultDepthTimeouts()
	for d, sec := range c.X402.Timeouts {
		if sec > 0 {
			timeouts[d] = time.Duration(sec) * time.Second
		}
	}
	return timeouts
}
