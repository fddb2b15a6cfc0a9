package spawner

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fyerfyer/fyer-pool/scene"
)

// Config 生成器的配置，可以从 YAML 文件加载并在运行时热更新
type Config struct {
	// 池中预创建的实例数
	Instances int `yaml:"instances"`

	// 每秒生成次数
	Speed float64 `yaml:"speed"`

	// 候选生成位置，为空时实例停留在原点
	Locations []scene.Vec3 `yaml:"locations"`

	// 相同告警的抑制间隔，0 表示不抑制
	WarnInterval time.Duration `yaml:"warn_interval"`
}

var (
	ErrInvalidInstances = errors.New("spawner: instances must be at least 1")
	ErrInvalidSpeed     = errors.New("spawner: speed must be a finite non-negative number")
)

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Instances:    1,
		Speed:        1.0,
		WarnInterval: time.Second,
	}
}

func (c Config) Validate() error {
	if c.Instances < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidInstances, c.Instances)
	}
	if !validSpeed(c.Speed) {
		return fmt.Errorf("%w, got %v", ErrInvalidSpeed, c.Speed)
	}
	return nil
}

// LoadConfig 读取 YAML 配置文件，文件中的 ${VAR} 会被替换为环境变量的值。
// 文件中没有出现的字段保留默认值。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig 将配置写入 YAML 文件
func SaveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// substituteEnvVars 将 ${VAR_NAME} 替换为环境变量的值
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}

func validSpeed(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
