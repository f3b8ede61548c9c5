package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lk2023060901/dbkit/pkg/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// 命令行参数与最终生效的路径
var (
	configPath string
	logPath    string
)

// LoadConfig 把配置文件、环境变量、命令行参数合并解析进 target
// 优先级从高到低: 显式命令行参数 > 环境变量 > 配置文件 > 默认值
func LoadConfig(target any, opts ...config.Option) error {
	execDir, err := GetExecDir()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	defaultLog := filepath.Join(execDir, "logs", "app.log")

	registerFlags(filepath.Join(execDir, "config.yaml"), defaultLog)

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	configPath = path

	v := newViper()
	// 默认值优先级最低
	v.SetDefault("log.output_path", defaultLog)
	v.SetDefault("log.enable_file", true)
	// 显式 --log.path 压过其他所有来源
	if pflag.CommandLine.Changed("log.path") {
		v.Set("log.output_path", logPath)
	}

	mgr := config.NewManager(append(opts, config.WithViper(v))...)
	if err := mgr.LoadFile(configPath); err != nil {
		return err
	}
	if err := mgr.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 日志目录随最终落点自动创建
	logPath = v.GetString("log.output_path")
	if dir := filepath.Dir(logPath); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return nil
}

// registerFlags 注册 --config 与 --log.path 并解析，重复调用安全
func registerFlags(defaultConfig, defaultLog string) {
	if pflag.Lookup("config") == nil {
		pflag.StringVarP(&configPath, "config", "c", defaultConfig, "path to config file")
	}
	if pflag.Lookup("log.path") == nil {
		pflag.StringVar(&logPath, "log.path", defaultLog, "output path for logs")
	}
	if !pflag.Parsed() {
		pflag.Parse()
	}
}

// resolveConfigPath 确定配置文件路径
// 显式 --config 最优先，其次 DBKIT_CONFIG 环境变量，最后可执行文件旁的 config.yaml
func resolveConfigPath() (string, error) {
	path := configPath
	if !pflag.CommandLine.Changed("config") {
		if env := os.Getenv("DBKIT_CONFIG"); env != "" {
			path = env
		}
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("config file not found at %s", path)
	}
	return path, nil
}

// newViper 构造带环境变量映射的 viper 实例
// DBKIT_LOG_LEVEL 这样的变量映射到 log.level
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DBKIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	return v
}

// GetExecDir 返回可执行文件所在目录，符号链接解析到真实路径
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(execPath); err == nil {
		return filepath.Dir(real), nil
	}
	return filepath.Dir(execPath), nil
}

// GetConfigPath 返回最终加载的配置文件路径
func GetConfigPath() string { return configPath }

// GetLogPath 返回最终生效的日志输出路径
func GetLogPath() string { return logPath }
