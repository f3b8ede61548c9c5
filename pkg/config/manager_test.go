package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type managerTestConfig struct {
	DB struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"db"`
	Pool struct {
		Max     int           `mapstructure:"max"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"pool"`
	Environments []string `mapstructure:"environments"`
}

// createTestConfigFile 创建临时配置文件
func createTestConfigFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// TestManager_LoadFile 测试加载配置文件
func TestManager_LoadFile(t *testing.T) {
	content := `
db:
  host: localhost
  port: 5432
pool:
  max: 20
  timeout: 5s
environments:
  - dev
  - staging
`
	path := createTestConfigFile(t, content)

	m := NewManager()
	if err := m.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	var cfg managerTestConfig
	if err := m.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if cfg.DB.Host != "localhost" {
		t.Errorf("DB.Host = %q, want localhost", cfg.DB.Host)
	}
	if cfg.DB.Port != 5432 {
		t.Errorf("DB.Port = %d, want 5432", cfg.DB.Port)
	}
	if cfg.Pool.Timeout != 5*time.Second {
		t.Errorf("Pool.Timeout = %v, want 5s", cfg.Pool.Timeout)
	}
	if len(cfg.Environments) != 2 {
		t.Errorf("Environments = %v, want 2 entries", cfg.Environments)
	}
}

// TestManager_LoadFile_NotFound 测试加载不存在的文件
func TestManager_LoadFile_NotFound(t *testing.T) {
	m := NewManager()
	err := m.LoadFile("/nonexistent/config.yaml")
	if !errors.Is(err, ErrConfigFileNotFound) {
		t.Errorf("LoadFile() error = %v, want ErrConfigFileNotFound", err)
	}
}

// TestManager_Load_SearchPaths 测试按文件名与搜索路径加载
func TestManager_Load_SearchPaths(t *testing.T) {
	dir := t.TempDir()
	content := "db:\n  host: searched\n"
	if err := os.WriteFile(filepath.Join(dir, "dbkit.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	m := NewManager(
		WithConfigName("dbkit"),
		WithConfigType("yaml"),
		WithConfigPaths(dir),
	)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := m.GetString("db.host"); got != "searched" {
		t.Errorf("GetString(db.host) = %q, want searched", got)
	}
}

// TestManager_Load_NotFound 测试搜索路径下无匹配文件
func TestManager_Load_NotFound(t *testing.T) {
	m := NewManager(
		WithConfigName("missing"),
		WithConfigPaths(t.TempDir()),
	)
	if err := m.Load(); !errors.Is(err, ErrConfigFileNotFound) {
		t.Errorf("Load() error = %v, want ErrConfigFileNotFound", err)
	}
}

// TestManager_LoadFile_Invalid 测试加载格式错误的文件
func TestManager_LoadFile_Invalid(t *testing.T) {
	path := createTestConfigFile(t, "db: [unclosed")

	m := NewManager()
	if err := m.LoadFile(path); err == nil {
		t.Error("LoadFile() should fail for invalid YAML")
	}
}

// TestManager_Getters 测试各类型取值方法
func TestManager_Getters(t *testing.T) {
	content := `
db:
  host: db.internal
  port: 6432
  secure: true
pool:
  timeout: 90s
environments:
  - dev
  - prod
`
	path := createTestConfigFile(t, content)

	m := NewManager()
	if err := m.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got := m.GetString("db.host"); got != "db.internal" {
		t.Errorf("GetString(db.host) = %q, want db.internal", got)
	}
	if got := m.GetInt("db.port"); got != 6432 {
		t.Errorf("GetInt(db.port) = %d, want 6432", got)
	}
	if got := m.GetBool("db.secure"); !got {
		t.Error("GetBool(db.secure) = false, want true")
	}
	if got := m.GetDuration("pool.timeout"); got != 90*time.Second {
		t.Errorf("GetDuration(pool.timeout) = %v, want 90s", got)
	}
	if got := m.GetStringSlice("environments"); len(got) != 2 || got[1] != "prod" {
		t.Errorf("GetStringSlice(environments) = %v, want [dev prod]", got)
	}
	if !m.IsSet("db.host") {
		t.Error("IsSet(db.host) = false, want true")
	}
	if m.IsSet("db.missing") {
		t.Error("IsSet(db.missing) = true, want false")
	}
}

// TestManager_BindEnv 测试环境变量覆盖文件配置
func TestManager_BindEnv(t *testing.T) {
	content := `
db:
  host: localhost
  port: 5432
`
	path := createTestConfigFile(t, content)
	t.Setenv("DBKIT_DB_HOST", "prod-db.internal")

	m := NewManager()
	if err := m.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	m.BindEnv("DBKIT")

	if got := m.GetString("db.host"); got != "prod-db.internal" {
		t.Errorf("GetString(db.host) = %q, want prod-db.internal", got)
	}
	// 未被环境变量覆盖的配置保持文件值
	if got := m.GetInt("db.port"); got != 5432 {
		t.Errorf("GetInt(db.port) = %d, want 5432", got)
	}
}

// TestManager_WithDefaults 测试默认值与文件值的优先级
func TestManager_WithDefaults(t *testing.T) {
	content := `
db:
  host: fileval
`
	path := createTestConfigFile(t, content)

	m := NewManager(WithDefaults(map[string]any{
		"db.host": "defaultval",
		"db.port": 5432,
	}))
	if err := m.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	// 文件值优先于默认值
	if got := m.GetString("db.host"); got != "fileval" {
		t.Errorf("GetString(db.host) = %q, want fileval", got)
	}
	// 文件未提供时回退到默认值
	if got := m.GetInt("db.port"); got != 5432 {
		t.Errorf("GetInt(db.port) = %d, want 5432", got)
	}
}

// TestManager_UnmarshalKey 测试按路径解析
func TestManager_UnmarshalKey(t *testing.T) {
	content := `
pool:
  max: 50
  timeout: 30s
`
	path := createTestConfigFile(t, content)

	m := NewManager()
	if err := m.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	var pool struct {
		Max     int           `mapstructure:"max"`
		Timeout time.Duration `mapstructure:"timeout"`
	}
	if err := m.UnmarshalKey("pool", &pool); err != nil {
		t.Fatalf("UnmarshalKey() error = %v", err)
	}

	if pool.Max != 50 {
		t.Errorf("pool.Max = %d, want 50", pool.Max)
	}
	if pool.Timeout != 30*time.Second {
		t.Errorf("pool.Timeout = %v, want 30s", pool.Timeout)
	}
}

// TestManager_AllSettings 测试获取全部配置
func TestManager_AllSettings(t *testing.T) {
	content := `
db:
  host: localhost
`
	path := createTestConfigFile(t, content)

	m := NewManager()
	if err := m.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	all := m.AllSettings()
	db, ok := all["db"].(map[string]any)
	if !ok {
		t.Fatalf("AllSettings()[db] type = %T, want map", all["db"])
	}
	if db["host"] != "localhost" {
		t.Errorf("AllSettings()[db][host] = %v, want localhost", db["host"])
	}
}

// TestManager_Watch 测试重复注册监听
func TestManager_Watch(t *testing.T) {
	path := createTestConfigFile(t, "db:\n  host: localhost\n")

	m := NewManager()
	if err := m.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if err := m.Watch(func() {}); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	// 第二次注册只追加回调，不重复启动监听
	if err := m.Watch(func() {}); err != nil {
		t.Fatalf("Watch() second call error = %v", err)
	}
}
