package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

// TestConfig is a sample configuration used across the manager tests.
type TestConfig struct {
	Name     string `mapstructure:"name"`
	Port     int    `mapstructure:"port"`
	MaxConns int    `mapstructure:"maxConns"`
}

func (c *TestConfig) GetName() string {
	return "testconfig"
}

func (c *TestConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// TestChangeListener records change notifications for assertions.
type TestChangeListener struct {
	ChangeCount    int32
	mu             sync.Mutex
	LastConfigName string
	LastConfig     Config
}

func (l *TestChangeListener) OnConfigChanged(configName string, newConfig, oldConfig Config) error {
	atomic.AddInt32(&l.ChangeCount, 1)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.LastConfigName = configName
	l.LastConfig = newConfig
	return nil
}

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file failed: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "testconfig", "name: metrics\nport: 8080\nmaxConns: 50\n")

	cm := NewConfigManager()
	defer cm.Close()
	cm.SetBasePath(dir)

	cfg := &TestConfig{}
	if err := cm.LoadConfig("testconfig", cfg); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "metrics" {
		t.Errorf("expected name 'metrics', got %q", cfg.Name)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.MaxConns != 50 {
		t.Errorf("expected maxConns 50, got %d", cfg.MaxConns)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cm := NewConfigManager()
	defer cm.Close()
	cm.SetBasePath(t.TempDir())

	cfg := &TestConfig{}
	if err := cm.LoadConfig("does-not-exist", cfg); err == nil {
		t.Fatal("expected error loading missing config file")
	}
}

func TestGetConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "testconfig", "name: metrics\nport: 8080\n")

	cm := NewConfigManager()
	defer cm.Close()
	cm.SetBasePath(dir)

	cfg := &TestConfig{}
	if err := cm.LoadConfig("testconfig", cfg); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	got, err := cm.GetConfig("testconfig")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if got != cfg {
		t.Error("GetConfig returned a different instance")
	}

	if _, err := cm.GetConfig("unknown"); err == nil {
		t.Error("expected error for unknown config name")
	}
}

func TestRegisterValidator(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "testconfig", "name: metrics\nport: 99999\n")

	cm := NewConfigManager()
	defer cm.Close()
	cm.SetBasePath(dir)
	cm.RegisterValidator("testconfig", func(c Config) error {
		return c.Validate()
	})

	cfg := &TestConfig{}
	if err := cm.LoadConfig("testconfig", cfg); err == nil {
		t.Fatal("expected validation failure for out-of-range port")
	}
}

func TestChangeListenerRegistration(t *testing.T) {
	cm := NewConfigManager().(*configManager)
	defer cm.Close()

	listener := &TestChangeListener{}
	cm.AddChangeListener(listener)

	old := &TestConfig{Name: "old", Port: 1}
	updated := &TestConfig{Name: "new", Port: 2}
	cm.mu.Lock()
	cm.notifyListeners("testconfig", updated, old)
	cm.mu.Unlock()

	if atomic.LoadInt32(&listener.ChangeCount) != 1 {
		t.Fatalf("expected 1 notification, got %d", listener.ChangeCount)
	}
	if listener.LastConfigName != "testconfig" {
		t.Errorf("expected config name 'testconfig', got %q", listener.LastConfigName)
	}

	cm.RemoveChangeListener(listener)
	cm.mu.Lock()
	cm.notifyListeners("testconfig", updated, old)
	cm.mu.Unlock()

	if atomic.LoadInt32(&listener.ChangeCount) != 1 {
		t.Error("removed listener should not be notified")
	}
}

func TestSingleton(t *testing.T) {
	ResetInstance()

	instance1 := GetInstance()
	instance2 := GetInstance()
	if instance1 != instance2 {
		t.Error("GetInstance() should return the same instance")
	}
	if instance1 == nil {
		t.Error("GetInstance() should not return nil")
	}

	mock := NewConfigManager()
	SetInstanceForTesting(mock)
	if GetInstance() != mock {
		t.Error("GetInstance() should return the testing instance")
	}

	ResetInstance()
	if GetInstance() == mock {
		t.Error("GetInstance() should return a new instance after reset")
	}
}
