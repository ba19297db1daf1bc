package global

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestConfigSave(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.yaml")

	initialConfig := config{
		Bilibili: BilibiliConfig{
			Sessdata: "initial-session",
		},
	}
	data, err := yaml.Marshal(initialConfig)
	if err != nil {
		t.Fatalf("Failed to marshal initial config: %v", err)
	}

	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		t.Fatalf("Failed to write initial config file: %v", err)
	}

	absPath, _ := filepath.Abs(tmpFile)
	_, err = ConfigLoad(absPath)
	if err != nil {
		t.Fatalf("ConfigLoad failed: %v", err)
	}

	Config.Bilibili.Sessdata = "updated-session"
	if err := Config.Save(); err != nil {
		t.Fatalf("Config.Save error: %v, file: %s", err, Config.File)
	}

	updatedData, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read updated config file: %v", err)
	}

	var updatedConfig config
	if err := yaml.Unmarshal(updatedData, &updatedConfig); err != nil {
		t.Fatalf("Failed to unmarshal updated config: %v", err)
	}

	if updatedConfig.Bilibili.Sessdata != "updated-session" {
		t.Errorf("Expected Sessdata updated-session, got %s", updatedConfig.Bilibili.Sessdata)
	}
}

func TestConfigLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(tmpFile, []byte("bilibili:\n  sessdata: abc\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	c, err := ConfigLoad(tmpFile)
	if err != nil {
		t.Fatalf("ConfigLoad failed: %v", err)
	}

	if c.Bilibili.PageSize != 30 {
		t.Errorf("Expected default page size 30, got %d", c.Bilibili.PageSize)
	}
	if c.Sync.FavoritesInterval != 15 {
		t.Errorf("Expected default favorites interval 15, got %d", c.Sync.FavoritesInterval)
	}
	if !c.Sync.FavoritesEnabled {
		t.Errorf("Expected favorites enabled by default")
	}
}
