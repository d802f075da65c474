package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bithorded.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "name: node-1\ntcpListen: \":1234\"\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Name != "node-1" {
		t.Errorf("Name = %q, want node-1", c.Name)
	}
	if c.LocalListen != DefaultLocalSockPath {
		t.Errorf("LocalListen = %q, want %q", c.LocalListen, DefaultLocalSockPath)
	}
	if c.BindTimeoutMS != 500 || c.ReadTimeoutMS != 5000 {
		t.Errorf("unexpected timeout defaults: %+v", c)
	}
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := writeConfig(t, "name: node-2\nlocalListen: /tmp/custom\nbindTimeoutMS: 100\nstores:\n  - path: /data/a\nupstreams:\n  - \"peer:1234\"\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.LocalListen != "/tmp/custom" {
		t.Errorf("LocalListen = %q", c.LocalListen)
	}
	if c.BindTimeoutMS != 100 {
		t.Errorf("BindTimeoutMS = %d", c.BindTimeoutMS)
	}
	if len(c.Stores) != 1 || c.Stores[0].Path != "/data/a" {
		t.Errorf("Stores = %+v", c.Stores)
	}
	if len(c.Upstreams) != 1 || c.Upstreams[0] != "peer:1234" {
		t.Errorf("Upstreams = %+v", c.Upstreams)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
