package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	valid bool
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port is required")
	}
	s.valid = true
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnvAndValidates(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "newsroll")
	p := writeFile(t, "name: ${SAMPLE_NAME}\nport: 8080\n")

	var got sample
	if err := Load(p, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "newsroll" || got.Port != 8080 || !got.valid {
		t.Errorf("got %+v", got)
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	p := writeFile(t, "port: 9000\n")
	got := sample{Name: "default"}
	if err := Load(p, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "default" {
		t.Errorf("name = %q, want default kept", got.Name)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	p := writeFile(t, "name: x\n")
	var got sample
	err := Load(p, &got)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var got sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &got); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestLoadWithDefaults_FallsBack(t *testing.T) {
	def := writeFile(t, "port: 7000\n")
	var got sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), def, &got); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if got.Port != 7000 {
		t.Errorf("port = %d", got.Port)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	p := writeFile(t, "port: 8080\nprot: 9090\n")
	var got sample
	if err := Load(p, &got); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	p := writeFile(t, "")
	got := sample{Port: 1}
	if err := Load(p, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Port != 1 {
		t.Errorf("port = %d", got.Port)
	}
}
