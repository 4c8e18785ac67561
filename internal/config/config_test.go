package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sarth-shah20/berth/internal/config"
)

const sampleDescriptor = `name: shop
version: "1"

services:
  db:
    image: postgres:12.13-alpine
    ports:
      - "5432:5432"
    env_file: .env

  adminer:
    image: adminer:latest
    ports:
      - "8080:8080"
    depends_on:
      - db

  backend:
    build:
      context: .
      dockerfile: devel.Dockerfile
    ports:
      - "8000:8000"
    env_file: .env
    depends_on:
      - db
    volumes:
      - "./:/usr/src/app:z"
`

// writeProject lays out a loadable project in a temp dir: descriptor, env
// file, and the dockerfile the backend builds from.
func writeProject(t *testing.T, descriptor string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"berth.yaml":       descriptor,
		".env":             "POSTGRES_PASSWORD=secret\n",
		"devel.Dockerfile": "FROM golang:1.25\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeProject(t, sampleDescriptor)

	cfg, err := config.Load(filepath.Join(dir, "berth.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "shop" {
		t.Errorf("name = %q, want shop", cfg.Name)
	}
	if len(cfg.Services) != 3 {
		t.Fatalf("services = %d, want 3", len(cfg.Services))
	}
	if got, want := cfg.ServiceOrder, []string{"db", "adminer", "backend"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ServiceOrder = %v, want %v", got, want)
	}

	db := cfg.Services["db"]
	if db.Image != "postgres:12.13-alpine" {
		t.Errorf("db image = %q", db.Image)
	}
	if db.EnvFile != ".env" {
		t.Errorf("db env_file = %q", db.EnvFile)
	}

	backend := cfg.Services["backend"]
	if backend.Build == nil || backend.Build.Dockerfile != "devel.Dockerfile" {
		t.Errorf("backend build = %+v", backend.Build)
	}
	if !reflect.DeepEqual(backend.DependsOn, []string{"db"}) {
		t.Errorf("backend depends_on = %v", backend.DependsOn)
	}
	if !reflect.DeepEqual(backend.Volumes, []string{"./:/usr/src/app:z"}) {
		t.Errorf("backend volumes = %v", backend.Volumes)
	}
}

func TestLoadMissingDescriptor(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "berth.yaml"))
	if err == nil {
		t.Fatal("expected error for missing descriptor")
	}
}

func TestLoadDefaultsNameToDirectory(t *testing.T) {
	dir := t.TempDir()
	descriptor := "services:\n  db:\n    image: postgres:12.13-alpine\n"
	if err := os.WriteFile(filepath.Join(dir, "berth.yaml"), []byte(descriptor), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(filepath.Join(dir, "berth.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != filepath.Base(dir) {
		t.Errorf("name = %q, want %q", cfg.Name, filepath.Base(dir))
	}
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			Name: "shop",
			Dir:  "/tmp",
			Services: map[string]config.Service{
				"db":      {Image: "postgres:12.13-alpine", Ports: []string{"5432:5432"}},
				"adminer": {Image: "adminer:latest", Ports: []string{"8080:8080"}, DependsOn: []string{"db"}},
			},
			ServiceOrder: []string{"db", "adminer"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *config.Config) {},
		},
		{
			name: "dangling dependency",
			mutate: func(c *config.Config) {
				svc := c.Services["adminer"]
				svc.DependsOn = []string{"database"}
				c.Services["adminer"] = svc
			},
			wantErr: `unknown service "database"`,
		},
		{
			name: "dependency cycle",
			mutate: func(c *config.Config) {
				db := c.Services["db"]
				db.DependsOn = []string{"adminer"}
				c.Services["db"] = db
			},
			wantErr: "cycle",
		},
		{
			name: "self dependency",
			mutate: func(c *config.Config) {
				db := c.Services["db"]
				db.DependsOn = []string{"db"}
				c.Services["db"] = db
			},
			wantErr: "depends on itself",
		},
		{
			name: "host port collision",
			mutate: func(c *config.Config) {
				svc := c.Services["adminer"]
				svc.Ports = []string{"5432:8080"}
				c.Services["adminer"] = svc
			},
			wantErr: "host port 5432 already published",
		},
		{
			name: "unparsable port",
			mutate: func(c *config.Config) {
				svc := c.Services["db"]
				svc.Ports = []string{"database:5432"}
				c.Services["db"] = svc
			},
			wantErr: "invalid port",
		},
		{
			name: "image and build together",
			mutate: func(c *config.Config) {
				svc := c.Services["db"]
				svc.Build = &config.Build{Context: "."}
				c.Services["db"] = svc
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "neither image nor build",
			mutate: func(c *config.Config) {
				c.Services["db"] = config.Service{Ports: []string{"5432:5432"}}
			},
			wantErr: "one of image or build is required",
		},
		{
			name: "missing env file",
			mutate: func(c *config.Config) {
				svc := c.Services["db"]
				svc.EnvFile = "does-not-exist.env"
				c.Services["db"] = svc
			},
			wantErr: "not found",
		},
		{
			name: "bad volume",
			mutate: func(c *config.Config) {
				svc := c.Services["db"]
				svc.Volumes = []string{"pgdata"}
				c.Services["db"] = svc
			},
			wantErr: "invalid volume",
		},
		{
			name:    "no services",
			mutate:  func(c *config.Config) { c.Services = nil },
			wantErr: "no services declared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := config.Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			var cfgErr *config.Error
			if !errors.As(err, &cfgErr) {
				t.Errorf("error type = %T, want *config.Error", err)
			}
			if got := err.Error(); !contains(got, tt.wantErr) {
				t.Errorf("Validate() = %q, want substring %q", got, tt.wantErr)
			}
		})
	}
}

func TestValidateMissingDockerfile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Name: "shop",
		Dir:  dir,
		Services: map[string]config.Service{
			"backend": {Build: &config.Build{Context: ".", Dockerfile: "devel.Dockerfile"}},
		},
		ServiceOrder: []string{"backend"},
	}

	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected error for missing dockerfile")
	}
	if !contains(err.Error(), "devel.Dockerfile") {
		t.Errorf("error should name the dockerfile: %v", err)
	}
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		in      string
		want    config.PortMapping
		wantErr bool
	}{
		{in: "5432:5432", want: config.PortMapping{HostPort: 5432, ContainerPort: 5432, Protocol: "tcp"}},
		{in: "8080:80/udp", want: config.PortMapping{HostPort: 8080, ContainerPort: 80, Protocol: "udp"}},
		{in: "8000", wantErr: true},
		{in: "db:5432", wantErr: true},
		{in: "0:5432", wantErr: true},
		{in: "70000:5432", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := config.ParsePort(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePort(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePort(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePort(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseVolume(t *testing.T) {
	tests := []struct {
		in      string
		want    config.VolumeMount
		wantErr bool
	}{
		{in: "./:/usr/src/app:z", want: config.VolumeMount{Source: "./", Target: "/usr/src/app", Mode: "z"}},
		{in: "/data:/var/lib/postgresql/data", want: config.VolumeMount{Source: "/data", Target: "/var/lib/postgresql/data"}},
		{in: "pgdata", wantErr: true},
		{in: "./:relative", wantErr: true},
		{in: "a:b:c:d", wantErr: true},
	}

	for _, tt := range tests {
		got, err := config.ParseVolume(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseVolume(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseVolume(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVolume(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestVolumeBind(t *testing.T) {
	v := config.VolumeMount{Source: "./", Target: "/usr/src/app", Mode: "z"}
	if got, want := v.Bind("/home/dev/shop"), "/home/dev/shop:/usr/src/app:z"; got != want {
		t.Errorf("Bind() = %q, want %q", got, want)
	}

	abs := config.VolumeMount{Source: "/data", Target: "/var/lib/postgresql/data"}
	if got, want := abs.Bind("/home/dev/shop"), "/data:/var/lib/postgresql/data"; got != want {
		t.Errorf("Bind() = %q, want %q", got, want)
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
