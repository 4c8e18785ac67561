package envfile_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sarth-shah20/berth/internal/envfile"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, ".env", `
POSTGRES_USER=app
POSTGRES_PASSWORD=secret
POSTGRES_DB=products

# comment lines are skipped
DATABASE_URL="postgres://app:secret@db:5432/products"
`)

	got, err := envfile.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"DATABASE_URL=postgres://app:secret@db:5432/products",
		"POSTGRES_DB=products",
		"POSTGRES_PASSWORD=secret",
		"POSTGRES_USER=app",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %v, want %v", got, want)
	}
}

func TestLoadEmpty(t *testing.T) {
	path := writeFile(t, ".env", "")

	got, err := envfile.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Load() = %v, want empty", got)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := envfile.Load(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected error for missing env file")
	}
}
