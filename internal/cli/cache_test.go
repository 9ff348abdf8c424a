package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/scopeview/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", tmp)
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(tmp, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCachePathCommand(t *testing.T) {
	c, buf := newTestCLI(t)
	if err := execute(c, "cache", "path"); err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName)
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	c, buf := newTestCLI(t)
	dir, _ := cacheDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"one", "two"} {
		if err := fc.Set(ctx, key, []byte("<svg/>"), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	if err := execute(c, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !strings.Contains(buf.String(), "Cleared 2 cached artifacts") {
		t.Errorf("output = %q", buf.String())
	}
	if _, ok, _ := fc.Get(ctx, "one"); ok {
		t.Error("entry still cached after clear")
	}
}

func TestCacheClearCommand_Empty(t *testing.T) {
	c, buf := newTestCLI(t)
	if err := execute(c, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !strings.Contains(buf.String(), "Cache is empty") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNewCache(t *testing.T) {
	c, _ := newTestCLI(t)
	if _, ok := c.newCache(true).(cache.NullCache); !ok {
		t.Error("newCache(true) should be a NullCache")
	}
	fc, ok := c.newCache(false).(*cache.FileCache)
	if !ok {
		t.Fatal("newCache(false) should be a FileCache")
	}
	if want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName); fc.Dir() != want {
		t.Errorf("cache dir = %q, want %q", fc.Dir(), want)
	}
}
