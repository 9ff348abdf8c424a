package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("Get(empty) = %v, %v; want miss", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("<svg/>"), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Errorf("Get() = %q, %v, %v; want <svg/> hit", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() after Delete hit")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestFileCache_Expired(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() hit an expired entry")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Errorf("expired entry not removed: %v", err)
	}
}

func TestFileCache_Corrupt(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = %v, %v; want miss", hit, err)
	}
}

func TestFileCache_Compressed(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	svg := []byte("<svg>" + strings.Repeat(`<g class="node"><text>op</text></g>`, 200) + "</svg>")
	if err := c.Set(ctx, "k", svg, time.Hour); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(c.path("k"))
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) >= len(svg) {
		t.Errorf("entry is %d bytes for a %d byte payload; want compressed", len(raw), len(svg))
	}
	if !strings.Contains(string(raw), `"encoding":"zstd"`) {
		t.Errorf("entry does not record its encoding: %s", raw)
	}
	got, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(got) != string(svg) {
		t.Errorf("Get() = %d bytes, %v, %v; want the original payload", len(got), hit, err)
	}
}

func TestFileCache_EntryEncodings(t *testing.T) {
	tests := []struct {
		name    string
		entry   string
		want    string
		wantHit bool
	}{
		// "PHN2Zy8+" is base64 for "<svg/>".
		{"Plain", `{"data":"PHN2Zy8+"}`, "<svg/>", true},
		{"BadZstd", `{"data":"PHN2Zy8+","encoding":"zstd"}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewFileCache(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			path := c.path("k")
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte(tt.entry), 0o644); err != nil {
				t.Fatal(err)
			}
			got, hit, err := c.Get(context.Background(), "k")
			if err != nil || hit != tt.wantHit || string(got) != tt.want {
				t.Errorf("Get() = %q, %v, %v; want %q, %v", got, hit, err, tt.want, tt.wantHit)
			}
		})
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear() = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get() hit after Clear")
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("cache dir removed by Clear: %v", err)
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash is not deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("different inputs hashed equal")
	}
	if got := len(Hash([]byte("hello"))); got != 64 {
		t.Errorf("len(Hash()) = %d, want 64", got)
	}
}

func TestKeyers(t *testing.T) {
	k := NewDefaultKeyer()
	svg := k.ArtifactKey("svg", Hash([]byte("digraph {}")))
	if !strings.HasPrefix(svg, "artifact:svg:") {
		t.Errorf("ArtifactKey() = %q, want artifact:svg: prefix", svg)
	}
	if svg == k.ArtifactKey("svg", Hash([]byte("digraph { a }"))) {
		t.Error("different content produced the same key")
	}
	if svg == k.ArtifactKey("png", Hash([]byte("digraph {}"))) {
		t.Error("different formats produced the same key")
	}

	scoped := NewScopedKeyer(nil, "v1:")
	if got := scoped.ArtifactKey("svg", Hash([]byte("digraph {}"))); got != "v1:"+svg {
		t.Errorf("scoped ArtifactKey() = %q, want %q", got, "v1:"+svg)
	}
}
