package camera

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config invalid: %v", errs)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("resolution = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	want := []string{BackendDshow, BackendMSMF, BackendVFW, BackendAny}
	if !slices.Equal(cfg.Backends, want) {
		t.Errorf("Backends = %v, want %v", cfg.Backends, want)
	}
	if cfg.SettleDelay != time.Second || cfg.RetryDelay != 500*time.Millisecond {
		t.Errorf("delays = %v/%v", cfg.SettleDelay, cfg.RetryDelay)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errors int
	}{
		{"valid", func(c *Config) {}, 0},
		{"negative device", func(c *Config) { c.Device = -1 }, 1},
		{"no backends", func(c *Config) { c.Backends = nil }, 1},
		{"unknown backend", func(c *Config) { c.Backends = []string{"qtkit"} }, 1},
		{"tiny width", func(c *Config) { c.Width = 10 }, 1},
		{"huge height", func(c *Config) { c.Height = 9000 }, 1},
		{"bad quality", func(c *Config) { c.Quality = 0 }, 1},
		{"negative delay", func(c *Config) { c.RetryDelay = -time.Second }, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if errs := cfg.Validate(); len(errs) != tc.errors {
				t.Errorf("Validate() = %v, want %d error(s)", errs, tc.errors)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		p := GetPreset(name)
		if p == nil {
			t.Fatalf("preset %q missing", name)
		}
		if errs := p.Validate(); len(errs) > 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if GetPreset("8k") != nil {
		t.Error("expected nil for unknown preset")
	}
}

func TestManager_UpdateConfig(t *testing.T) {
	m := NewManager(DefaultConfig())

	var applied Config
	m.OnConfigChange = func(cfg Config) error {
		applied = cfg
		return nil
	}

	if err := m.UpdateConfig(map[string]interface{}{"preset": Preset720p, "quality": float64(60)}); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}

	got := m.GetConfig()
	if got.Width != 1280 || got.Height != 720 || got.Quality != 60 {
		t.Errorf("config = %dx%d q%d", got.Width, got.Height, got.Quality)
	}
	if applied.Width != 1280 {
		t.Error("OnConfigChange not called with new config")
	}
}

func TestManager_RejectsInvalid(t *testing.T) {
	m := NewManager(DefaultConfig())

	if err := m.UpdateConfig(map[string]interface{}{"width": 5}); err == nil {
		t.Error("expected validation error")
	}
	if m.GetConfig().Width != 640 {
		t.Error("invalid update should not be stored")
	}
	if err := m.UpdateConfig(map[string]interface{}{"preset": "nope"}); err == nil {
		t.Error("expected unknown preset error")
	}
}

func TestManager_CallbackError(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.OnConfigChange = func(Config) error { return errors.New("device busy") }

	if err := m.SetConfig(QVGAConfig()); err == nil {
		t.Error("expected callback error to propagate")
	}
}

func TestManager_GetConfigJSON(t *testing.T) {
	m := NewManager(DefaultConfig())
	j := m.GetConfigJSON()
	if j["width"] != float64(640) {
		t.Errorf("width = %v", j["width"])
	}
}

func TestProbe_FirstOpenWins(t *testing.T) {
	var tried []string
	try := func(name string) (int, bool) {
		tried = append(tried, name)
		return len(tried), name == BackendVFW
	}

	v, backend, err := probe(context.Background(), DefaultConfig().Backends, 0, try)
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if backend != BackendVFW || v != 3 {
		t.Errorf("got backend=%s v=%d", backend, v)
	}
	if !slices.Equal(tried, []string{BackendDshow, BackendMSMF, BackendVFW}) {
		t.Errorf("tried = %v, should stop at first success", tried)
	}
}

func TestProbe_NoneOpen(t *testing.T) {
	_, _, err := probe(context.Background(), []string{BackendAny}, 0, func(string) (int, bool) {
		return 0, false
	})
	if !errors.Is(err, ErrNoCamera) {
		t.Errorf("expected ErrNoCamera, got %v", err)
	}
}

func TestProbe_SettlesAfterEachAttempt(t *testing.T) {
	start := time.Now()
	_, _, err := probe(context.Background(), []string{"a", "b"}, 20*time.Millisecond, func(string) (int, bool) {
		return 0, false
	})
	if !errors.Is(err, ErrNoCamera) {
		t.Fatalf("expected ErrNoCamera, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("elapsed %v, expected two settle delays", elapsed)
	}
}

func TestProbe_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := probe(ctx, []string{BackendAny}, time.Hour, func(string) (int, bool) {
		return 0, false
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBackendNames(t *testing.T) {
	names := BackendNames()
	for _, b := range DefaultConfig().Backends {
		if !slices.Contains(names, b) {
			t.Errorf("default backend %q not registered", b)
		}
	}
}
