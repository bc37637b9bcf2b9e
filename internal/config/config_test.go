package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

// isolate keeps the user's real config file out of the test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drowsy.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefaults_Flattened(t *testing.T) {
	d, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}

	for _, key := range []string{
		"log_level",
		"display",
		"driver.eye_closed_time",
		"animation.indicator_duration",
		"camera.width",
		"camera.backends",
		"detection.face_cascade",
		"alarm.backend",
		"recorder.codec",
		"events.csv_path",
		"web.addr",
	} {
		if _, ok := d[key]; !ok {
			t.Errorf("missing default %q", key)
		}
	}
	if _, ok := d["camera"]; ok {
		t.Error("nested sections should be flattened")
	}
}

func TestLoad_DefaultsOnly(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Driver != want.Driver {
		t.Errorf("Driver = %+v, want %+v", cfg.Driver, want.Driver)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("camera = %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if len(cfg.Camera.Backends) != len(want.Camera.Backends) {
		t.Errorf("Backends = %v", cfg.Camera.Backends)
	}
	if cfg.Web.Addr != ":8080" {
		t.Errorf("Web.Addr = %q", cfg.Web.Addr)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	isolate(t)
	path := writeFile(t, `
log_level: debug
driver:
  eye_closed_time: 2s
camera:
  width: 320
  height: 240
events:
  csv_path: ""
  sqlite_path: history.db
`)

	cfg, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Driver.EyeClosedTime != 2*time.Second {
		t.Errorf("EyeClosedTime = %v", cfg.Driver.EyeClosedTime)
	}
	if cfg.Driver.WarningTime != 5*time.Second {
		t.Errorf("WarningTime = %v, default should survive", cfg.Driver.WarningTime)
	}
	if cfg.Camera.Width != 320 || cfg.Camera.Height != 240 {
		t.Errorf("camera = %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Events.CSVPath != "" || cfg.Events.SQLitePath != "history.db" {
		t.Errorf("events = %+v", cfg.Events)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DROWSY_CAMERA_DEVICE", "2")
	t.Setenv("DROWSY_WEB_ADDR", ":9090")

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Camera.Device != 2 {
		t.Errorf("Device = %d", cfg.Camera.Device)
	}
	if cfg.Web.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Web.Addr)
	}
}

func TestLoad_FlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv("DROWSY_CAMERA_WIDTH", "1280")
	path := writeFile(t, "camera:\n  width: 320\n")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Int("width", 640, "")
	cmd.Flags().Bool("display", true, "")
	if err := cmd.Flags().Parse([]string{"--width", "800", "--display=false"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cmd, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Camera.Width != 800 {
		t.Errorf("Width = %d, want flag value 800", cfg.Camera.Width)
	}
	if cfg.Display {
		t.Error("Display should be false from the flag")
	}
}

func TestLoad_UnchangedFlagKeepsConfig(t *testing.T) {
	isolate(t)
	path := writeFile(t, "camera:\n  width: 320\n  height: 240\n")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Int("width", 640, "")

	cfg, err := Load(cmd, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Camera.Width != 320 {
		t.Errorf("Width = %d, unchanged flag should not override the file", cfg.Camera.Width)
	}
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name        string
		body        string
		expectField string
	}{
		{"broken yaml", "camera: [\n", ""},
		{"bad log format", "log_format: xml\n", "log_format"},
		{"bad driver", "driver:\n  eye_closed_time: 0s\n", "driver"},
		{"bad camera", "camera:\n  width: 10\n", "camera"},
		{"bad alarm", "alarm:\n  backend: trumpet\n", "alarm"},
		{"bad scale", "detection:\n  scale_factor: 1\n", "detection.scale_factor"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(nil, writeFile(t, tc.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.expectField == "" {
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %T: %v", err, err)
			}
			if ce.Field != tc.expectField {
				t.Errorf("Field = %q, want %q", ce.Field, tc.expectField)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "drowsy.yaml")

	cfg := Default()
	cfg.Camera.Device = 3
	cfg.Animation.CruiseSpeed = 80
	cfg.Alarm.Sound = "beep.wav"
	if err := Write(&cfg, path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Camera.Device != 3 || got.Animation.CruiseSpeed != 80 || got.Alarm.Sound != "beep.wav" {
		t.Errorf("round trip lost values: camera=%d speed=%v sound=%q",
			got.Camera.Device, got.Animation.CruiseSpeed, got.Alarm.Sound)
	}
	if got.Animation.IndicatorDuration != cfg.Animation.IndicatorDuration {
		t.Errorf("IndicatorDuration = %v, want %v", got.Animation.IndicatorDuration, cfg.Animation.IndicatorDuration)
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "camera", Message: "width too small"}
	if err.Error() != "camera: width too small" {
		t.Errorf("Error() = %q", err.Error())
	}
}
