package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const validYAML = `
font_dir: /fonts
timezone: UTC
layout:
  column:
    height: 340
    width: 393
  divider:
    width: 4
  side_border:
    width: 5
header:
  height: 50
  font: Roboto-Bold
  font_size: 30
schedule:
  header_font: Roboto-Medium
  header_font_size: 22
action_list:
  header_font: Roboto-Medium
  header_font_size: 22
footer:
  header_font: Roboto-Light
  header_font_size: 16
body:
  font: Roboto-Regular
  font_size: 16
snapshot:
  url: https://storage.example.com/organizer/current.json
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Dimensions{ColumnWidth: 393, ColumnHeight: 340, DividerWidth: 4, HeaderHeight: 50, SideBorderWidth: 5}
	if got := cfg.Dimensions(); got != want {
		t.Errorf("Dimensions() = %+v, want %+v", got, want)
	}
	if cfg.Icons.Solid != "fa5-solid.otf" || cfg.Icons.Regular != "fa5-regular.otf" {
		t.Errorf("icon defaults not applied: %+v", cfg.Icons)
	}
	if cfg.Display.Driver != "none" || cfg.Display.Width != 800 || cfg.Display.Height != 480 {
		t.Errorf("display defaults not applied: %+v", cfg.Display)
	}
	if cfg.Battery.Address != "127.0.0.1:8423" {
		t.Errorf("battery address = %q", cfg.Battery.Address)
	}
	if cfg.Location().String() != "UTC" {
		t.Errorf("Location() = %s", cfg.Location())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigurationMissing) {
		t.Fatalf("Load(absent) error = %v, want ErrConfigurationMissing", err)
	}
}

func TestLoadMissingKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "font_dir: /fonts\nbody:\n  font: Roboto-Regular\n"))
	if !errors.Is(err, ErrConfigurationMissing) {
		t.Fatalf("error = %v, want ErrConfigurationMissing", err)
	}

	var mk *MissingKeyError
	if !errors.As(err, &mk) {
		t.Fatalf("error %T is not *MissingKeyError", err)
	}
	want := []string{
		"layout.column.height",
		"layout.column.width",
		"layout.divider.width",
		"layout.side_border.width",
		"header.height",
		"header.font",
		"header.font_size",
		"schedule.header_font",
		"schedule.header_font_size",
		"action_list.header_font",
		"action_list.header_font_size",
		"footer.header_font",
		"footer.header_font_size",
		"body.font_size",
		"snapshot.url|snapshot.file",
	}
	if !reflect.DeepEqual(mk.Keys, want) {
		t.Errorf("missing keys\n got %v\nwant %v", mk.Keys, want)
	}
}

func TestValidateDisplaySize(t *testing.T) {
	tests := []struct {
		driver        string
		width, height int
		wantErr       bool
	}{
		{"spi", 800, 480, false},
		{"spi", 640, 384, true},
		{"cgo", 800, 600, true},
		{"none", 640, 384, false},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.FontDir = "/fonts"
		cfg.Display = DisplayConfig{Driver: tt.driver, Width: tt.width, Height: tt.height}
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s %dx%d: Validate() = %v, wantErr %v", tt.driver, tt.width, tt.height, err, tt.wantErr)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ORGANIZER_SNAPSHOT_URL", "https://override.example.com/s.json")
	t.Setenv("ORGANIZER_LISTEN", "0.0.0.0:9000")
	t.Setenv("ORGANIZER_SNS_TOPIC_ARN", "arn:aws:sns:eu-west-2:123456789012:battery")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Snapshot.URL != "https://override.example.com/s.json" {
		t.Errorf("snapshot url = %q", cfg.Snapshot.URL)
	}
	if cfg.Listen != "0.0.0.0:9000" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.Alerts.SNSTopicARN == "" {
		t.Errorf("sns topic not overridden")
	}
}

func TestSaveThenLoadDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(saved default): %v", err)
	}
	if cfg.Dimensions() != DefaultConfig().Dimensions() {
		t.Errorf("round trip changed dimensions: %+v", cfg.Dimensions())
	}
}

func TestFont(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		region, field string
		want          FontSpec
	}{
		{RegionHeader, FieldTitle, FontSpec{"/fonts/Roboto-Bold.ttf", 30}},
		{RegionHeader, FieldBody, FontSpec{"/fonts/Roboto-Regular.ttf", 16}},
		{RegionHeader, FieldIcon, FontSpec{"/fonts/fa5-solid.otf", 25}},
		{RegionSchedule, FieldTitle, FontSpec{"/fonts/Roboto-Medium.ttf", 22}},
		{RegionSchedule, FieldIcon, FontSpec{"/fonts/fa5-regular.otf", 25}},
		{RegionActionList, FieldIcon, FontSpec{"/fonts/fa5-solid.otf", 25}},
		{RegionActionList, FieldBullet, FontSpec{"/fonts/fa5-regular.otf", 15}},
		{RegionFooter, FieldTitle, FontSpec{"/fonts/Roboto-Light.ttf", 16}},
		{RegionFooter, FieldIcon, FontSpec{"/fonts/fa5-solid.otf", 15}},
		{RegionFooter, FieldBody, FontSpec{"/fonts/Roboto-Regular.ttf", 16}},
	}
	for _, tt := range tests {
		t.Run(tt.region+"."+tt.field, func(t *testing.T) {
			got, err := cfg.Font(tt.region, tt.field)
			if err != nil {
				t.Fatalf("Font: %v", err)
			}
			if got != tt.want {
				t.Errorf("Font = %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, err := cfg.Font(RegionFooter, FieldBullet); !errors.Is(err, ErrConfigurationMissing) {
		t.Errorf("unknown pair error = %v, want ErrConfigurationMissing", err)
	}
}
