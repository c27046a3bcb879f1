package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"
)

// ErrConfigurationMissing is returned (wrapped) when the config file or one
// of its required keys is absent.
var ErrConfigurationMissing = errors.New("configuration missing")

// MissingKeyError lists every required key that was absent or non-positive.
type MissingKeyError struct {
	Keys []string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("configuration missing: required keys %v", e.Keys)
}

func (e *MissingKeyError) Unwrap() error { return ErrConfigurationMissing }

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the status server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

type ColumnConfig struct {
	Height int `yaml:"height"`
	Width  int `yaml:"width"`
}

type WidthConfig struct {
	Width int `yaml:"width"`
}

// LayoutConfig is the `layout` section: the pixel sizes of the two columns
// and the chrome between them.
type LayoutConfig struct {
	Column     ColumnConfig `yaml:"column"`
	Divider    WidthConfig  `yaml:"divider"`
	SideBorder WidthConfig  `yaml:"side_border"`
}

// HeaderConfig is the `header` section. Height belongs to the layout, the
// font draws the date title.
type HeaderConfig struct {
	Height   int    `yaml:"height"`
	Font     string `yaml:"font"`
	FontSize int    `yaml:"font_size"`
}

// RegionFontConfig is shared by the schedule, action_list and footer sections.
type RegionFontConfig struct {
	HeaderFont     string `yaml:"header_font"`
	HeaderFontSize int    `yaml:"header_font_size"`
}

type BodyConfig struct {
	Font     string `yaml:"font"`
	FontSize int    `yaml:"font_size"`
}

// IconConfig names the symbol fonts (file names inside FontDir, with extension).
type IconConfig struct {
	Solid   string `yaml:"solid"`
	Regular string `yaml:"regular"`
}

type DisplayConfig struct {
	// Driver is "spi" for the pure Go driver, "cgo" for the Waveshare C SDK
	// or "none" to render only.
	Driver string `yaml:"driver"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type SnapshotConfig struct {
	URL   string `yaml:"url"`
	File  string `yaml:"file"`
	Token string `yaml:"token,omitempty"`
}

type BatteryConfig struct {
	// Source is "pisugar", "i2c" or "none".
	Source  string `yaml:"source"`
	Address string `yaml:"address"`
	RTCWake bool   `yaml:"rtc_wake"`
}

type AlertsConfig struct {
	SNSTopicARN string `yaml:"sns_topic_arn,omitempty"`
}

// Config is the top-level application configuration. It is loaded once at
// startup and treated as read-only afterwards.
type Config struct {
	// FontDir holds <font>.ttf files and the icon fonts.
	FontDir string `yaml:"font_dir"`

	// Timezone is the IANA timezone used for the header clock and ICS expansion.
	Timezone string `yaml:"timezone"`

	// Listen is the HTTP listen address for the status server.
	Listen string `yaml:"listen"`

	// RefreshCron is a cron-style schedule for daemon mode.
	RefreshCron string `yaml:"refresh"`

	// StateDir keeps the snapshot cache, the last-rendered marker and previews.
	StateDir string `yaml:"state_dir"`

	LogLevel string `yaml:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`

	Layout     LayoutConfig     `yaml:"layout"`
	Header     HeaderConfig     `yaml:"header"`
	Schedule   RegionFontConfig `yaml:"schedule"`
	ActionList RegionFontConfig `yaml:"action_list"`
	Footer     RegionFontConfig `yaml:"footer"`
	Body       BodyConfig       `yaml:"body"`
	Icons      IconConfig       `yaml:"icons"`

	Display  DisplayConfig  `yaml:"display"`
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// ICS calendars are expanded for today and merged into the schedule.
	ICS        []ICSConfig `yaml:"ics"`
	ShowAllDay bool        `yaml:"show_all_day"`

	Battery BatteryConfig `yaml:"battery"`
	Alerts  AlertsConfig  `yaml:"alerts"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty"`
}

// Native geometry of the Waveshare 7.5" B panel driven by "spi" and "cgo".
const (
	PanelWidth  = 800
	PanelHeight = 480
)

// envOverrides are applied after the YAML file is read.
type envOverrides struct {
	SnapshotURL   string `env:"ORGANIZER_SNAPSHOT_URL"`
	SnapshotToken string `env:"ORGANIZER_SNAPSHOT_TOKEN"`
	Listen        string `env:"ORGANIZER_LISTEN"`
	SNSTopicARN   string `env:"ORGANIZER_SNS_TOPIC_ARN"`
}

// DefaultConfig returns a complete configuration for the Waveshare 7.5" B
// panel (800x480). It is what -init-config writes.
func DefaultConfig() *Config {
	c := &Config{
		FontDir: "/usr/share/organizer/font",
		Layout: LayoutConfig{
			Column:     ColumnConfig{Height: 340, Width: 393},
			Divider:    WidthConfig{Width: 4},
			SideBorder: WidthConfig{Width: 5},
		},
		Header:     HeaderConfig{Height: 50, Font: "Roboto-Bold", FontSize: 30},
		Schedule:   RegionFontConfig{HeaderFont: "Roboto-Medium", HeaderFontSize: 22},
		ActionList: RegionFontConfig{HeaderFont: "Roboto-Medium", HeaderFontSize: 22},
		Footer:     RegionFontConfig{HeaderFont: "Roboto-Medium", HeaderFontSize: 16},
		Body:       BodyConfig{Font: "Roboto-Regular", FontSize: 16},
		Snapshot:   SnapshotConfig{File: "/var/lib/organizer/current.json"},
	}
	c.Normalize()
	return c
}

// Normalize fills in optional values. Required keys are left alone so that
// Validate can report them.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "55 */2 * * *"
	}
	if c.StateDir == "" {
		c.StateDir = "/var/lib/organizer"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat != "json" {
		c.LogFormat = "text"
	}
	if c.Icons.Solid == "" {
		c.Icons.Solid = "fa5-solid.otf"
	}
	if c.Icons.Regular == "" {
		c.Icons.Regular = "fa5-regular.otf"
	}
	switch c.Display.Driver {
	case "spi", "cgo", "none":
	default:
		c.Display.Driver = "none"
	}
	if c.Display.Width <= 0 {
		c.Display.Width = PanelWidth
	}
	if c.Display.Height <= 0 {
		c.Display.Height = PanelHeight
	}
	switch c.Battery.Source {
	case "pisugar", "i2c", "none":
	default:
		c.Battery.Source = "pisugar"
	}
	if c.Battery.Address == "" {
		c.Battery.Address = "127.0.0.1:8423"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Validate reports every missing required key at once.
func (c *Config) Validate() error {
	var missing []string
	str := func(key, v string) {
		if v == "" {
			missing = append(missing, key)
		}
	}
	num := func(key string, v int) {
		if v <= 0 {
			missing = append(missing, key)
		}
	}

	str("font_dir", c.FontDir)
	num("layout.column.height", c.Layout.Column.Height)
	num("layout.column.width", c.Layout.Column.Width)
	num("layout.divider.width", c.Layout.Divider.Width)
	num("layout.side_border.width", c.Layout.SideBorder.Width)
	num("header.height", c.Header.Height)
	str("header.font", c.Header.Font)
	num("header.font_size", c.Header.FontSize)
	str("schedule.header_font", c.Schedule.HeaderFont)
	num("schedule.header_font_size", c.Schedule.HeaderFontSize)
	str("action_list.header_font", c.ActionList.HeaderFont)
	num("action_list.header_font_size", c.ActionList.HeaderFontSize)
	str("footer.header_font", c.Footer.HeaderFont)
	num("footer.header_font_size", c.Footer.HeaderFontSize)
	str("body.font", c.Body.Font)
	num("body.font_size", c.Body.FontSize)
	if c.Snapshot.URL == "" && c.Snapshot.File == "" {
		missing = append(missing, "snapshot.url|snapshot.file")
	}

	if len(missing) > 0 {
		return &MissingKeyError{Keys: missing}
	}

	// The hardware drivers push fixed-size frames.
	if c.Display.Driver == "spi" || c.Display.Driver == "cgo" {
		if c.Display.Width != PanelWidth || c.Display.Height != PanelHeight {
			return fmt.Errorf("config: display %dx%d does not match the %s panel (%dx%d)",
				c.Display.Width, c.Display.Height, c.Display.Driver, PanelWidth, PanelHeight)
		}
	}
	return nil
}

// Dimensions is the flat view of the layout keys used by the renderer.
type Dimensions struct {
	ColumnWidth     int
	ColumnHeight    int
	DividerWidth    int
	HeaderHeight    int
	SideBorderWidth int
}

func (c *Config) Dimensions() Dimensions {
	return Dimensions{
		ColumnWidth:     c.Layout.Column.Width,
		ColumnHeight:    c.Layout.Column.Height,
		DividerWidth:    c.Layout.Divider.Width,
		HeaderHeight:    c.Header.Height,
		SideBorderWidth: c.Layout.SideBorder.Width,
	}
}

// Location resolves Timezone, falling back to time.Local when it is empty
// or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load reads, normalizes and validates the YAML file at path, then applies
// environment overrides. A missing file is a configuration error; there is
// no implicit first-run default.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: config path is empty", ErrConfigurationMissing)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigurationMissing, path)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	if o.SnapshotURL != "" {
		c.Snapshot.URL = o.SnapshotURL
	}
	if o.SnapshotToken != "" {
		c.Snapshot.Token = o.SnapshotToken
	}
	if o.Listen != "" {
		c.Listen = o.Listen
	}
	if o.SNSTopicARN != "" {
		c.Alerts.SNSTopicARN = o.SNSTopicARN
	}
	return nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".organizer-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
