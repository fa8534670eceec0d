package dbpool

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// settingsFile is the top-level TOML document for connection pool
// configuration, mirroring internal/parser/toml's schemaFile shape:
// one struct per TOML table, decoded directly by BurntSushi/toml.
type settingsFile struct {
	Connection tomlConnection `toml:"connection"`
	Pool       tomlPool       `toml:"pool"`
}

type tomlConnection struct {
	DSNPrefix   string `toml:"dsn_prefix"`
	User        string `toml:"user"`
	Password    string `toml:"password"`
	DriverClass string `toml:"driver_class"`
}

type tomlPool struct {
	MaxConnections   int `toml:"max_connections"`
	HardCap          int `toml:"hard_cap"`
	KeepAliveSeconds int `toml:"keep_alive_seconds"`
}

// LoadSettingsFile reads connection settings and a pool Config from a
// TOML file at path.
func LoadSettingsFile(path string) (Settings, Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, Config{}, fmt.Errorf("dbpool: open settings file %q: %w", path, err)
	}
	defer f.Close()
	return DecodeSettings(f)
}

// DecodeSettings reads connection settings and a pool Config from TOML
// content on r.
func DecodeSettings(r io.Reader) (Settings, Config, error) {
	var sf settingsFile
	if _, err := toml.NewDecoder(r).Decode(&sf); err != nil {
		return Settings{}, Config{}, fmt.Errorf("dbpool: decode settings: %w", err)
	}

	settings := DefaultSettings()
	if sf.Connection.DSNPrefix != "" {
		settings.DSNPrefix = sf.Connection.DSNPrefix
	}
	if sf.Connection.User != "" {
		settings.User = sf.Connection.User
	}
	if sf.Connection.Password != "" {
		settings.Password = sf.Connection.Password
		settings.HasPassword = true
	}
	settings.DriverClass = sf.Connection.DriverClass

	maxConnections := sf.Pool.MaxConnections
	if maxConnections <= 0 {
		maxConnections = 100
	}
	hardCap := sf.Pool.HardCap
	if hardCap <= 0 {
		hardCap = 1
	}
	keepAlive := time.Duration(sf.Pool.KeepAliveSeconds) * time.Second
	if keepAlive <= 0 {
		keepAlive = 5 * time.Minute
	}

	cfg := Config{
		KeepAlive: keepAlive,
		Schedule:  HalvingSchedule(maxConnections, hardCap),
	}
	return settings, cfg, nil
}
