// Package config loads the board configuration used to bring up the HAL.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/errcode"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/platform/boards"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
)

const (
	AppName           = "radarhal"
	DefaultConfigName = "radarhal"
	DefaultBoard      = "sparkfun_a111"
	EnvConfig         = "RADARHAL_CONFIG"
)

// SPI overrides the board's SPI wiring and clock.
type SPI struct {
	Bus     int    `mapstructure:"bus" yaml:"bus"`
	Device  int    `mapstructure:"device" yaml:"device"`
	SpeedHz uint32 `mapstructure:"speed_hz" yaml:"speed_hz"`
	Mode    uint8  `mapstructure:"mode" yaml:"mode"`
}

// Pins overrides the board's GPIO assignment (BCM numbers, -1 = absent).
type Pins struct {
	Interrupt     []int `mapstructure:"interrupt" yaml:"interrupt"`
	Enable        int   `mapstructure:"enable" yaml:"enable"`
	Reset         int   `mapstructure:"reset" yaml:"reset"`
	SlaveSelect   int   `mapstructure:"slave_select" yaml:"slave_select"`
	ChipSelectMux []int `mapstructure:"chip_select_mux" yaml:"chip_select_mux,omitempty"`
}

// Log configures the HAL log block.
type Log struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// Board is the full bring-up configuration.
type Board struct {
	Board          string `mapstructure:"board" yaml:"board"`
	SPI            SPI    `mapstructure:"spi" yaml:"spi"`
	Pins           Pins   `mapstructure:"pins" yaml:"pins"`
	Log            Log    `mapstructure:"log" yaml:"log"`
	Threading      bool   `mapstructure:"threading" yaml:"threading"`
	SemaphoreDepth int    `mapstructure:"semaphore_depth" yaml:"semaphore_depth"`
}

// Default returns the configuration of a named board with no overrides.
func Default(board string) (Board, error) {
	d, ok := boards.Lookup(board)
	if !ok {
		return Board{}, &errcode.E{C: errcode.InvalidConfig, Op: "config", Msg: "unknown board " + board}
	}
	return Board{
		Board: d.Name,
		SPI:   SPI{Bus: d.SPI.Bus, Device: d.SPI.Device, SpeedHz: d.SPI.SpeedHz, Mode: d.SPI.Mode},
		Pins: Pins{
			Interrupt:     append([]int(nil), d.Interrupt...),
			Enable:        d.Enable,
			Reset:         d.Reset,
			SlaveSelect:   d.SlaveSelect,
			ChipSelectMux: append([]int(nil), d.ChipSelectMux...),
		},
		Log:            Log{Level: "info", MaxSizeMB: 10, MaxBackups: 3},
		Threading:      true,
		SemaphoreDepth: 16,
	}, nil
}

func setDefaults(v *viper.Viper, b Board) {
	v.SetDefault("board", b.Board)
	v.SetDefault("spi.bus", b.SPI.Bus)
	v.SetDefault("spi.device", b.SPI.Device)
	v.SetDefault("spi.speed_hz", b.SPI.SpeedHz)
	v.SetDefault("spi.mode", b.SPI.Mode)
	v.SetDefault("pins.interrupt", b.Pins.Interrupt)
	v.SetDefault("pins.enable", b.Pins.Enable)
	v.SetDefault("pins.reset", b.Pins.Reset)
	v.SetDefault("pins.slave_select", b.Pins.SlaveSelect)
	v.SetDefault("pins.chip_select_mux", b.Pins.ChipSelectMux)
	v.SetDefault("log.level", b.Log.Level)
	v.SetDefault("log.file", b.Log.File)
	v.SetDefault("log.max_size_mb", b.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", b.Log.MaxBackups)
	v.SetDefault("threading", b.Threading)
	v.SetDefault("semaphore_depth", b.SemaphoreDepth)
}

// Flag names bound by LoadFlags.
const (
	FlagBoard    = "board"
	FlagLogLevel = "log-level"
	FlagLogFile  = "log-file"
)

// Load reads path (or $RADARHAL_CONFIG, or radarhal.yaml on the search
// path). A missing file on the search path is not an error; board defaults
// apply. Environment variables RADARHAL_<KEY> override file values.
func Load(path string) (Board, error) { return load(path, nil) }

// LoadFlags is Load with command line flags taking precedence over the
// environment and the file. Flags absent from fs are ignored.
func LoadFlags(path string, fs *pflag.FlagSet) (Board, error) { return load(path, fs) }

func load(path string, fs *pflag.FlagSet) (Board, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
		v.AddConfigPath("/etc/" + AppName)
	}
	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("board", DefaultBoard)
	if fs != nil {
		for key, name := range map[string]string{
			"board":     FlagBoard,
			"log.level": FlagLogLevel,
			"log.file":  FlagLogFile,
		} {
			if f := fs.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &nf) {
			return Board{}, errcode.Wrap(errcode.InvalidConfig, "config_read", 0, err)
		}
	}

	// Board defaults depend on which board was selected.
	def, err := Default(v.GetString("board"))
	if err != nil {
		return Board{}, err
	}
	setDefaults(v, def)

	var b Board
	if err := v.Unmarshal(&b); err != nil {
		return Board{}, errcode.Wrap(errcode.InvalidConfig, "config_decode", 0, err)
	}
	return b, b.Validate()
}

// Validate rejects configurations the HAL cannot bring up.
func (b Board) Validate() error {
	bad := func(msg string) error {
		return &errcode.E{C: errcode.InvalidConfig, Op: "config", Msg: msg}
	}
	d, ok := boards.Lookup(b.Board)
	if !ok {
		return bad("unknown board " + b.Board)
	}
	if b.SPI.SpeedHz == 0 {
		return bad("spi.speed_hz must be > 0")
	}
	if b.SPI.Mode > 3 {
		return bad("spi.mode must be 0..3")
	}
	if b.SPI.Bus < 0 || b.SPI.Device < 0 {
		return bad("spi bus/device must be >= 0")
	}
	if len(b.Pins.Interrupt) != d.SensorCount {
		return bad(fmt.Sprintf("pins.interrupt needs %d entries", d.SensorCount))
	}
	if b.Pins.Enable < 0 {
		return bad("pins.enable is required")
	}
	if d.Power == boards.ResetLine && b.Pins.Reset < 0 {
		return bad("pins.reset is required for " + d.Name)
	}
	if d.Power == boards.EnableOnly && b.Pins.Reset >= 0 {
		return bad(d.Name + " has no reset line; pins.reset must be -1")
	}
	if d.SensorCount > 1 && d.SensorCount > 1<<len(b.Pins.ChipSelectMux) {
		return bad("pins.chip_select_mux cannot address every sensor")
	}
	if _, ok := types.ParseLogLevel(b.Log.Level); !ok {
		return bad("unknown log.level " + b.Log.Level)
	}
	if b.SemaphoreDepth < 1 {
		return bad("semaphore_depth must be >= 1")
	}
	return nil
}

// LogLevel is the parsed log.level (Info if invalid).
func (b Board) LogLevel() types.LogLevel {
	l, _ := types.ParseLogLevel(b.Log.Level)
	return l
}

// Descriptor applies the overrides to the registered board.
func (b Board) Descriptor() (boards.Descriptor, error) {
	if err := b.Validate(); err != nil {
		return boards.Descriptor{}, err
	}
	d, _ := boards.Lookup(b.Board)
	d.SPI = boards.SPI{Bus: b.SPI.Bus, Device: b.SPI.Device, SpeedHz: b.SPI.SpeedHz, Mode: b.SPI.Mode}
	d.Interrupt = append([]int(nil), b.Pins.Interrupt...)
	d.Enable = b.Pins.Enable
	d.Reset = b.Pins.Reset
	d.SlaveSelect = b.Pins.SlaveSelect
	d.ChipSelectMux = append([]int(nil), b.Pins.ChipSelectMux...)
	return d, nil
}

// Dump writes b as YAML.
func Dump(w io.Writer, b Board) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return err
	}
	return enc.Close()
}
