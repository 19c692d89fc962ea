//go:build !rp2040 && !rp2350

package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"powerpico/errcode"
	"powerpico/types"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file.
const (
	EnvPrefix   = "POWERPICO_"
	EnvFile     = ".env"
	envConfig   = EnvPrefix + "CONFIG"
	envBoard    = EnvPrefix + "BOARD"
	envPlatform = EnvPrefix + "PLATFORM"
	envDebug    = EnvPrefix + "DEBUG"
	envI2C      = EnvPrefix + "I2C_ENABLED"
	envWatchdog = EnvPrefix + "WATCHDOG_ENABLED"
	envRate     = EnvPrefix + "REFRESH_RATE_HZ"
	envClock    = EnvPrefix + "CLOCK_TARGET_HZ"
	envPolicy   = EnvPrefix + "FAULT_POLICY"
)

// Load reads a YAML file over the board profile it names (Default when the
// file names none) and validates the result. Keys absent from the file keep
// the profile's values.
func Load(path string) (types.Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return types.Config{}, err
	}
	return cfg, Validate(cfg)
}

func loadFile(path string) (types.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.Config{}, errcode.Wrap(errcode.NotFound, "config", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML over the board profile it names. It does not validate.
func Parse(raw []byte) (types.Config, error) {
	var head struct {
		Board string `yaml:"board"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return types.Config{}, errcode.Wrap(errcode.InvalidParams, "config", "yaml", err)
	}
	cfg := Default()
	if head.Board != "" {
		var err error
		if cfg, err = Embedded(head.Board); err != nil {
			return types.Config{}, err
		}
	}
	// A list in the file replaces the profile's list outright.
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return types.Config{}, errcode.Wrap(errcode.InvalidParams, "config", "yaml", err)
	}
	return cfg, nil
}

// Environ merges the .env file in the working directory (if any) with the
// process environment. Process variables win.
func Environ() (map[string]string, error) {
	env, err := godotenv.Read(EnvFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, errcode.Wrap(errcode.InvalidParams, "config", EnvFile, err)
		}
		env = make(map[string]string)
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides cfg with POWERPICO_* values from env.
func ApplyEnv(cfg *types.Config, env map[string]string) error {
	if v, ok := env[envPlatform]; ok {
		cfg.Platform = v
	}
	if v, ok := env[envPolicy]; ok {
		cfg.Fault.Policy = v
	}
	for key, dst := range map[string]*bool{
		envDebug:    &cfg.Debug,
		envI2C:      &cfg.I2CEnabled,
		envWatchdog: &cfg.WatchdogEnabled,
	} {
		v, ok := env[key]
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errcode.Wrap(errcode.InvalidParams, "config", key, err)
		}
		*dst = b
	}
	for key, dst := range map[string]*uint32{
		envRate:  &cfg.RefreshRateHz,
		envClock: &cfg.Clock.TargetHz,
	} {
		v, ok := env[key]
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return errcode.Wrap(errcode.InvalidParams, "config", key, err)
		}
		*dst = uint32(n)
	}
	return nil
}

// Resolve builds the host configuration: the file named by path (or by
// POWERPICO_CONFIG when path is empty), else the profile named by
// POWERPICO_BOARD, else Default; then environment overrides; then Validate.
func Resolve(path string) (types.Config, error) {
	env, err := Environ()
	if err != nil {
		return types.Config{}, err
	}
	if path == "" {
		path = env[envConfig]
	}

	var cfg types.Config
	switch {
	case path != "":
		if cfg, err = loadFile(path); err != nil {
			return types.Config{}, err
		}
	case env[envBoard] != "":
		if cfg, err = Embedded(env[envBoard]); err != nil {
			return types.Config{}, err
		}
	default:
		cfg = Default()
	}

	if err := ApplyEnv(&cfg, env); err != nil {
		return types.Config{}, err
	}
	return cfg, Validate(cfg)
}
