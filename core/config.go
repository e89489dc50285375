/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"math"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

var config *toml.Tree
var configFileDir string

// LoadConfig loads the configuration from the specified configuration file.
func LoadConfig(file string) {
	var err error
	config, err = toml.LoadFile(file)
	if err != nil {
		LogFatal("Config", "Unable to load configuration file: "+err.Error())
	}
	configFileDir = filepath.Dir(file)
}

// ResolveConfigFileRelPath resolves a path relative to the configuration
// file's directory. Absolute paths and empty strings pass through unchanged.
func ResolveConfigFileRelPath(target string) string {
	if target == "" || filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(configFileDir, target)
}

// LoadConfigString loads the configuration from a TOML string. Intended for tests.
func LoadConfigString(data string) {
	var err error
	config, err = toml.Load(data)
	if err != nil {
		LogFatal("Config", "Unable to load configuration: "+err.Error())
	}
}

// GetConfigIntDefault returns the integer configuration value at the specified key or
// the specified default value if it does not exist.
func GetConfigIntDefault(key string, def int) int {
	if config == nil {
		return def
	}
	valRaw := config.Get(key)
	if valRaw == nil {
		return def
	}
	val, ok := valRaw.(int64)
	if ok && val >= math.MinInt32 && val <= math.MaxInt32 {
		return int(val)
	}
	return def
}

// GetConfigStringDefault returns the string configuration value at the specified key or
// the specified default value if it does not exist.
func GetConfigStringDefault(key string, def string) string {
	if config == nil {
		return def
	}
	valRaw := config.Get(key)
	if valRaw == nil {
		return def
	}
	val, ok := valRaw.(string)
	if ok {
		return val
	}
	return def
}

// GetConfigBoolDefault returns the boolean configuration value at the specified key or
// the specified default value if it does not exist.
func GetConfigBoolDefault(key string, def bool) bool {
	if config == nil {
		return def
	}
	valRaw := config.Get(key)
	if valRaw == nil {
		return def
	}
	val, ok := valRaw.(bool)
	if ok {
		return val
	}
	return def
}

// GetConfigUint16Default returns the integer configuration value at the specified key or
// the specified default value if it does not exist.
func GetConfigUint16Default(key string, def uint16) uint16 {
	if config == nil {
		return def
	}
	valRaw := config.Get(key)
	if valRaw == nil {
		return def
	}
	val, ok := valRaw.(int64)
	if ok && val > 0 && val <= math.MaxUint16 {
		return uint16(val)
	}
	return def
}

// GetConfigUint8Default returns the integer configuration value at the specified key or
// the specified default value if it does not exist.
func GetConfigUint8Default(key string, def uint8) uint8 {
	if config == nil {
		return def
	}
	valRaw := config.Get(key)
	if valRaw == nil {
		return def
	}
	val, ok := valRaw.(int64)
	if ok && val >= 0 && val <= math.MaxUint8 {
		return uint8(val)
	}
	return def
}

// GetConfigFloat64Default returns the float configuration value at the specified key or
// the specified default value if it does not exist.
func GetConfigFloat64Default(key string, def float64) float64 {
	if config == nil {
		return def
	}
	valRaw := config.Get(key)
	if valRaw == nil {
		return def
	}
	switch val := valRaw.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	}
	return def
}

// GetConfigArrayString returns the configuration array value at the specified key or
// nil if it does not exist.
func GetConfigArrayString(key string) []string {
	if config == nil {
		return nil
	}
	array := config.GetArray(key)
	if array == nil {
		return nil
	}
	if val, ok := array.([]string); ok {
		return val
	}
	return nil
}
