// Package config parses the backend option channel: a line-oriented KEY = VALUE
// grammar with "#" comments, read either from a file named by an environment
// variable or supplied directly as name->value pairs by the caller (SPEC_FULL.md
// §4.8/§6). It follows the teacher's config layer in spirit — a small, strictly
// validated struct decoded from a simple external format, errors reported rather
// than panicked — but the grammar itself (KEY = VALUE, not YAML) is the source's.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// EnvFileVar names the environment variable holding the path to a backend options
// file (SPEC_FULL.md §6: "the backend reads a single environment variable naming a
// config file").
const EnvFileVar = "NPUCS_OPTIONS_FILE"

// Options holds the recognised backend option-channel keys. Every other key in the
// source file is preserved in Extra so callers forwarding unknown keys downstream
// (Device, and anything future firmware versions might add) don't lose them.
type Options struct {
	SaveCachedNetwork     bool
	CachedNetworkFilePath string
	Device                string
	DisableWinograd       bool
	StrictPrecision       bool

	Extra map[string]string
}

// LoadFromEnv reads the file named by EnvFileVar, if set, and parses it. If the
// variable is unset, returns a zero-value Options and no error — there is nothing
// to honour.
func LoadFromEnv() (Options, error) {
	path := os.Getenv(EnvFileVar)
	if path == "" {
		return Options{Extra: map[string]string{}}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Options{}, fmt.Errorf("config: opening %s=%s: %w", EnvFileVar, path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a KEY = VALUE grammar with "#" comments and full-line blanks
// ignored, and validates the recognised keys' types.
func Parse(r io.Reader) (Options, error) {
	opts := Options{Extra: map[string]string{}}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := splitKV(line)
		if !ok {
			return Options{}, fmt.Errorf("config: line %d: expected KEY = VALUE, got %q", lineNo, line)
		}
		if err := opts.set(key, value); err != nil {
			return Options{}, fmt.Errorf("config: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Options{}, fmt.Errorf("config: reading options: %w", err)
	}
	return opts, nil
}

func splitKV(line string) (key, value string, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

func (o *Options) set(key, value string) error {
	switch key {
	case "SaveCachedNetwork":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("SaveCachedNetwork: %q is not a bool", value)
		}
		o.SaveCachedNetwork = b
	case "CachedNetworkFilePath":
		if value == "" {
			return fmt.Errorf("CachedNetworkFilePath: must not be empty")
		}
		o.CachedNetworkFilePath = value
	case "Device":
		o.Device = value
	case "DisableWinograd":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("DisableWinograd: %q is not a bool", value)
		}
		o.DisableWinograd = b
	case "StrictPrecision":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("StrictPrecision: %q is not a bool", value)
		}
		o.StrictPrecision = b
	default:
		o.Extra[key] = value
	}
	return nil
}
