package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// OutputType selects the event sink used during a run.
type OutputType string

const (
	OutputStdout OutputType = "stdout"
	OutputLog    OutputType = "log"
	OutputFancy  OutputType = "fancy"
)

// OutputTypes lists the accepted --output values.
var OutputTypes = []OutputType{OutputStdout, OutputLog, OutputFancy}

const (
	// Executable invoked for every archive set.
	DefaultTool = "unrar"
	// Extension (without dot) of the file anchoring an archive set.
	DefaultPrimaryExt = "rar"
)

// ParseOutputType maps a flag value onto an OutputType, ignoring case.
// An empty value selects stdout.
func ParseOutputType(s string) (OutputType, error) {
	if s == "" {
		return OutputStdout, nil
	}
	for _, t := range OutputTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid output type %q (use stdout, log or fancy)", s)
}

// Config holds application settings
type Config struct {
	Root          string
	Remove        bool
	Output        OutputType
	SkipCompleted bool
	Tool          string
	PrimaryExt    string
	DbPath        string
}

// Default returns a Config with every optional field filled in.
func Default() Config {
	return Config{
		Output:     OutputStdout,
		Tool:       DefaultTool,
		PrimaryExt: DefaultPrimaryExt,
	}
}

// Validate checks the settings a run cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.Root == "" {
		errs = append(errs, errors.New("--path is required"))
	} else if info, err := os.Stat(c.Root); err != nil {
		errs = append(errs, fmt.Errorf("root path %s: %w", c.Root, err))
	} else if !info.IsDir() {
		errs = append(errs, fmt.Errorf("root path %s is not a directory", c.Root))
	}
	if _, err := ParseOutputType(string(c.Output)); err != nil {
		errs = append(errs, err)
	}
	if c.Tool == "" {
		errs = append(errs, errors.New("extraction tool must not be empty"))
	}
	if c.PrimaryExt == "" || strings.HasPrefix(c.PrimaryExt, ".") {
		errs = append(errs, fmt.Errorf("invalid primary extension %q", c.PrimaryExt))
	}
	if c.SkipCompleted && c.DbPath == "" {
		errs = append(errs, errors.New("--skip-completed needs --db-path"))
	}
	return errors.Join(errs...)
}
