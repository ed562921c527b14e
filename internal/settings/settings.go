// Package settings loads per-user preferences from ~/.yabs/settings.yaml.
// These are settings about the user's environment, not about a project:
// project workflow lives in yabs.yaml and is handled by the config package.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Settings are the per-user preferences. Every field has a default, so a
// missing settings file is not an error.
type Settings struct {
	// TokenVar is the environment variable holding the GitHub token.
	// A workflow's gh_auth setting takes precedence over this.
	TokenVar string
	// Verbose is the default output level (0 to 6) when no -v or -q
	// flag is given.
	Verbose int
	// NoColor disables styled terminal output.
	NoColor bool
	// HistoryDB overrides the run history database location.
	HistoryDB string
}

func defaults() Settings {
	return Settings{
		TokenVar: "GITHUB_OAUTH_TOKEN",
		Verbose:  3,
	}
}

// Dir returns the per-user settings directory (~/.yabs).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".yabs"), nil
}

// Load reads settings.yaml from the given directory. A missing file yields
// the defaults without error; a malformed file is an error.
func Load(dir string) (Settings, error) {
	s := defaults()

	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("gh_auth.oauth_token_var", s.TokenVar)
	v.SetDefault("verbose", s.Verbose)
	v.SetDefault("no_color", s.NoColor)
	v.SetDefault("history_db", s.HistoryDB)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return s, nil
		}
		return s, fmt.Errorf("reading settings in %s: %w", dir, err)
	}

	s.TokenVar = v.GetString("gh_auth.oauth_token_var")
	s.Verbose = v.GetInt("verbose")
	s.NoColor = v.GetBool("no_color")
	s.HistoryDB = v.GetString("history_db")
	return s, nil
}

// LoadUser reads the current user's settings, tolerating a missing home
// directory by falling back to defaults.
func LoadUser() Settings {
	dir, err := Dir()
	if err != nil {
		return defaults()
	}
	s, err := Load(dir)
	if err != nil {
		return defaults()
	}
	return s
}
