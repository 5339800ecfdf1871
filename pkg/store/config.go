package store

import (
	"os"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config provides the store base path, remote endpoint, and time zone.
type Config interface {
	BasePath() string
	RemoteURL() string
	Timezone() *time.Location
}

// LoadConfig reads the .lumen config file (searched from the working
// directory, overridable with LUMEN_CONFIG_PATH) and the LUMEN_* environment.
func LoadConfig() (Config, error) {
	viper.SetDefault("path", "~/.lumen.db")
	viper.SetDefault("remote", "")
	viper.SetDefault("timezone", "")
	viper.SetConfigName(".lumen") // .yaml is implicit
	viper.SetEnvPrefix("LUMEN")
	viper.AutomaticEnv()

	if override := os.Getenv("LUMEN_CONFIG_PATH"); override != "" {
		viper.AddConfigPath(override)
	}
	viper.AddConfigPath("./")
	viper.AddConfigPath("$HOME")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	path, err := homedir.Expand(viper.GetString("path"))
	if err != nil {
		return nil, err
	}

	loc := time.Local
	if name := viper.GetString("timezone"); name != "" {
		if parsed, err := time.LoadLocation(name); err == nil {
			loc = parsed
		}
	}

	return &fileConfig{
		Path:   path,
		Remote: viper.GetString("remote"),
		Zone:   loc,
	}, nil
}

type fileConfig struct {
	Path   string `json:"path"`
	Remote string `json:"remote"`
	Zone   *time.Location
}

func (f *fileConfig) BasePath() string {
	return f.Path
}

func (f *fileConfig) RemoteURL() string {
	return f.Remote
}

func (f *fileConfig) Timezone() *time.Location {
	return f.Zone
}
