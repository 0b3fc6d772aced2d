package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	cfg  Config
	home = os.Getenv("HOME")

	// FS is the filesystem configuration files are looked up in.
	FS = afero.NewOsFs()
)

func getViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("yarn_config")
	v.SetConfigType("json")
	v.SetEnvPrefix("yarn")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaultConfig() *viper.Viper {
	v := getViper()
	v.SetDefault("general.debug", false)
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.path", filepath.Join(home, ".yarn", "yarn.db"))
	v.SetDefault("database.audit_path", filepath.Join(home, ".yarn", "audit"))
	v.SetDefault("cache.ttl_seconds", 60)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	return v
}

func searchPaths() []string {
	return []string{
		".",
		filepath.Join(home, ".yarn"),
		"/etc/yarn",
	}
}

// LoadConfig reads yarn_config.json from the first search path that has one.
// Missing or unreadable files leave the defaults in place.
func LoadConfig() {
	configFile := "yarn_config.json"
	v := setDefaultConfig()

	config, err := findConfig(FS, searchPaths(), configFile)
	if err == nil {
		// viper only reads the buffer, the file on disk keeps its comments
		if err = v.ReadConfig(bytes.NewBuffer(removeComments(config))); err != nil {
			v = setDefaultConfig()
		}
	}

	if err = v.Unmarshal(&cfg); err != nil {
		setDefaultConfig().Unmarshal(&cfg)
	}
}

func SetConfig(key string, value interface{}) {
	v := setDefaultConfig()
	if err := v.MergeConfigMap(toMap(GetConfig())); err != nil {
		return
	}
	v.Set(key, value)
	if err := v.Unmarshal(&cfg); err != nil {
		setDefaultConfig().Unmarshal(&cfg)
	}
}

func GetConfig() *Config {
	if reflect.DeepEqual(cfg, Config{}) {
		LoadConfig()
	}
	return &cfg
}

func toMap(c *Config) map[string]interface{} {
	return map[string]interface{}{
		"general": map[string]interface{}{
			"debug": c.General.Debug,
		},
		"database": map[string]interface{}{
			"driver":     c.Database.Driver,
			"dsn":        c.Database.DSN,
			"path":       c.Database.Path,
			"audit_path": c.Database.AuditPath,
		},
		"cache": map[string]interface{}{
			"ttl_seconds": c.Cache.TTLSeconds,
		},
		"tracing": map[string]interface{}{
			"endpoint": c.Tracing.Endpoint,
			"insecure": c.Tracing.Insecure,
		},
	}
}

func findConfig(fs afero.Fs, paths []string, filename string) ([]byte, error) {
	for _, path := range paths {
		fullPath := filepath.Join(path, filename)
		if _, err := fs.Stat(fullPath); err == nil {
			return afero.ReadFile(fs, fullPath)
		}
	}

	return nil, fmt.Errorf("file not found in any of the paths")
}

func removeComments(configBytes []byte) []byte {
	re := regexp.MustCompile("(?m)^\\s*//.*$") // match lines that start with '//'
	return re.ReplaceAll(configBytes, nil)
}
