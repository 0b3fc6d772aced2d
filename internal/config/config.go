package config

type Config struct {
	General  `mapstructure:"general"`
	Database `mapstructure:"database"`
	Cache    `mapstructure:"cache"`
	Tracing  `mapstructure:"tracing"`
}

type General struct {
	Debug bool `mapstructure:"debug"`
}

// Database selects the relational backend and where the audit trail is kept.
type Database struct {
	Driver    string `mapstructure:"driver"`     // sqlite or postgres
	DSN       string `mapstructure:"dsn"`        // postgres connection string
	Path      string `mapstructure:"path"`       // sqlite file
	AuditPath string `mapstructure:"audit_path"` // clover directory
}

type Cache struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type Tracing struct {
	Endpoint string `mapstructure:"endpoint"` // empty disables tracing
	Insecure bool   `mapstructure:"insecure"`
}
