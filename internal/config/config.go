package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"internboard/internal/engine"
)

// EnvPrefix prefixes environment overrides, e.g. INTERNBOARD_DATA_PATH.
const EnvPrefix = "INTERNBOARD"

type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`

	Data struct {
		Path      string `mapstructure:"path"`
		Sheet     string `mapstructure:"sheet"`
		Table     string `mapstructure:"table"`
		ChunkRows int    `mapstructure:"chunk_rows"`
	} `mapstructure:"data"`

	Schema struct {
		Position  string `mapstructure:"position"`
		Fields    string `mapstructure:"fields"`
		Province  string `mapstructure:"province"`
		City      string `mapstructure:"city"`
		Company   string `mapstructure:"company"`
		Quota     string `mapstructure:"quota"`
		Education string `mapstructure:"education"`
		Applicant string `mapstructure:"applicant"`
		PassRate  string `mapstructure:"pass_rate"`
		Delimiter string `mapstructure:"delimiter"`
	} `mapstructure:"schema"`

	Dashboard struct {
		TopK     int `mapstructure:"top_k"`
		PageSize int `mapstructure:"page_size"`
	} `mapstructure:"dashboard"`

	Reload struct {
		MinInterval time.Duration `mapstructure:"min_interval"`
	} `mapstructure:"reload"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// SetDefaults registers every key so env overrides and Unmarshal see them.
func SetDefaults(v *viper.Viper) {
	s := engine.DefaultSchema()

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("data.path", "data_lowongan_BERSIH.csv")
	v.SetDefault("data.sheet", "")
	v.SetDefault("data.table", engine.DefaultTable)
	v.SetDefault("data.chunk_rows", 4096)

	v.SetDefault("schema.position", s.Position)
	v.SetDefault("schema.fields", s.Fields)
	v.SetDefault("schema.province", s.Province)
	v.SetDefault("schema.city", s.City)
	v.SetDefault("schema.company", s.Company)
	v.SetDefault("schema.quota", s.Quota)
	v.SetDefault("schema.education", s.Education)
	v.SetDefault("schema.applicant", s.Applicant)
	v.SetDefault("schema.pass_rate", s.PassRate)
	v.SetDefault("schema.delimiter", s.Delimiter)

	v.SetDefault("dashboard.top_k", engine.DefaultTopK)
	v.SetDefault("dashboard.page_size", 50)

	v.SetDefault("reload.min_interval", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads defaults, then config.yaml (the file at configFile, or one found
// in the working directory), then INTERNBOARD_* environment variables.
// A missing config file is not an error.
func Load(v *viper.Viper, configFile string) (Config, error) {
	var cfg Config

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// EngineSchema maps the schema section onto engine column roles.
func (c Config) EngineSchema() engine.Schema {
	return engine.Schema{
		Position:  c.Schema.Position,
		Fields:    c.Schema.Fields,
		Province:  c.Schema.Province,
		City:      c.Schema.City,
		Company:   c.Schema.Company,
		Quota:     c.Schema.Quota,
		Education: c.Schema.Education,
		Applicant: c.Schema.Applicant,
		PassRate:  c.Schema.PassRate,
		Delimiter: c.Schema.Delimiter,
	}
}

func (c Config) Source() engine.Source {
	return engine.Source{
		Path:      c.Data.Path,
		Sheet:     c.Data.Sheet,
		Table:     c.Data.Table,
		ChunkRows: c.Data.ChunkRows,
	}
}
