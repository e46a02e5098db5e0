package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. AGRI_SERVER_PORT.
const EnvPrefix = "agri"

// Config holds the application configuration
type Config struct {
	Server   ServerConfig `mapstructure:"server"`
	Models   ModelsConfig `mapstructure:"models"`
	Remedies string       `mapstructure:"remedies"`
	Log      LogConfig    `mapstructure:"log"`
	Version  string       `mapstructure:"-"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	MaxUploadBytes int64         `mapstructure:"maxUploadBytes"`
	CORS           bool          `mapstructure:"cors"`
}

// ModelsConfig locates the predictor artifacts. Relative paths resolve
// against Dir.
type ModelsConfig struct {
	Dir             string `mapstructure:"dir"`
	Disease         string `mapstructure:"disease"`
	DiseaseMetadata string `mapstructure:"diseaseMetadata"`
	Crop            string `mapstructure:"crop"`
	CropMetadata    string `mapstructure:"cropMetadata"`
	ONNXLibrary     string `mapstructure:"onnxLibrary"`
}

type LogConfig struct {
	Console    bool   `mapstructure:"console"`
	Verbose    bool   `mapstructure:"verbose"`
	Dir        string `mapstructure:"dir"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			MaxUploadBytes: 10 << 20,
			CORS:           true,
		},
		Models: ModelsConfig{
			Dir:             "./models",
			Disease:         "plant_disease.onnx",
			DiseaseMetadata: "plant_disease.json",
			Crop:            "crop_model.onnx",
			CropMetadata:    "crop_model.json",
		},
		Remedies: "remedies.json",
		Log: LogConfig{
			Console:    true,
			Dir:        "./logs",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// SetDefaults registers every key of Default on v so environment variables
// and config files can override them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.readTimeout", d.Server.ReadTimeout)
	v.SetDefault("server.writeTimeout", d.Server.WriteTimeout)
	v.SetDefault("server.maxUploadBytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.cors", d.Server.CORS)
	v.SetDefault("models.dir", d.Models.Dir)
	v.SetDefault("models.disease", d.Models.Disease)
	v.SetDefault("models.diseaseMetadata", d.Models.DiseaseMetadata)
	v.SetDefault("models.crop", d.Models.Crop)
	v.SetDefault("models.cropMetadata", d.Models.CropMetadata)
	v.SetDefault("models.onnxLibrary", d.Models.ONNXLibrary)
	v.SetDefault("remedies", d.Remedies)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("log.verbose", d.Log.Verbose)
	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("log.maxSizeMB", d.Log.MaxSizeMB)
	v.SetDefault("log.maxBackups", d.Log.MaxBackups)
	v.SetDefault("log.maxAgeDays", d.Log.MaxAgeDays)
}

// Load reads configFile (if set), environment overrides and defaults.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", configFile)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "cannot unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.maxUploadBytes must be positive")
	}
	return nil
}

// Resolve returns path unchanged when empty or absolute, otherwise joined to
// the models directory.
func (m ModelsConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Dir, path)
}
