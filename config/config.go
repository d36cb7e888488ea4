package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// JWTConfig describes how access tokens issued by the hosted auth provider are verified.
type JWTConfig struct {
	SecretKey string `mapstructure:"secretKey"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort    string        `mapstructure:"HTTPPort"`
		Timeout     time.Duration `mapstructure:"HTTPTimeout"`
		CORSOrigins []string      `mapstructure:"corsOrigins"`
	} `mapstructure:"server"`
	JWT     JWTConfig `mapstructure:"jwt"`
	TourAPI struct {
		BaseURL     string        `mapstructure:"baseURL"`
		ServiceKey  string        `mapstructure:"serviceKey"`
		Timeout     time.Duration `mapstructure:"timeout"`
		MaxAttempts int           `mapstructure:"maxAttempts"`
		RPS         float64       `mapstructure:"rps"`
		CacheTTL    time.Duration `mapstructure:"cacheTTL"`
	} `mapstructure:"tourapi"`
	Kakao struct {
		BaseURL    string        `mapstructure:"baseURL"`
		RestAPIKey string        `mapstructure:"restAPIKey"`
		Timeout    time.Duration `mapstructure:"timeout"`
	} `mapstructure:"kakao"`
	LLM struct {
		APIKey       string  `mapstructure:"apiKey"`
		Model        string  `mapstructure:"model"`
		Temperature  float32 `mapstructure:"temperature"`
		RequestsPerM int     `mapstructure:"requestsPerMinute"`
	} `mapstructure:"llm"`
	Storage struct {
		URL        string `mapstructure:"url"`
		Bucket     string `mapstructure:"bucket"`
		ServiceKey string `mapstructure:"serviceKey"`
		MaxWidth   int    `mapstructure:"maxWidth"`
	} `mapstructure:"storage"`
	Trip struct {
		Timezone string `mapstructure:"timezone"`
		MaxDays  int    `mapstructure:"maxDays"`
	} `mapstructure:"trip"`
}

// Location resolves the trip time zone used for calendar-day arithmetic.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Trip.Timezone)
	if err != nil || c.Trip.Timezone == "" {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Secrets come from the environment, e.g. HARUNEKKI_JWT_SECRETKEY
	v.SetEnvPrefix("HARUNEKKI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	// AutomaticEnv only applies to keys viper already knows about, so bind the secrets
	// explicitly in case the yml leaves them out.
	for _, key := range []string{
		"jwt.secretKey", "tourapi.serviceKey", "kakao.restAPIKey",
		"llm.apiKey", "storage.serviceKey", "repositories.postgres.password",
	} {
		if err = v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
