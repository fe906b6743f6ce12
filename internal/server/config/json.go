package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/swappy/internal/flagx"
	"github.com/dmitrijs2005/swappy/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so they may be written as "30m" or integer nanoseconds.
// Absent fields leave the current value untouched.
type JsonConfig struct {
	BotToken          *string         `json:"bot_token"`
	BotDomain         *string         `json:"bot_domain"`
	AppURL            *string         `json:"app_url"`
	MaintainerID      *int64          `json:"maintainer_id"`
	ListenAddr        *string         `json:"listen_addr"`
	StoreBackend      *string         `json:"store_backend"`
	RedisURL          *string         `json:"redis_url"`
	DatabaseDSN       *string         `json:"database_dsn"`
	InitDataMaxAge    *timex.Duration `json:"init_data_max_age"`
	StarSalt          *string         `json:"star_salt"`
	EditTokenSecret   *string         `json:"edit_token_secret"`
	EditTokenValidity *timex.Duration `json:"edit_token_validity"`
	AdRetention       *string         `json:"ad_retention"`
	WebhookSecret     *string         `json:"webhook_secret"`
	LogLevel          *string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config (or
// SWAPPY_CONFIG). It panics when the file cannot be read or decoded.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.BotToken, c.BotToken)
	setString(&config.BotDomain, c.BotDomain)
	setString(&config.AppURL, c.AppURL)
	if c.MaintainerID != nil {
		config.MaintainerID = *c.MaintainerID
	}
	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.StoreBackend, c.StoreBackend)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.InitDataMaxAge != nil {
		config.InitDataMaxAge = c.InitDataMaxAge.Duration
	}
	setString(&config.StarSalt, c.StarSalt)
	setString(&config.EditTokenSecret, c.EditTokenSecret)
	if c.EditTokenValidity != nil {
		config.EditTokenValidity = c.EditTokenValidity.Duration
	}
	setString(&config.AdRetention, c.AdRetention)
	setString(&config.WebhookSecret, c.WebhookSecret)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
