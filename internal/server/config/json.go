package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/placementtracker/internal/flagx"
	"github.com/dmitrijs2005/placementtracker/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Pointers distinguish "absent" from an explicit zero value.
type JsonConfig struct {
	Env                          string          `json:"env"`
	EndpointAddrHTTP             string          `json:"endpoint_addr_http"`
	ReadTimeout                  *timex.Duration `json:"read_timeout"`
	WriteTimeout                 *timex.Duration `json:"write_timeout"`
	IdleTimeout                  *timex.Duration `json:"idle_timeout"`
	Storage                      string          `json:"storage"`
	DatabaseDSN                  string          `json:"database_dsn"`
	SecretKey                    string          `json:"secret_key"`
	Issuer                       string          `json:"issuer"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	RotateRefreshTokens          *bool           `json:"rotate_refresh_tokens"`
	BcryptCost                   *int            `json:"bcrypt_cost"`
}

// parseJson overlays values from the file named by -c/-config onto config.
// Only keys present in the file are applied. Without the flag nothing is read.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.Env, c.Env)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.Storage, c.Storage)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Issuer, c.Issuer)

	if c.ReadTimeout != nil {
		config.ReadTimeout = c.ReadTimeout.Duration
	}
	if c.WriteTimeout != nil {
		config.WriteTimeout = c.WriteTimeout.Duration
	}
	if c.IdleTimeout != nil {
		config.IdleTimeout = c.IdleTimeout.Duration
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.RotateRefreshTokens != nil {
		config.RotateRefreshTokens = *c.RotateRefreshTokens
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
