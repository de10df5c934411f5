package config

import (
	"time"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":5990")
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", []string{"*"})

	v.SetDefault("rippled.url", "wss://s1.ripple.com:443")
	v.SetDefault("rippled.handshake_timeout", 10*time.Second)
	v.SetDefault("rippled.call_timeout", 20*time.Second)

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.driver", "sqlite")
	v.SetDefault("journal.dsn", "xrplrest.db")
}
