package session

import "github.com/mohammad-safakhou/trendscout/config"

func cfgWithBackend(backend string) config.SessionConfig {
	return config.SessionConfig{Backend: backend, RedisAddr: "localhost:6379"}
}
