package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays CAMPUSHUB_* environment variables declared in the Config
// struct tags. Unset variables leave the current value alone; a malformed
// value (for example a bad duration) panics like the other loaders.
func parseEnv(config *Config) {
	if err := cleanenv.ReadEnv(config); err != nil {
		panic(err)
	}
}
