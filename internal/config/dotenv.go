package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads the dotenv files for env, most specific first:
// .env.<env>.local, .env.local, .env.<env>, .env.
// godotenv.Load never overwrites a variable that is already set, so the
// process environment wins and earlier files win over later ones.
// Returns the files actually loaded.
func LoadDotEnv() []string {
	return loadDotEnvFor(os.Getenv("APP_ENV"))
}

func loadDotEnvFor(env string) []string {
	var loaded []string
	for _, f := range dotEnvCandidates(env) {
		if info, err := os.Stat(f); err == nil && !info.IsDir() {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}

func dotEnvCandidates(env string) []string {
	if env == "" {
		return []string{".env.local", ".env"}
	}
	return []string{".env." + env + ".local", ".env.local", ".env." + env, ".env"}
}
