package app

import (
	"net/http"

	"github.com/rs/zerolog"

	"moltspeak/internal/config"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Settings config.Config
	HTTP     *http.Client    // optional; defaults to a client with Settings.Directory.Timeout
	Logger   *zerolog.Logger // optional; defaults to a no-op logger
}
