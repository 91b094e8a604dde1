package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/rescribe/internal/envfile"
)

// EnvAPIKey names the environment variable carrying the service API key.
const EnvAPIKey = "DASHSCOPE_API_KEY"

// resolveAPIKey loads the nearest .env file and reads the service key from
// the environment. DashScope keys carry an sk- prefix; a bare key is
// normalized by prepending it.
func resolveAPIKey() (string, error) {
	res := envfile.Load()
	if res.Err != nil {
		return "", fmt.Errorf("loading %s: %w", res.Path, res.Err)
	}
	if res.Loaded {
		slog.Debug("env file loaded", "path", res.Path, "keys", res.Keys)
	}

	key := strings.TrimSpace(os.Getenv(EnvAPIKey))
	if key == "" {
		return "", fmt.Errorf("%s is not set", EnvAPIKey)
	}
	if !strings.HasPrefix(key, "sk-") {
		key = "sk-" + key
	}
	return key, nil
}
