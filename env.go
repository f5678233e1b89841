package cdxs

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/kelseyhightower/envconfig"
	"github.com/mattn/go-isatty"
)

// EnvPrefix is the prefix of the environment variables read by LoadEnv.
const EnvPrefix = "CDXS"

// Env holds the defaults that the command-line tools take from the
// environment. Flags override them.
type Env struct {
	// Encoding of scan and key files that are not UTF-8 (CDXS_ENCODING).
	Encoding string `envconfig:"ENCODING"`

	// Workers is the number of files parsed at once (CDXS_WORKERS).
	Workers int `envconfig:"WORKERS" default:"4"`

	// Color is "auto", "always" or "never" (CDXS_COLOR).
	Color string `envconfig:"COLOR" default:"auto"`
}

func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return env, pfx.Err(err)
	}

	switch strings.ToLower(env.Color) {
	case "auto", "always", "never":
		env.Color = strings.ToLower(env.Color)
	default:
		return env, fmt.Errorf("%s_COLOR must be auto, always or never, not %q", EnvPrefix, env.Color)
	}

	return env, nil
}

// UseColor decides whether ANSI colour should be written to f.
func (e Env) UseColor(f *os.File) bool {
	switch e.Color {
	case "always":
		return true
	case "never":
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// StorageClientFor returns a Google Storage client if any of the paths is a
// gs:// path, and nil otherwise.
func StorageClientFor(ctx context.Context, paths ...string) (*storage.Client, error) {
	for _, p := range paths {
		if !IsGoogleStoragePath(p) {
			continue
		}

		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return client, nil
	}

	return nil, nil
}
