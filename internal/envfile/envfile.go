// Package envfile loads key-value environment files (".env" style) for
// injection into containers.
package envfile

import (
	"fmt"
	"sort"

	"github.com/subosito/gotenv"
)

// Load parses the env file at path and returns its entries as KEY=VALUE
// strings in sorted key order, the shape the container API expects. The
// order is stabilized so that a container's configuration is reproducible
// run to run.
func Load(path string) ([]string, error) {
	env, err := gotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out, nil
}
