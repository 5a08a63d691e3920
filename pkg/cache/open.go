package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config selects and configures a backend. It maps one-to-one onto the
// [cache] table of the configuration file.
type Config struct {
	Backend string       `toml:"backend"`
	Dir     string       `toml:"dir"`
	Redis   RedisOptions `toml:"redis"`
	Mongo   MongoOptions `toml:"mongo"`
}

// Open returns the configured backend. An empty backend means the file
// cache in cfg.Dir, or in [DefaultDir] when that is empty too.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case BackendNone:
		return NewNullCache(), nil
	case "", BackendFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, fmt.Errorf("cache dir: %w", err)
			}
			dir = d
		}
		return nonNil(NewFileCache(dir))
	case BackendRedis:
		return nonNil(NewRedisCache(ctx, cfg.Redis))
	case BackendMongo:
		return nonNil(NewMongoCache(ctx, cfg.Mongo))
	default:
		return nil, fmt.Errorf("%w: %q (must be one of: none, file, redis, mongo)", ErrUnknownBackend, cfg.Backend)
	}
}

// nonNil keeps a typed nil pointer from escaping as a non-nil Cache.
func nonNil[C Cache](c C, err error) (Cache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
