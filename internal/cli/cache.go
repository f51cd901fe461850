package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/textart/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the text art cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached art and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.Config.Cache.Backend {
			case cacheRedis:
				return c.clearRedis(cmd.Context())
			case cacheNone:
				c.status.info("Caching is disabled")
				return nil
			}

			dir, err := c.fileCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				c.status.info("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return fmt.Errorf("clear %s: %w", dir, err)
			}
			c.status.success("Cleared cache")
			c.status.detail("Directory: %s", dir)
			return nil
		},
	}
}

// clearRedis deletes this application's keys from the configured Redis.
func (c *CLI) clearRedis(ctx context.Context) error {
	if c.Config.Cache.RedisURL == "" {
		return fmt.Errorf("cache backend is redis but no redis_url or %s is set", envRedisURL)
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: c.Config.Cache.RedisURL})
	if err != nil {
		c.status.warning("Redis is unreachable; entries expire on their own")
		return err
	}
	defer rc.Close()

	n, err := rc.DeletePrefix(ctx, redisKeyPrefix)
	if err != nil {
		return fmt.Errorf("clear redis: %w", err)
	}
	c.status.success("Cleared %d cached entries", n)
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend == cacheRedis {
				c.status.keyValue("backend", cacheRedis)
				c.status.keyValue("url", c.Config.Cache.RedisURL)
				return nil
			}
			dir, err := c.fileCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.stdout, dir)
			return nil
		},
	}
}

// fileCacheDir returns the configured cache directory, or the XDG default.
func (c *CLI) fileCacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}
