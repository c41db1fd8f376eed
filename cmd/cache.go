package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kyleking/asksql/internal/cache"
	"github.com/kyleking/asksql/internal/config"
	"github.com/kyleking/asksql/internal/formatter"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the schema snapshot cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show snapshot cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached schema snapshots",
	Long:  `Remove every cached snapshot. The next command re-extracts the schema. This action requires confirmation.`,
	RunE:  runCacheClear,
}

func init() {
	cacheClearCmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCache builds a file cache from the active configuration without
// touching the database.
func openCache(cfg *config.Config) (*cache.FileCache, error) {
	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	cleanupFreq := parseDurationOr(cfg.Cache.CleanupFreq, time.Hour)

	return cache.NewFileCache(cfg.Cache.Directory, cfg.Cache.MaxSizeMB, ttl, cleanupFreq)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fileCache, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer fileCache.Close()

	stats, err := fileCache.GetStats(ctx)
	if err != nil {
		return err
	}

	f := formatter.NewFormatter()
	fmt.Println(f.FormatCacheStats(stats, outputFormat()))

	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	force, _ := cmd.Flags().GetBool("force")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fileCache, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer fileCache.Close()

	stats, err := fileCache.GetStats(ctx)
	if err != nil {
		return err
	}

	if stats.TotalEntries == 0 {
		fmt.Println("Cache is already empty.")
		return nil
	}

	fmt.Printf("This will delete %d cached entries (%d bytes).\n", stats.TotalEntries, stats.TotalSize)

	if !force {
		fmt.Printf("\nType 'yes' to confirm: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if strings.TrimSpace(strings.ToLower(response)) != "yes" {
			fmt.Println("Operation cancelled.")
			return nil
		}
	}

	if err := fileCache.Clear(ctx); err != nil {
		return err
	}

	fmt.Println("Cache cleared.")

	return nil
}
