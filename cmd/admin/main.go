package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
	"github.com/HmmOrange/gizmo-backend/pkg/gizmo/admin"
	memoryrepo "github.com/HmmOrange/gizmo-backend/pkg/gizmo/repo/memory"
	pgrepo "github.com/HmmOrange/gizmo-backend/pkg/gizmo/repo/postgres"
)

const usage = `Gizmo Admin CLI

A lightweight admin tool that only requires database access.

USAGE:
  admin <command> [options]

COMMANDS:
  list           List resources with optional filtering
  count          Count resources with optional filtering
  stats          Get aggregated statistics
  purge-expired  Delete every expired resource

ENVIRONMENT VARIABLES:
  DATABASE_URL   PostgreSQL connection string (required for postgres)
  DATABASE_TYPE  Database type: postgres or memory (default: memory)

  Configuration can be loaded from a .env file in the current directory.

EXAMPLES:
  # List all resources
  admin list

  # List pastes only
  admin list --kind=paste

  # List one owner's resources, expired included
  admin list --owner-id=550e8400-e29b-41d4-a716-446655440000 --include-expired

  # List with pagination
  admin list --limit=10 --offset=0

  # Count private images
  admin count --kind=image --exposure=private

  # Sweep expired resources
  admin purge-expired

  # Statistics as JSON
  admin stats --json
`

// DbConfig is read from the environment via cleanenv.
type DbConfig struct {
	DatabaseURL  string `env:"DATABASE_URL" env-default:""`
	DatabaseType string `env:"DATABASE_TYPE" env-default:"memory"`
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage)
		os.Exit(0)
	}

	adminSvc, err := createAdminService()
	if err != nil {
		log.Fatalf("Failed to create admin service: %v", err)
	}

	ctx := context.Background()
	filters, useJSON := parseFilters(os.Args[2:])

	switch command {
	case "list":
		handleList(ctx, adminSvc, filters, useJSON)
	case "count":
		handleCount(ctx, adminSvc, filters, useJSON)
	case "stats":
		handleStats(ctx, adminSvc, useJSON)
	case "purge-expired":
		handlePurge(ctx, adminSvc, useJSON)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func createAdminService() (admin.Service, error) {
	var cfg DbConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	switch cfg.DatabaseType {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for postgres")
		}

		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse database URL: %w", err)
		}
		pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		return admin.New(pgrepo.NewWithPool(pool)), nil

	case "memory":
		return admin.New(memoryrepo.New()), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s (use 'postgres' or 'memory')", cfg.DatabaseType)
	}
}

func parseFilters(args []string) (admin.ResourceFilters, bool) {
	filters := admin.ResourceFilters{Limit: 100}
	useJSON := false

	for _, arg := range args {
		if arg == "--json" {
			useJSON = true
			continue
		}

		key, value := parseFlag(arg)
		switch key {
		case "kind":
			kind := gizmo.ResourceKind(value)
			if kind.IsValid() {
				filters.Kind = &kind
			}
		case "owner-id":
			if id, err := uuid.Parse(value); err == nil {
				filters.OwnerID = &id
			}
		case "exposure":
			exposure := gizmo.Exposure(value)
			if exposure.IsValid() {
				filters.Exposure = &exposure
			}
		case "limit":
			if n, err := strconv.Atoi(value); err == nil {
				filters.Limit = n
			}
		case "offset":
			if n, err := strconv.Atoi(value); err == nil {
				filters.Offset = n
			}
		case "include-expired":
			filters.IncludeExpired = true
		}
	}

	return filters, useJSON
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		for i, c := range arg {
			if c == '=' {
				return arg[:i], arg[i+1:]
			}
		}
		return arg, "true"
	}
	return "", ""
}

func handleList(ctx context.Context, adminSvc admin.Service, filters admin.ResourceFilters, useJSON bool) {
	resp, err := adminSvc.ListResources(ctx, admin.ListRequest{Filters: filters})
	if err != nil {
		log.Fatalf("Failed to list resources: %v", err)
	}

	if useJSON {
		data, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(data))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KIND\tSLUG\tTITLE\tEXPOSURE\tOWNER\tVIEWS\tCREATED\n")

	for _, resource := range resp.Resources {
		owner := "-"
		if resource.OwnerID != nil {
			owner = resource.OwnerID.String()[:8] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			resource.Kind,
			resource.Slug,
			truncate(resource.Title, 20),
			resource.Exposure,
			owner,
			resource.ViewCount,
			resource.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d", len(resp.Resources))
	if resp.HasMore {
		fmt.Printf(" (has more, use --offset=%d to continue)", filters.Offset+filters.Limit)
	}
	fmt.Println()
}

func handleCount(ctx context.Context, adminSvc admin.Service, filters admin.ResourceFilters, useJSON bool) {
	resp, err := adminSvc.CountResources(ctx, filters)
	if err != nil {
		log.Fatalf("Failed to count resources: %v", err)
	}

	if useJSON {
		data, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Total count: %d\n", resp.Count)
}

func handleStats(ctx context.Context, adminSvc admin.Service, useJSON bool) {
	resp, err := adminSvc.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to get statistics: %v", err)
	}

	if useJSON {
		data, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(data))
		return
	}

	stats := resp.Statistics
	fmt.Println("=== Resource Statistics ===")
	fmt.Printf("\nTotal Count: %d\n", stats.TotalCount)

	if len(stats.ByKind) > 0 {
		fmt.Println("\nBy Kind:")
		for kind, count := range stats.ByKind {
			fmt.Printf("  %-10s: %d\n", kind, count)
		}
	}
	if len(stats.ByExposure) > 0 {
		fmt.Println("\nBy Exposure:")
		for exposure, count := range stats.ByExposure {
			fmt.Printf("  %-20s: %d\n", exposure, count)
		}
	}
	if stats.Oldest != nil && stats.Newest != nil {
		fmt.Println("\nTime Range:")
		fmt.Printf("  Oldest: %s\n", stats.Oldest.Format(time.RFC3339))
		fmt.Printf("  Newest: %s\n", stats.Newest.Format(time.RFC3339))
	}

	fmt.Printf("\nComputed at: %s\n", resp.ComputedAt.Format(time.RFC3339))
}

func handlePurge(ctx context.Context, adminSvc admin.Service, useJSON bool) {
	resp, err := adminSvc.PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("Failed to purge expired resources: %v", err)
	}

	if useJSON {
		data, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Purged %d expired resources\n", resp.Purged)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
