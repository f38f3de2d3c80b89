// Package main generates a performance report for one user and writes
// it to disk as Markdown and CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"trade-journal/internal/reporting"
	"trade-journal/internal/storage"
	chstore "trade-journal/internal/storage/clickhouse"
	pgstore "trade-journal/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	userID := flag.String("user", "", "User ID to report on")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (used to resolve --email)")
	email := flag.String("email", "", "Resolve the user by email instead of --user")
	flag.Parse()

	ctx := context.Background()

	if *clickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --clickhouse-dsn is required")
		os.Exit(1)
	}
	if *userID == "" && *email == "" {
		fmt.Fprintln(os.Stderr, "Error: --user or --email is required")
		os.Exit(1)
	}

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	id := *userID
	if id == "" {
		id, err = resolveUser(ctx, *postgresDSN, *email)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving user: %v\n", err)
			os.Exit(1)
		}
	}

	generator := reporting.NewGenerator(chstore.NewOutcomeStore(conn))
	report, err := generator.Generate(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	mdPath := filepath.Join(*outputDir, "REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing markdown report: %v\n", err)
		os.Exit(1)
	}

	csvPath := filepath.Join(*outputDir, "PER_SYMBOL.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.PerSymbol)), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing csv report: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Report generated successfully:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
	fmt.Printf("  %d closed trades, win rate %.1f%%\n",
		report.Summary.TotalTrades, report.Summary.WinRate*100)
}

// resolveUser looks up a user ID by email through Postgres.
func resolveUser(ctx context.Context, postgresDSN, email string) (string, error) {
	if postgresDSN == "" {
		return "", fmt.Errorf("--postgres-dsn is required to resolve --email")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return "", err
	}
	defer pool.Close()

	var users storage.UserStore = pgstore.NewUserStore(pool)
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return user.UserID, nil
}
