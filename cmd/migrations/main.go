package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/fieldsurvey/internal/config"
	"github.com/vncsmyrnk/fieldsurvey/internal/logger"
)

// Usage: migrations [-dir path] <name|up>
//
// A name such as "create_surveys_up" runs the single matching file. "up" runs
// every *_up.sql file in order.
func main() {
	defaultDir := filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations")
	basePath := flag.String("dir", defaultDir, "Migrations directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	defer log.Sync()

	if flag.NArg() < 1 {
		log.Fatal("a migration name is required")
	}
	migrationName := flag.Arg(0)

	db, err := sql.Open("postgres", cfg.Database.ConnString())
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	var files []string
	if migrationName == "up" {
		files, err = upMigrationFiles(*basePath)
	} else {
		var file string
		file, err = migrationFilePath(*basePath, migrationName)
		files = []string{file}
	}
	if err != nil {
		log.Fatal("failed to resolve migrations", zap.Error(err))
	}

	for _, file := range files {
		content, err := os.ReadFile(filepath.Join(*basePath, file))
		if err != nil {
			log.Fatal("failed to read migration file", zap.String("file", file), zap.Error(err))
		}
		if _, err := db.Exec(string(content)); err != nil {
			log.Fatal("failed to execute migration", zap.String("file", file), zap.Error(err))
		}
		log.Info("migration file executed", zap.String("file", file))
	}
}

func migrationFilePath(basePath string, migrationName string) (string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return "", fmt.Errorf("invalid pattern: %w", err)
	}

	files, err := os.ReadDir(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to read migrations directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}

		if regex.MatchString(f.Name()) {
			return f.Name(), nil
		}
	}

	return "", fmt.Errorf("migration file not found for %q", migrationName)
}

func upMigrationFiles(basePath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), "_up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
