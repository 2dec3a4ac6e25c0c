package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"

	"github.com/cayden6ix/certidoes-app-sub002/internal/config"
	"github.com/cayden6ix/certidoes-app-sub002/internal/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <migration_file.sql | migrations_dir>", os.Args[0])
	}

	files, err := collectMigrationFiles(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read migrations: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("No .sql files found in %s", os.Args[1])
	}

	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database: %s\n\n", cfg.Database.Database)

	for _, file := range files {
		if err := applyFile(db, file); err != nil {
			log.Fatalf("Migration %s failed: %v", filepath.Base(file), err)
		}
	}

	fmt.Println("✅ All migrations completed successfully!")
}

// collectMigrationFiles 单文件原样返回，目录则取其中全部.sql并按文件名排序
func collectMigrationFiles(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{target}, nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, filepath.Join(target, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func applyFile(db *sql.DB, path string) error {
	sqlContent, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	fmt.Printf("Applying %s...\n", filepath.Base(path))

	// 按分号拆分执行（迁移文件不使用dollar-quoted函数体）
	statements := strings.Split(string(sqlContent), ";")
	executed := 0
	for _, stmt := range statements {
		stmt = stripCommentLines(stmt)
		if stmt == "" {
			continue
		}
		executed++
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("statement %d: %w", executed, err)
		}
	}

	fmt.Printf("✅ %s applied (%d statements)\n\n", filepath.Base(path), executed)
	return nil
}

func stripCommentLines(stmt string) string {
	lines := strings.Split(stmt, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
