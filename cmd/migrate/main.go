// Command migrate applies or reverts the database schema migrations.
//
//	migrate up
//	migrate down -steps 1
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"fundapp/internal/config"
	"fundapp/internal/repositories"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	path := fs.String("path", cfg.Database.MigrationsPath, "directory holding the migration files")
	steps := fs.Int("steps", 1, "number of migrations to revert with down")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: migrate [flags] up|down")
		fs.PrintDefaults()
	}

	if len(os.Args) < 2 {
		fs.Usage()
		os.Exit(2)
	}
	command := os.Args[1]
	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	db, err := repositories.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repositories.CloseDB(db)

	switch command {
	case "up":
		err = repositories.RunMigrations(db, *path)
	case "down":
		err = repositories.RollbackMigrations(db, *path, *steps)
	default:
		fs.Usage()
		repositories.CloseDB(db)
		os.Exit(2)
	}
	if err != nil {
		repositories.CloseDB(db)
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Migration complete")
}
