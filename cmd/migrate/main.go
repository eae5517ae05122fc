package main

import (
	"context"
	"flag"
	"log"
	"os"

	"chronorate/adapters/filestore"
	"chronorate/adapters/postgres"
	"chronorate/domain/core"
	"chronorate/internal/config"
	"chronorate/internal/migration"
)

func main() {
	reset := flag.Bool("reset", false, "drop all tables before migrating")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: migrate [-reset] <database_url> [population_output_dir]")
	}

	databaseURL := flag.Arg(0)
	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = config.InferDriver(databaseURL)
	}

	ctx := context.Background()
	log.Printf("Applying schema version %s to %s database", migration.NewRunner().Version(), driver)

	// Open applies pending migrations.
	db, err := postgres.Open(ctx, driver, databaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if *reset {
		runner := migration.NewRunner()
		if err := runner.Reset(ctx, db); err != nil {
			log.Fatalf("Failed to reset schema: %v", err)
		}
		if err := runner.Run(ctx, db); err != nil {
			log.Fatalf("Failed to re-apply schema: %v", err)
		}
		log.Printf("Schema reset")
	}

	if flag.NArg() < 2 {
		log.Printf("Migration completed")
		return
	}

	outputDir := flag.Arg(1)
	log.Printf("Importing exported population from %s", outputDir)

	pop, err := filestore.NewStore(outputDir).ReadPopulation()
	if err != nil {
		log.Fatalf("Failed to read population: %v", err)
	}

	repo := postgres.NewPopulationRepository(db)
	if err := repo.Save(ctx, pop); err != nil {
		if core.IsConflictError(err) {
			log.Printf("Population %s already stored, skipping", pop.RunID)
			return
		}
		log.Fatalf("Failed to store population: %v", err)
	}

	log.Printf("Migration completed: population %s with %d subjects imported", pop.RunID, len(pop.Subjects))
}
