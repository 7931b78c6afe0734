// Command main runs the database seeder for Look.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"look/internal/bootstrap"
	"look/internal/config"
	"look/internal/database"
	"look/internal/middleware"
	"look/internal/seed"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
	log.Println("Seeding complete")
}

func run() error {
	fake := flag.Int("fake", 0, "Number of extra fake users to generate")
	postsPerUser := flag.Int("posts", 5, "Posts per fake user")
	skipFixtures := flag.Bool("no-fixtures", false, "Skip the fixture dataset")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.ConfigureLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{Seed: !*skipFixtures, SkipRedis: true})
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	if *fake > 0 {
		f := seed.NewFactory(db, seed.FactoryOptions{})
		if err := f.Fake(ctx, *fake, *postsPerUser); err != nil {
			return fmt.Errorf("fake data generation failed: %w", err)
		}
	}
	return nil
}
