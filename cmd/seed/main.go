package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yungbote/techlearn-backend/internal/data/db"
	"github.com/yungbote/techlearn-backend/internal/platform/envutil"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
	"github.com/yungbote/techlearn-backend/internal/seed"
)

func main() {
	file := flag.String("file", "", "seed YAML file (defaults to the built-in demo organization)")
	flag.Parse()

	envutil.LoadDotEnv()
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	f, err := seed.Load(*file)
	if err != nil {
		log.Error("Failed to load seed file", "error", err)
		os.Exit(1)
	}
	theDB, err := db.Open(log, db.ConfigFromEnv())
	if err != nil {
		log.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	rep, err := seed.NewSeeder(theDB, log).Run(context.Background(), f)
	if err != nil {
		log.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Seed complete: %d organizations and %d users created, %d users already present\n",
		rep.OrganizationsCreated, rep.UsersCreated, rep.UsersSkipped)
}
