package main

import (
	"flag"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/database"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
)

var (
	dryRun     = flag.Bool("dry-run", true, "Dry run mode, only report what would be inserted")
	migrate    = flag.Bool("migrate", false, "Run schema auto-migration before seeding")
	activities = flag.Bool("activities", true, "Seed the JoyPearls activity catalogue")
	templates  = flag.Bool("templates", true, "Seed notification templates")
	plans      = flag.Bool("plans", false, "Seed default subscription plans")
	adminEmail = flag.String("admin", "", "Promote the user with this email to ADMIN")
)

func main() {
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(cfg.Log)
	log := logger.Component("seed")

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}

	if *migrate {
		if *dryRun {
			log.Info("dry run, skipping migration")
		} else if err := database.Migrate(db); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
	}

	opts := database.SeedOptions{
		DryRun:     *dryRun,
		Activities: *activities,
		Templates:  *templates,
		AdminEmail: strings.TrimSpace(*adminEmail),
	}
	if *plans {
		opts.Plans = database.DefaultPlans()
	}

	res, err := database.Seed(db, opts)
	if err != nil {
		log.WithError(err).Fatal("seed failed")
	}

	log.WithFields(logrus.Fields{
		"dry_run":    *dryRun,
		"activities": res.Activities,
		"templates":  res.Templates,
		"plans":      res.Plans,
		"admin":      res.Admin,
	}).Info("seed finished")
	if *dryRun {
		log.Info("dry run mode, nothing was written; run with -dry-run=false to apply")
	}
}
