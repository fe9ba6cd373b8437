// Command seed fills the database with a random social graph.
package main

import (
	"context"
	"flag"
	"os"

	"socialgraph/internal/config"
	"socialgraph/internal/database"
	"socialgraph/internal/middleware"
	"socialgraph/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	follows := flag.Int("follows", 10, "Follows per user")
	likes := flag.Int("likes", 15, "Maximum likes per post")
	comments := flag.Int("comments", 5, "Maximum comments per post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	seedValue := flag.Int64("seed", 0, "Random seed; 0 uses the clock")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		middleware.Logger.Error("refusing to seed a production database")
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		middleware.Logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	ctx := context.Background()
	s := seed.NewSeeder(db, seed.Options{
		NumUsers:           *numUsers,
		NumPosts:           *numPosts,
		FollowsPerUser:     *follows,
		MaxLikesPerPost:    *likes,
		MaxCommentsPerPost: *comments,
		Seed:               *seedValue,
	})

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			middleware.Logger.Error("cleanup failed", "error", err)
			os.Exit(1)
		}
	}

	stats, err := s.Run(ctx)
	if err != nil {
		middleware.Logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	middleware.Logger.Info("database seeded", "stats", stats.String(), "password", seed.DefaultPassword)
}
