// Command seed creates the demo classes and splits the existing users
// between them. It is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"courseconnect/internal/apperr"
	"courseconnect/internal/class"
	"courseconnect/internal/config"
	"courseconnect/internal/db"
	"courseconnect/internal/logging"
	"courseconnect/internal/user"

	"github.com/google/uuid"
)

var demoClasses = []class.Class{
	{
		Name:        "Intro to Computer Science",
		Code:        "CS 1000",
		Description: "A foundational course in computer science.",
		Instructor:  "Dr. Alan Turing",
	},
	{
		Name:        "University Physics I",
		Code:        "PHYS 2200",
		Description: "An introduction to classical mechanics.",
		Instructor:  "Dr. Isaac Newton",
	},
}

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseDSN == config.MemoryDSN {
		log.Fatal("seed needs a PostgreSQL DSN")
	}
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	database, err := db.NewDatabase(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	users := user.NewPostgresRepository(database.Conn)
	classes := class.NewPostgresRepository(database.Conn)
	if err := seed(ctx, users, classes, logger); err != nil {
		log.Fatal(err)
	}
}

// seed ensures every demo class exists, owned by the first user, then resets
// the rosters: the first half of the users join the first class and the rest
// join the second.
func seed(ctx context.Context, users user.Repository, classes class.Repository, logger logging.Logger) error {
	all, err := users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(all) == 0 {
		logger.Warn(ctx, "no users found; sign up at least one user before seeding")
		return nil
	}
	creator := all[0].ID

	half := (len(all) + 1) / 2
	groups := [][]user.User{all[:half], all[half:]}

	for i, demo := range demoClasses {
		c, err := classes.GetClassByCode(ctx, demo.Code)
		if errors.Is(err, apperr.ErrNotFound) {
			c = &demo
			c.ID = uuid.New()
			c.CreatedBy = creator
			err = classes.CreateClass(ctx, c)
		}
		if err != nil {
			return fmt.Errorf("ensure class %q: %w", demo.Code, err)
		}

		if err := classes.ResetMembers(ctx, c.ID); err != nil {
			return fmt.Errorf("reset %q: %w", demo.Code, err)
		}
		for _, u := range groups[i] {
			if _, err := classes.AddMember(ctx, c.ID, u.ID); err != nil {
				return fmt.Errorf("enrol %s in %q: %w", u.ID, demo.Code, err)
			}
		}
		logger.Info(ctx, "class seeded", "code", c.Code, "name", c.Name, "students", len(groups[i]))
	}
	return nil
}
