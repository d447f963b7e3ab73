package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fairdice/api"
	"fairdice/cmd"
	"fairdice/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment variables")
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(os.Args[2:]); err != nil {
				log.WithError(err).Fatal("Migration error")
			}
			return
		case "token":
			if err := handleTokenCommand(os.Args[2:]); err != nil {
				log.WithError(err).Fatal("Token error")
			}
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx); err != nil {
		log.WithError(err).Fatal("Application error")
	}
}

func handleMigrationCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: fairdice migrate [up|down|status] [args...]")
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}

// handleTokenCommand prints a bearer token for an account, for local development
func handleTokenCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: fairdice token <account_id> [ttl]")
	}

	accountID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || accountID <= 0 {
		return fmt.Errorf("account id must be a positive integer")
	}

	ttl := 24 * time.Hour
	if len(args) > 1 {
		if ttl, err = time.ParseDuration(args[1]); err != nil {
			return fmt.Errorf("invalid ttl: %w", err)
		}
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	token, err := api.IssueToken([]byte(secret), accountID, ttl)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Println(token)
	return nil
}
