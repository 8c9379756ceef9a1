// Command genkey prints VAPID key pairs and bcrypt hashes, and seeds HR users.
//
//	genkey                        VAPID key pair for .env
//	genkey hash <password>        bcrypt hash for a users row
//	genkey seed <user> <password> insert an HR user (needs DATABASE_URL)
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/saturnino-fabrica-de-software/facemood/internal/auth"
	"github.com/saturnino-fabrica-de-software/facemood/internal/config"
	"github.com/saturnino-fabrica-de-software/facemood/internal/database"
	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
	"github.com/saturnino-fabrica-de-software/facemood/internal/push"
	"github.com/saturnino-fabrica-de-software/facemood/internal/repository"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "vapid" {
		public, private, err := push.GenerateVAPIDKeys()
		if err != nil {
			return err
		}
		fmt.Printf("VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", public, private)
		return nil
	}

	switch args[0] {
	case "hash":
		if len(args) != 2 {
			return errors.New("usage: genkey hash <password>")
		}
		hash, err := auth.HashPassword(args[1])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil

	case "seed":
		if len(args) != 3 {
			return errors.New("usage: genkey seed <username> <password>")
		}
		return seed(args[1], args[2])

	default:
		return fmt.Errorf("unknown command %q (use: vapid, hash, seed)", args[0])
	}
}

func seed(username, password string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.HREnabled() {
		return errors.New("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return err
	}
	defer pool.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := &domain.User{Username: username, PasswordHash: hash, Role: domain.RoleHR}
	if err := repository.NewUserRepository(pool).Create(ctx, user); err != nil {
		return err
	}
	fmt.Printf("USER_ID=%s\n", user.ID)
	return nil
}
