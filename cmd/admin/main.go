// Command admin runs operator actions against the credential store.
//
//	admin set-plan <email> <free|pro|admin>
//	admin delete-user <email>
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibee/backend/internal/config"
	"github.com/bibee/backend/internal/domain"
	"github.com/bibee/backend/internal/repository/postgres"
	redisrepo "github.com/bibee/backend/internal/repository/redis"
	"github.com/bibee/backend/internal/usecase"
)

const usage = "usage: admin set-plan <email> <plan> | admin delete-user <email>"

func main() {
	if len(os.Args) < 3 {
		fmt.Println(usage)
		os.Exit(2)
	}

	ctx := context.Background()
	config.LoadEnv(ctx, ".env")
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		fmt.Println("DATABASE_URL not set")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var revocations domain.RevocationStore
	if cfg.Redis.URL != "" {
		redisCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		store, err := redisrepo.NewRevocationStore(redisCtx, cfg.Redis.URL)
		cancel()
		if err != nil {
			fmt.Printf("Failed to connect to redis: %v\n", err)
			os.Exit(1)
		}
		revocations = store
	} else {
		revocations = postgres.NewRevocationRepository(pool, time.Now)
	}
	defer revocations.Close()

	admin := usecase.NewAdminUsecase(postgres.NewUserRepository(pool), revocations, cfg.JWT.RefreshExpiry)

	if err := run(ctx, admin, os.Args[1], os.Args[2:]); err != nil {
		fmt.Printf("admin %s failed: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, admin *usecase.AdminUsecase, command string, args []string) error {
	switch command {
	case "set-plan":
		if len(args) != 2 {
			return fmt.Errorf("%s", usage)
		}
		user, err := admin.SetPlan(ctx, args[0], domain.UserPlan(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("%s is now on plan %s\n", user.Email, user.Plan)
	case "delete-user":
		if len(args) != 1 {
			return fmt.Errorf("%s", usage)
		}
		if err := admin.DeleteUser(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s and revoked its tokens\n", args[0])
	default:
		return fmt.Errorf("unknown command %q; %s", command, usage)
	}
	return nil
}
