package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/config"
	"github.com/GTDGit/esim_api/internal/database"
	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/repository"
	"github.com/GTDGit/esim_api/internal/service"
	"github.com/GTDGit/esim_api/internal/utils"
)

// create-admin seeds a back-office account.
func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	name := flag.String("name", "", "display name")
	role := flag.String("role", models.RoleAdmin, "role")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	svc := service.NewAdminAuthService(
		repository.NewAdminUserRepository(db),
		utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
	)
	user, err := svc.CreateAdmin(context.Background(), *email, *password, *name, *role)
	if err != nil {
		log.Fatal().Err(err).Msg("create admin failed")
	}
	log.Info().Int("id", user.ID).Str("email", user.Email).Str("role", user.Role).Msg("admin created")
}
