package main

import (
	"flag"
	"os"

	"kitchen-backoffice/internal/config"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/pkg/database"
	"kitchen-backoffice/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "admin@example.com", "profile email")
	password := flag.String("password", "admin123", "new password (at least 6 characters)")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		panic(err)
	}
	log := logger.Get()
	defer logger.Sync()

	if len(*password) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database.DSN(), database.LogLevel("error"))
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	profileRepo := repository.NewProfileRepo(db)

	// 3. Find profile
	profile, err := profileRepo.FindByEmail(*email)
	if err != nil {
		log.Fatal("profile not found", zap.String("email", *email), zap.Error(err))
	}

	// 4. Hash and store; a new token version ends every open session
	if err := profile.SetPassword(*password); err != nil {
		log.Fatal("failed to hash password", zap.Error(err))
	}
	if err := profileRepo.UpdatePassword(profile.ID, profile.Password); err != nil {
		log.Fatal("failed to update password", zap.Error(err))
	}
	if err := profileRepo.UpdateTokenVersion(profile.ID, uuid.New().String()); err != nil {
		log.Fatal("failed to rotate sessions", zap.Error(err))
	}

	log.Info("password reset", zap.String("email", *email))
}
