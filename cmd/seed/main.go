package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin/binding"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

const batchSize = 500

func main() {
	ingredientsFile := flag.String("ingredients", "", "JSON file of ingredients to load")
	tagsFile := flag.String("tags", "", "JSON file of tags to load")
	adminEmail := flag.String("admin-email", "", "Create an admin with this email")
	adminUsername := flag.String("admin-username", "admin", "Admin username")
	adminPassword := flag.String("admin-password", "", "Admin password")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()
	db, err := database.Open(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	if *ingredientsFile != "" {
		var inputs []types.IngredientInput
		if err := readJSON(*ingredientsFile, &inputs); err != nil {
			logging.Fatal().Err(err).Msg("failed to read ingredients")
		}
		n, err := service.NewIngredientService(db).BulkCreate(ctx, inputs, batchSize)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to load ingredients")
		}
		logging.Info().Int64("created", n).Int("read", len(inputs)).Msg("loaded ingredients")
	}

	if *tagsFile != "" {
		var inputs []types.TagInput
		if err := readJSON(*tagsFile, &inputs); err != nil {
			logging.Fatal().Err(err).Msg("failed to read tags")
		}
		n, err := service.NewTagService(db).UpsertTags(ctx, inputs)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to load tags")
		}
		logging.Info().Int64("written", n).Msg("loaded tags")
	}

	if *adminEmail != "" {
		req := &types.RegisterRequest{
			Email:     *adminEmail,
			Username:  *adminUsername,
			FirstName: "Admin",
			LastName:  "Admin",
			Password:  *adminPassword,
		}
		if err := validation.RegisterGin(); err != nil {
			logging.Fatal().Err(err).Msg("failed to register validators")
		}
		if err := binding.Validator.ValidateStruct(req); err != nil {
			logging.Fatal().Err(err).Msg("invalid admin account")
		}
		admin, err := service.NewUserService(db).CreateAdmin(ctx, req)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to create admin")
		}
		logging.Info().Uint("id", admin.ID).Str("username", admin.Username).Msg("created admin")
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
