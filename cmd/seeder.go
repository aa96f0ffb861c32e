package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	authPostgres "github.com/frahmantamala/power-data-portal/internal/auth/postgres"
	userDatamodel "github.com/frahmantamala/power-data-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/power-data-portal/internal/core/user"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	seedName     string
	seedEmail    string
	seedPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the initial administrator account",
	Long:  `Create an active admin account so the first registrations can be accepted.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if len(seedPassword) < 8 {
			log.Fatal("--password must be at least 8 characters")
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		gormDB, err := initGorm(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		ctx := context.Background()
		repo := authPostgres.NewRepository(gormDB)
		email := strings.ToLower(strings.TrimSpace(seedEmail))

		if existing, err := repo.GetByEmail(ctx, email); err == nil {
			if err := gormDB.Model(&userDatamodel.User{}).Where("id = ?", existing.ID).
				Updates(map[string]interface{}{"role": string(user.RoleAdmin), "status": string(user.StatusActive)}).Error; err != nil {
				log.Fatalf("failed to promote %s: %v", email, err)
			}
			fmt.Println("admin user already exists; ensured admin role:", email)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		admin := &userDatamodel.User{
			Name:         seedName,
			Email:        email,
			PasswordHash: string(hash),
			Role:         string(user.RoleAdmin),
			Status:       string(user.StatusActive),
		}
		if err := repo.Create(ctx, admin); err != nil {
			log.Fatalf("failed to insert admin user: %v", err)
		}
		fmt.Println("Seeded admin user:", email)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedName, "name", "Administrator", "admin display name")
	seedCmd.Flags().StringVar(&seedEmail, "email", "admin@example.com", "admin email")
	seedCmd.Flags().StringVar(&seedPassword, "password", "", "admin password (min 8 characters)")
	_ = seedCmd.MarkFlagRequired("password")
}
