package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	"github.com/umoc-outing-club/gear-locker/internal/auth"
	authPostgres "github.com/umoc-outing-club/gear-locker/internal/auth/postgres"
	"github.com/umoc-outing-club/gear-locker/internal/category"
	categoryPostgres "github.com/umoc-outing-club/gear-locker/internal/category/postgres"
	userDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/user"
	"github.com/umoc-outing-club/gear-locker/internal/gear"
	gearPostgres "github.com/umoc-outing-club/gear-locker/internal/gear/postgres"
	"github.com/umoc-outing-club/gear-locker/internal/user"
	userPostgres "github.com/umoc-outing-club/gear-locker/internal/user/postgres"
	"github.com/umoc-outing-club/gear-locker/pkg/logger"
	"gorm.io/gorm"
)

const seedPassword = "password123"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample members, categories and gear for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := bootstrap()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		ctx := context.Background()
		if clearData {
			if err := clearSeedData(gormDB); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		lg := logger.LoggerWrapper()
		tokens := auth.NewJWTTokenGenerator(
			cfg.Security.AccessTokenSecret,
			cfg.Security.RefreshTokenSecret,
			cfg.Security.AccessTokenDuration,
			cfg.Security.RefreshTokenDuration,
		)
		authService := auth.NewService(authPostgres.NewIdentityRepository(gormDB), authPostgres.NewUserLookup(gormDB), tokens, cfg.Security.BCryptCost, lg)
		userService := user.NewService(userPostgres.NewUserRepository(gormDB), authService, lg, cfg.Database.QueryTimeout)
		categoryService := category.NewService(categoryPostgres.NewCategoryRepository(gormDB), lg)
		gearService := gear.NewService(gearPostgres.NewGearRepository(gormDB), categoryService, nil, nil, lg, gear.Options{
			QueryTimeout: cfg.Database.QueryTimeout,
		})

		if err := seedCategories(ctx, categoryService); err != nil {
			log.Fatalf("failed to seed categories: %v", err)
		}
		if err := seedUsers(ctx, userService); err != nil {
			log.Fatalf("failed to seed users: %v", err)
		}
		if err := seedGear(ctx, gearService); err != nil {
			log.Fatalf("failed to seed gear: %v", err)
		}

		fmt.Println("Seed data ready; every seeded account uses password:", seedPassword)
	},
}

func clearSeedData(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"check_outs", "gear", "users", "identities", "gear_categories"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func seedCategories(ctx context.Context, svc *category.Service) error {
	categories := []struct {
		Name string
		Desc string
	}{
		{"camping", "tents, tarps and sleeping gear"},
		{"climbing", "ropes, harnesses and protection"},
		{"paddling", "boats, paddles and pfds"},
		{"winter", "snowshoes, crampons and ice axes"},
		{"cooking", "stoves, pots and fuel bottles"},
	}

	for _, c := range categories {
		if _, err := svc.Create(ctx, c.Name, c.Desc); err != nil {
			return fmt.Errorf("category %s: %w", c.Name, err)
		}
		fmt.Printf("Seeded gear category: %s\n", c.Name)
	}
	return nil
}

func seedUsers(ctx context.Context, svc *user.Service) error {
	accounts := []struct {
		Email   string
		Name    string
		PermLvl int
		SpireID string
		Phone   string
	}{
		{"member@umass.edu", "Morgan Member", userDatamodel.PermMember, "30000001", "4135550101"},
		{"leader@umass.edu", "Lee Leader", userDatamodel.PermLeader, "30000002", "4135550102"},
		{"manager@umass.edu", "Max Manager", userDatamodel.PermLockerManager, "30000003", "4135550103"},
	}

	for _, a := range accounts {
		permLvl := a.PermLvl
		spireID := a.SpireID
		waiver := true
		_, err := svc.SignUp(ctx, user.SignUpDTO{
			Email:    a.Email,
			Password: seedPassword,
			Name:     a.Name,
			PermLvl:  &permLvl,
			PhoneNum: a.Phone,
			SpireID:  &spireID,
			Waiver:   &waiver,
		})
		if errors.Is(err, apperrors.ErrDuplicateAccount) {
			fmt.Printf("%s already exists; skipping\n", a.Email)
			continue
		}
		if err != nil {
			return fmt.Errorf("user %s: %w", a.Email, err)
		}
		fmt.Printf("Seeded user: %s (permLvl %d)\n", a.Email, a.PermLvl)
	}
	return nil
}

func seedGear(ctx context.Context, svc *gear.Service) error {
	items := []gear.CreateGearDTO{
		{
			GearTag:    "TNT001",
			Name:       "Two person tent",
			Category:   []string{"camping"},
			GearFields: gear.GearFields{Brand: "REI", Color: "green", Size: "2P"},
		},
		{
			GearTag:    "TNT002",
			Name:       "Four person tent",
			Category:   []string{"camping"},
			GearFields: gear.GearFields{Brand: "Big Agnes", Color: "orange", Size: "4P"},
		},
		{
			GearTag:    "HRN001",
			Name:       "Climbing harness",
			Category:   []string{"climbing"},
			GearFields: gear.GearFields{Brand: "Black Diamond", Color: "blue", Size: "M"},
		},
		{
			GearTag:    "STV001",
			Name:       "Canister stove",
			Category:   []string{"cooking", "camping"},
			GearFields: gear.GearFields{Brand: "MSR", Color: "silver"},
		},
		{
			GearTag:    "SNS001",
			Name:       "Snowshoes",
			Category:   []string{"winter"},
			GearFields: gear.GearFields{Brand: "MSR", Color: "red", Size: "25in"},
		},
	}

	for _, item := range items {
		_, err := svc.Create(ctx, item)
		if errors.Is(err, apperrors.ErrDuplicateGearTag) {
			fmt.Printf("%s already exists; skipping\n", item.GearTag)
			continue
		}
		if err != nil {
			return fmt.Errorf("gear %s: %w", item.GearTag, err)
		}
		fmt.Printf("Seeded gear: %s\n", item.GearTag)
	}
	return nil
}
