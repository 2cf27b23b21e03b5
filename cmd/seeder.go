package cmd

import (
	"fmt"
	"log"

	"github.com/frahmantamala/lead-management/internal/auth"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"permission_grants", "department_grants", "address_approval_requests", "approved_addresses", "sessions", "lead_assignments", "counselors", "principals"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, err := auth.HashPassword(password, cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		seedPrincipal(db, "root@mail.com", "Root", "admin", true, nil, hash)
		sales := "Sales"
		seedPrincipal(db, "admin2@mail.com", "Admin Two", "admin", false, &sales, hash)
		seedPrincipal(db, "counselor1@mail.com", "Counselor One", "counselor", false, nil, hash)

		counselors := []struct {
			Name       string
			Email      string
			Phone      string
			Department *string
		}{
			{"Dina", "dina@mail.com", "081234567001", &sales},
			{"Rudi", "rudi@mail.com", "081234567002", strPtr("Marketing")},
			{"Sari", "sari@mail.com", "081234567003", nil},
		}

		for _, c := range counselors {
			var exists int
			row := db.Raw("SELECT 1 FROM counselors WHERE email = ?", c.Email).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec(
				"INSERT INTO counselors (name, email, phone, department, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
				c.Name, c.Email, c.Phone, c.Department,
			).Error; err != nil {
				log.Fatalf("failed to insert counselor %s: %v", c.Name, err)
			}
			fmt.Println("Seeded counselor:", c.Name)
		}

		fmt.Println("Seeding complete. Default password:", password)
	},
}

func seedPrincipal(db *gorm.DB, email, name, role string, superAdmin bool, homeDepartment *string, hash string) {
	var exists int
	row := db.Raw("SELECT 1 FROM principals WHERE email = ?", email).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Println("principal already exists:", email)
		return
	}

	if err := db.Exec(
		"INSERT INTO principals (email, display_name, role, is_super_admin, is_active, home_department, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, true, ?, ?, now(), now())",
		email, name, role, superAdmin, homeDepartment, hash,
	).Error; err != nil {
		log.Fatalf("failed to insert principal %s: %v", email, err)
	}
	fmt.Println("Seeded principal:", email)
}

func strPtr(s string) *string { return &s }
