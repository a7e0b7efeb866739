package db

import (
	"log"
	"os"

	"inkwell/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=inkwell port=5432 sslmode=disable"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	seedGroups()
}

// Migrate runs AutoMigrate for all models. Exported so tests can
// bring up a schema on their own connection.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	)
}

func seedGroups() {
	var count int64
	DB.Model(&models.Group{}).Count(&count)
	if count > 0 {
		log.Println("Groups already seeded, skipping")
		return
	}

	// Groups are admin-managed; ship a starter set so the site is usable
	groups := []models.Group{
		{Title: "Tech", Slug: "tech", Description: "Programming, tools and everything technical"},
		{Title: "Life", Slug: "life", Description: "Everyday notes and experiences"},
		{Title: "Showcase", Slug: "showcase", Description: "Projects and things you made"},
	}

	for _, group := range groups {
		if err := DB.Create(&group).Error; err != nil {
			log.Printf("Failed to create group %s: %v", group.Slug, err)
		}
	}
	log.Println("Initial groups created successfully")
}
