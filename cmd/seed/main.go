// Command main runs the database seeder for Formstack.
package main

import (
	"flag"
	"log"

	"formstack/internal/config"
	"formstack/internal/database"
	"formstack/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 5, "Number of users to create")
	templates := flag.Int("templates", 3, "Templates per user")
	employees := flag.Int("employees", 25, "Employees per template")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Use the cheapest bcrypt cost")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.Seed(db, seed.Options{
		NumUsers:             *numUsers,
		TemplatesPerUser:     *templates,
		EmployeesPerTemplate: *employees,
		ShouldClean:          *shouldClean,
		SkipBcrypt:           *fast,
		DryRun:               *dryRun,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d templates, %d employees.", res.Users, res.Templates, res.Employees)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
