// Command main runs the database seeder for Inkwell.
package main

import (
	"flag"
	"log"
	"os"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"

	"gopkg.in/yaml.v3"
)

// fixtureFile mirrors seed.Options so recurring seed profiles can live in a
// checked-in YAML file instead of a shell alias.
type fixtureFile struct {
	Users      int  `yaml:"users"`
	Posts      int  `yaml:"posts"`
	Clean      bool `yaml:"clean"`
	MaxDays    int  `yaml:"max_days"`
	SkipBcrypt bool `yaml:"skip_bcrypt"`
}

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	maxDays := flag.Int("max-days", 90, "Spread timestamps over this many days back")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store plaintext passwords (fast local seeding only)")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	fixture := flag.String("fixture", "", "YAML seed profile; overrides the count flags")
	flag.Parse()

	opts := seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		MaxDays:     *maxDays,
		SkipBcrypt:  *skipBcrypt,
		DryRun:      *dryRun,
	}

	if *fixture != "" {
		fx, err := loadFixture(*fixture)
		if err != nil {
			log.Fatalf("❌ Failed to load fixture %s: %v", *fixture, err)
		}
		opts.NumUsers = fx.Users
		opts.NumPosts = fx.Posts
		opts.ShouldClean = fx.Clean
		opts.SkipBcrypt = fx.SkipBcrypt
		if fx.MaxDays > 0 {
			opts.MaxDays = fx.MaxDays
		}
		log.Printf("Loaded seed profile from %s", *fixture)
	}

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v, dry-run=%v\n",
		opts.NumUsers, opts.NumPosts, opts.ShouldClean, opts.DryRun)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, opts); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	if opts.DryRun {
		log.Println("✨ Dry run complete. Nothing was written.")
		return
	}
	log.Println("✨ All done! Your database is now populated with test data.")
	log.Println("📧 All test users have the password: password123")
}

func loadFixture(path string) (fixtureFile, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return fixtureFile{}, err
	}
	var fx fixtureFile
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fixtureFile{}, err
	}
	return fx, nil
}
