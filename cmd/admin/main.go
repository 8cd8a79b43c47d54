// Package main provides admin management utilities for Inkwell.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin promote <user_id|username>   - Grant admin rights")
	fmt.Println("  admin demote <user_id|username>    - Revoke admin rights")
	fmt.Println("  admin list                         - List all admins")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch os.Args[1] {
	case "promote":
		if len(os.Args) < 3 {
			usage()
		}
		setAdmin(cfg, db, os.Args[2], true)
	case "demote":
		if len(os.Args) < 3 {
			usage()
		}
		setAdmin(cfg, db, os.Args[2], false)
	case "list":
		listAdmins(db)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
	}
}

// findUser accepts either a numeric ID or a username.
func findUser(db *gorm.DB, ref string) (*models.User, error) {
	var user models.User
	q := db.Where("username = ?", ref)
	if isDigits(ref) {
		q = db.Where("id = ?", ref)
	}
	if err := q.First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func setAdmin(cfg *config.Config, db *gorm.DB, ref string, grant bool) {
	user, err := findUser(db, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User %q not found\n", ref)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	// The dev root admin stays an admin, same rule the API enforces.
	if !grant && strings.EqualFold(cfg.Env, "development") && user.ID == 1 {
		fmt.Println("Refusing to demote the development root admin (user 1)")
		os.Exit(1)
	}

	if user.IsAdmin == grant {
		fmt.Printf("User %s (ID: %d) admin=%v already\n", user.Username, user.ID, user.IsAdmin)
		return
	}

	if err := db.Model(user).Update("is_admin", grant).Error; err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}

	verb := "promoted"
	if !grant {
		verb = "demoted"
	}
	fmt.Printf("✅ Successfully %s %s (ID: %d)\n", verb, user.Username, user.ID)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("is_admin = ?", true).Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", admin.ID, admin.Username, admin.Email)
	}
}
