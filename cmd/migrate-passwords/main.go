// One-off migration: bcrypt-hash any plaintext passwords left in the users
// table after a bulk account import.
package main

import (
	"log"
	"strings"

	"abstract-review-api/config"
	"abstract-review-api/models"
	"abstract-review-api/utils"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	config.InitDB()

	var users []models.User
	if err := config.DB.Find(&users).Error; err != nil {
		log.Fatal("Failed to fetch users:", err)
	}

	migrated := 0
	for _, user := range users {
		// bcrypt hashes start with $2
		if strings.HasPrefix(user.Password, "$2") {
			continue
		}

		hashed, err := utils.HashPassword(user.Password)
		if err != nil {
			log.Printf("Failed to hash password for %s: %v\n", user.Email, err)
			continue
		}

		if err := config.DB.Model(&models.User{}).
			Where("user_id = ?", user.UserID).
			Update("password", hashed).Error; err != nil {
			log.Printf("Failed to update %s: %v\n", user.Email, err)
			continue
		}
		migrated++
	}

	log.Printf("Password migration complete: %d account(s) updated\n", migrated)
}
