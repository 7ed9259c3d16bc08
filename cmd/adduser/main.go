// cmd/adduser/main.go
// Creates or updates a user in the database.
//
// Usage:
//
//	go run ./cmd/adduser -name "Sam Coach" -email sam@example.com -password testing123 -role trainer
//
// The user id is printed on success; use it as TRAINER_ID.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/trainerbook/trainerbook/config"
	bundb "github.com/trainerbook/trainerbook/db"
	"github.com/trainerbook/trainerbook/handlers"
	"github.com/trainerbook/trainerbook/models"
)

func main() {
	name := flag.String("name", "", "display name (required)")
	email := flag.String("email", "", "email address (required)")
	password := flag.String("password", "", "plain-text password (required)")
	role := flag.String("role", string(models.RoleClient), "client or trainer; ignored for existing users")
	flag.Parse()

	if *name == "" || *email == "" || *password == "" {
		log.Fatal("-name, -email and -password are required")
	}
	if !models.Role(*role).Valid() {
		log.Fatalf("unknown role %q", *role)
	}

	hash, err := handlers.HashPassword(*password)
	if err != nil {
		log.Fatal("bcrypt:", err)
	}

	ctx := context.Background()
	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatal("create tables:", err)
	}

	user := &models.User{
		Name:     *name,
		Email:    *email,
		Password: hash,
		Role:     models.Role(*role),
	}
	if err := bundb.NewStore(db).UpsertUser(ctx, user); err != nil {
		log.Fatal("save user:", err)
	}

	log.Printf("user %q saved as %s", user.Email, user.Role)
	fmt.Println(user.ID)
}
