// Command createadmin creates an admin user from the command line.
//
//	go run ./cmd/createadmin -email admin@example.com -password secret
package main

import (
	"context"
	"flag"
	"log"

	"ledgerone/internal/config"
	"ledgerone/internal/store"
)

func main() {
	email := flag.String("email", "", "email address for the new admin user")
	password := flag.String("password", "", "password for the new admin user")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap schema: %v", err)
	}

	if err := db.CreateUser(ctx, *email, *password, []string{"admin"}); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	log.Printf("Admin user %s created", *email)
}
