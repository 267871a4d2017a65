package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/pdgmail/pdgmail/config"
	"github.com/pdgmail/pdgmail/pkg/helpers"
)

// Seeds two demo accounts and a handful of emails between them so a fresh
// database has something to look at.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	alice := seedUser(db, "alice@pdgmail.dev", "Alice Demo", "password123")
	bob := seedUser(db, "bob@pdgmail.dev", "Bob Demo", "password123")
	fmt.Printf("seeded users: alice=%s bob=%s (password: password123)\n", alice, bob)

	seedEmail(db, alice, "bob@pdgmail.dev", "Welcome aboard", "Hi Bob, glad you joined.", true, false)
	seedEmail(db, bob, "alice@pdgmail.dev", "Re: Welcome aboard", "Thanks Alice!", true, false)
	seedEmail(db, alice, "bob@pdgmail.dev", "Draft notes", "Unfinished thoughts...", false, true)
	fmt.Println("seeded demo emails")
}

func seedUser(db *sql.DB, email, name, password string) string {
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, name, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, email, hash, name, "").Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user %s: %v", email, err)
	}
	return id
}

func seedEmail(db *sql.DB, senderID, recipient, subject, body string, sent, draft bool) {
	_, err := db.Exec(`
		INSERT INTO emails (subject, body, sender_id, recipient, is_sent, is_draft)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, subject, body, senderID, recipient, sent, draft)
	if err != nil {
		log.Fatalf("failed to seed email %q: %v", subject, err)
	}
}
