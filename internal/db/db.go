package db

import (
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // The database driver
)

// DB is the global database connection shared by the query functions in
// this package. Tests swap it for a sqlmock-backed handle.
var DB *sqlx.DB

// InitDB connects to Postgres using DATABASE_URL and fails fast if the
// database is unreachable. Both the API server and the worker keep a
// small pool; neither holds long transactions.
func InitDB() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	var err error
	DB, err = sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	DB.SetMaxOpenConns(10)
	DB.SetConnMaxIdleTime(5 * time.Minute)

	if err = DB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Database connection established")
}
