// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	└── publications/    # Publication and manifest link persistence
//
// # Usage
//
//	db, err := database.NewDatabase("./pubshelf.db")
//	repo := publications.NewRepository(db.DB)
//	record, err := repo.GetByID(42)
//	manifest, err := publications.ToManifest(record)
package database
