// Package project provides steward project scaffolding: idempotent
// initialization of the standard layout and minting of new migration files.
//
// # Project Structure
//
// A steward project follows this layout:
//
//	project-root/
//	├── steward.yaml                      # Project configuration
//	├── migrations/                       # Migration sources (one file each)
//	│   ├── doc.go
//	│   └── 202401151230_create_users.go
//	├── models/                           # Annotated record types for `steward gen`
//	└── db/
//	    └── main.go                       # Example migration binary wiring
//
// Initialization only creates what is missing, so rerunning `steward init`
// in an existing project never overwrites user content.
package project
