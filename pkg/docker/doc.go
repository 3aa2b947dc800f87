// Package docker provides Docker integration for running Postgres instances
// for migration verification and local development.
//
// Two kinds of containers are supported:
//
//   - Container runs a disposable Postgres tied to the calling process,
//     used by `steward verify` and integration tests to prove a migration
//     set applies cleanly to an empty database.
//   - Engine manages long-lived containers through the Docker API, used by
//     `steward dev` to run a local Postgres that keeps running after the
//     command exits.
//
// # Usage Example
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		Version:     "16",
//		InitScripts: []string{"testdata/seed.sql"},
//	})
//
//	ctx := context.Background()
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
//
//	dsn, _ := container.GetDSN(ctx)
//
//	conn, _ := db.Open(ctx, dsn)
//	defer conn.Close()
//
// Init scripts run on first boot before the database accepts connections,
// which makes them the right place for extensions or roles that migrations
// assume to exist.
package docker
