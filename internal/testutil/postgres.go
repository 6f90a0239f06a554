// Package testutil starts throwaway PostgreSQL containers for storage tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/critter/internal/config"
	"github.com/cory-johannsen/critter/internal/storage/postgres"
)

const postgresImage = "postgres:16-alpine"

// PostgresContainer is a running, empty PostgreSQL database.
type PostgresContainer struct {
	Config config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL container that is terminated when
// the test ends. The schema is not migrated.
//
// Precondition: Docker must be available.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()
	start := time.Now()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "critter",
				"POSTGRES_PASSWORD": "critter",
				"POSTGRES_DB":       "critter_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting %s: %v [%s]", postgresImage, err, time.Since(start))
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	t.Logf("postgres container ready at %s:%d [%s]", host, port.Int(), time.Since(start))

	return &PostgresContainer{Config: config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "critter",
		Password:        "critter",
		Name:            "critter_test",
		SSLMode:         "disable",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}}
}

// DSN returns the connection string for the container's database.
func (pc *PostgresContainer) DSN() string {
	return pc.Config.DSN()
}

// NewStore starts a container, migrates it and returns a Store closed at
// test cleanup.
//
// Postcondition: The creatures, eggs and battles tables exist.
func NewStore(t *testing.T) *postgres.Store {
	t.Helper()
	pc := NewPostgresContainer(t)
	store, err := postgres.Open(context.Background(), pc.Config)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}
