// Package containers starts throwaway databases for the contract tests. The
// tests only reach for it when CONTRACT_TESTS=1.
package containers

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	DBName   = "exams"
	User     = "exams"
	Password = "exams-secret"
)

// Endpoint is where a started container listens on the host.
type Endpoint struct {
	Host string
	Port int
}

// SkipUnlessEnabled skips t when contract tests are not switched on.
func SkipUnlessEnabled(t *testing.T) {
	t.Helper()
	if os.Getenv("CONTRACT_TESTS") != "1" {
		t.Skip("contract tests skipped; set CONTRACT_TESTS=1 and run a docker daemon")
	}
}

func start(ctx context.Context, req testcontainers.ContainerRequest, port string) (Endpoint, func(), error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return Endpoint{}, nil, fmt.Errorf("failed to start %s: %w", req.Image, err)
	}
	terminate := func() { _ = container.Terminate(context.Background()) }

	host, err := container.Host(ctx)
	if err != nil {
		terminate()
		return Endpoint{}, nil, fmt.Errorf("failed to get %s host: %w", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		terminate()
		return Endpoint{}, nil, fmt.Errorf("failed to acquire %s mapped port: %w", req.Image, err)
	}
	return Endpoint{Host: host, Port: mapped.Int()}, terminate, nil
}

// Postgres starts postgres:16.3 with DBName, User and Password.
func Postgres(ctx context.Context) (Endpoint, func(), error) {
	return start(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16.3",
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
		Env: map[string]string{
			"POSTGRES_DB":       DBName,
			"POSTGRES_USER":     User,
			"POSTGRES_PASSWORD": Password,
		},
	}, "5432/tcp")
}

// MySQL starts mysql:8.4 with DBName, User and Password.
func MySQL(ctx context.Context) (Endpoint, func(), error) {
	return start(ctx, testcontainers.ContainerRequest{
		Image:        "mysql:8.4",
		ExposedPorts: []string{"3306/tcp"},
		WaitingFor:   wait.ForLog("port: 3306  MySQL Community Server"),
		Env: map[string]string{
			"MYSQL_DATABASE":      DBName,
			"MYSQL_USER":          User,
			"MYSQL_PASSWORD":      Password,
			"MYSQL_ROOT_PASSWORD": Password,
		},
	}, "3306/tcp")
}

// DynamoDB starts DynamoDB Local and returns its http endpoint URL.
func DynamoDB(ctx context.Context) (string, func(), error) {
	ep, terminate, err := start(ctx, testcontainers.ContainerRequest{
		Image:        "amazon/dynamodb-local:2.4.0",
		ExposedPorts: []string{"8000/tcp"},
		WaitingFor:   wait.ForListeningPort("8000/tcp"),
	}, "8000/tcp")
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("http://%s:%d", ep.Host, ep.Port), terminate, nil
}
