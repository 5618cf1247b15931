// Package mongotest runs a disposable single-node MongoDB replica set for
// integration tests.
package mongotest

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/huynhanx03/go-nosql/pkg/settings"
)

const (
	mongoImage  = "mongo:6"
	mongoPort   = "27017/tcp"
	replicaSet  = "rs0"
	readyWithin = 30 * time.Second
)

// Server is a running replica set.
type Server struct {
	URI    string
	Client *mongo.Client

	container testcontainers.Container
}

// Start launches the replica set, or skips t in short mode or without a
// Docker daemon. The server is terminated when t finishes.
func Start(t testing.TB) *Server {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	if !IsDockerRunning(ctx) {
		t.Skip("Docker is not running, skipping integration test")
	}

	srv, err := start(ctx)
	if err != nil {
		t.Fatalf("failed to setup mongodb replica set: %v", err)
	}
	t.Cleanup(func() {
		srv.Terminate(context.Background())
	})
	return srv
}

// Settings returns connection settings for database on the server.
func (s *Server) Settings(database string) *settings.MongoDB {
	return &settings.MongoDB{
		URI:         s.URI,
		Database:    database,
		Timeout:     10,
		MaxPoolSize: 20,
	}
}

// Terminate disconnects the client and removes the container.
func (s *Server) Terminate(ctx context.Context) {
	if s.Client != nil {
		_ = s.Client.Disconnect(ctx)
	}
	if err := s.container.Terminate(ctx); err != nil {
		fmt.Printf("failed to terminate container: %v\n", err)
	}
}

func start(ctx context.Context) (*Server, error) {
	req := testcontainers.ContainerRequest{
		Image:        mongoImage,
		ExposedPorts: []string{mongoPort},
		Cmd:          []string{"--replSet", replicaSet, "--bind_ip_all"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	srv := &Server{container: container}
	if err := srv.initiate(ctx); err != nil {
		srv.Terminate(ctx)
		return nil, err
	}
	return srv, nil
}

func (s *Server) initiate(ctx context.Context) error {
	script := fmt.Sprintf("rs.initiate({_id:'%s',members:[{_id:0,host:'localhost:27017'}]})", replicaSet)
	code, output, err := s.container.Exec(ctx, []string{"mongosh", "--quiet", "--eval", script})
	if err != nil {
		return fmt.Errorf("failed to initiate replica set: %w", err)
	}
	if code != 0 {
		out, _ := io.ReadAll(output)
		return fmt.Errorf("failed to initiate replica set: exit code %d: %s", code, out)
	}

	endpoint, err := s.container.Endpoint(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to get endpoint: %w", err)
	}
	s.URI = fmt.Sprintf("mongodb://%s/?directConnection=true", endpoint)

	s.Client, err = mongo.Connect(ctx, options.Client().ApplyURI(s.URI))
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	return waitForPrimary(ctx, s.Client)
}

func waitForPrimary(ctx context.Context, client *mongo.Client) error {
	deadline := time.Now().Add(readyWithin)
	for {
		var hello struct {
			IsWritablePrimary bool `bson:"isWritablePrimary"`
		}
		err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
		if err == nil && hello.IsWritablePrimary {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("replica set has no primary after %s: %v", readyWithin, err)
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// IsDockerRunning reports whether a Docker daemon answers.
func IsDockerRunning(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		return false
	}
	return true
}
