//go:build integration

package mongodb_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/config"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/database"
	repo "github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository/mongodb"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository/storetest"
)

var mongoURI string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		panic(err)
	}
	mongoURI = fmt.Sprintf("mongodb://%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	client, err := database.ConnectMongo(ctx, config.Mongo{URI: mongoURI, Database: "flancer_test"})
	require.NoError(t, err)

	store := repo.NewStore(client, "flancer_test")
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	require.NoError(t, store.EnsureIndexes(ctx))
	require.NoError(t, store.Ping(ctx))

	storetest.Run(t, store)
}
