//go:build integration

package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/signalsfoundry/orbital-risk/internal/catalog"
	"github.com/signalsfoundry/orbital-risk/model"
)

type RedisStoreSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *redis.Client
	store     *catalog.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	client, err := catalog.NewRedisClient(ctx, url)
	s.Require().NoError(err)
	s.client = client
	s.store = catalog.NewRedisStore(client, "orbitrisk:test:catalog", time.Hour)
}

func (s *RedisStoreSuite) TearDownSuite() {
	ctx := context.Background()
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(ctx)
	}
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisStoreSuite) TestLoadMissingReturnsErrNoSnapshot() {
	_, err := s.store.Load(context.Background())
	s.Require().ErrorIs(err, catalog.ErrNoSnapshot)
}

func (s *RedisStoreSuite) TestSaveAndLoad() {
	ctx := context.Background()
	obj, err := model.NewTrackedObject("ISS (ZARYA)", 25544,
		"1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990",
		"2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760")
	s.Require().NoError(err)

	ts := time.Date(2025, time.February, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Save(ctx, catalog.Snapshot{Timestamp: ts, Data: []model.TrackedObject{obj}}))

	got, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.True(got.Timestamp.Equal(ts))
	s.Require().Len(got.Data, 1)
	s.Equal(obj, got.Data[0])

	ttl, err := s.client.TTL(ctx, "orbitrisk:test:catalog").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisStoreSuite) TestServiceFallsBackToRedisSnapshot() {
	ctx := context.Background()
	obj, err := model.NewTrackedObject("HST", 20580,
		"1 20580U 90037B   21275.52504630  .00000594  00000-0  21357-4 0  9993",
		"2 20580  28.4694 129.1466 0002746  91.4413 327.5638 15.09749286527413")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(ctx, catalog.Snapshot{Timestamp: time.Now().UTC(), Data: []model.TrackedObject{obj}}))

	svc := catalog.NewService(catalog.NewFetcher(time.Second),
		catalog.WithGroups([]catalog.Group{{Name: "unreachable", URL: "http://127.0.0.1:1/gp.php"}}),
		catalog.WithStore(s.store),
	)
	objs, err := svc.ListTrackedObjects(ctx)
	s.Require().NoError(err)
	s.Require().Len(objs, 1)
	s.Equal(20580, objs[0].CatalogNumber)
}
