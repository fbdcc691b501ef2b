package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ria-hunter/internal/common/config"
)

// ==========================
// Postgres
// ==========================

func TestPostgresClient_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	client := NewPostgresWithDB(db)
	mock.ExpectPing()
	require.NoError(t, client.Ping(context.Background()))

	mock.ExpectClose()
	require.NoError(t, client.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Redis
// ==========================

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

// ==========================
// Elasticsearch
// ==========================

func newFakeElasticsearch(t *testing.T, indexStatus int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodHead && r.URL.Path == "/ria_narratives":
			w.WriteHeader(indexStatus)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestElasticsearchClient_PingAndIndex(t *testing.T) {
	server := newFakeElasticsearch(t, http.StatusOK)

	client, err := NewElasticsearch(config.ElasticsearchConfig{
		URL:            server.URL,
		NarrativeIndex: "ria_narratives",
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	exists, err := client.IndexExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestElasticsearchClient_IndexMissing(t *testing.T) {
	server := newFakeElasticsearch(t, http.StatusNotFound)

	client, err := NewElasticsearch(config.ElasticsearchConfig{
		Addresses:      []string{server.URL},
		NarrativeIndex: "ria_narratives",
	})
	require.NoError(t, err)

	exists, err := client.IndexExists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

// ==========================
// Qdrant
// ==========================

func TestStateFilter(t *testing.T) {
	assert.Nil(t, stateFilter(""))

	f := stateFilter("MO")
	require.NotNil(t, f)
	require.Len(t, f.Must, 1)
	field := f.Must[0].GetField()
	require.NotNil(t, field)
	assert.Equal(t, "state", field.Key)
	assert.Equal(t, "MO", field.Match.GetKeyword())
}

func TestScoredPointsToMatches(t *testing.T) {
	points := []*qdrant.ScoredPoint{
		{
			Id:      qdrant.NewIDNum(7),
			Score:   0.91,
			Payload: map[string]*qdrant.Value{"crd": qdrant.NewValueString("123456")},
		},
		{
			Id:    qdrant.NewIDNum(42),
			Score: 0.75,
		},
		{
			Id:      qdrant.NewID("4b1c3f0e-8d5a-4f7e-9a51-6c2d1e0f9b11"),
			Score:   0.5,
			Payload: map[string]*qdrant.Value{"crd": qdrant.NewValueInt(998877)},
		},
	}

	matches := scoredPointsToMatches(points)
	require.Len(t, matches, 3)
	assert.Equal(t, "123456", matches[0].FirmID)
	assert.InDelta(t, 0.91, matches[0].Score, 1e-6)
	assert.Equal(t, "42", matches[1].FirmID)
	assert.Equal(t, "998877", matches[2].FirmID)
}
