package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	cloudpubsub "cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/ga4tools/ga4report/internal/export"
	"github.com/ga4tools/ga4report/internal/export/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestNewInvalidTopic(t *testing.T) {
	_, err := pubsub.New(context.Background(), "reports")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.Dial(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	admin, err := cloudpubsub.NewClient(ctx, "analytics", option.WithGRPCConn(conn))
	require.NoError(t, err)
	_, err = admin.CreateTopic(ctx, "ga4-reports")
	require.NoError(t, err)

	ps, err := pubsub.New(ctx, "projects/analytics/topics/ga4-reports", option.WithGRPCConn(conn))
	require.NoError(t, err)

	record := export.Record{
		RunID:       "run-1",
		Report:      "geolocation",
		PropertyID:  "123",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Headers:     []string{"country", "city", "activeUsers"},
		Rows:        [][]string{{"Taiwan", "Taipei", "120"}},
	}
	require.NoError(t, ps.Export(ctx, record))

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "geolocation", msgs[0].Attributes["report"])
	assert.Equal(t, "123", msgs[0].Attributes["propertyID"])

	published := export.Record{}
	require.NoError(t, json.Unmarshal(msgs[0].Data, &published))
	assert.Equal(t, record, published)
}
