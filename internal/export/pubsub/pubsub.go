// Package pubsub publishes report records to a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"
	"regexp"

	cloudpubsub "cloud.google.com/go/pubsub"
	"github.com/ga4tools/ga4report/internal/export"
	"github.com/ga4tools/ga4report/internal/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

var topicNameRe = regexp.MustCompile(`^projects/([^/]+)/topics/([^/]+)$`)

// PubSub is a Google Cloud Pub/Sub client to publish report records.
type PubSub struct {
	client *cloudpubsub.Client
	topic  *cloudpubsub.Topic
}

// New initializes a PubSub client for a topic name of the form
// projects/{project}/topics/{topic}.
func New(ctx context.Context, topicName string, opts ...option.ClientOption) (*PubSub, error) {
	logger := util.LoggerFrom(ctx)
	match := topicNameRe.FindStringSubmatch(topicName)
	if len(match) != 3 {
		return nil, errors.Errorf("invalid topic name %s", topicName)
	}
	project := match[1]
	topicID := match[2]
	logger.WithFields(logrus.Fields{"topicProject": project, "topicID": topicID}).Debug("parsed topic name value")

	client, err := cloudpubsub.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Pub/Sub client")
	}

	return &PubSub{
		client: client,
		topic:  client.TopicInProject(topicID, project),
	}, nil
}

// Export publishes the record to the topic and waits for the server to
// acknowledge it.
func (ps *PubSub) Export(ctx context.Context, record export.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal record")
	}

	logger := util.LoggerFrom(ctx)
	res := ps.topic.Publish(ctx, &cloudpubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"report":     record.Report,
			"propertyID": record.PropertyID,
			"runID":      record.RunID,
		},
	})
	id, err := res.Get(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to publish record")
	}
	logger.WithFields(logrus.Fields{"size": len(data), "messageID": id}).Debug("published record to Pub/Sub")
	return nil
}

// Close flushes pending messages and releases the client.
func (ps *PubSub) Close() error {
	ps.topic.Stop()
	return errors.Wrap(ps.client.Close(), "failed to close Pub/Sub client")
}
