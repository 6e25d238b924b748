package firestore

import (
	"context"
	"fmt"

	gfs "cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"form-intake/pkg/credentials"
	"form-intake/pkg/models"
)

const countAlias = "all"

// Client defines the interface for keeping user records in a Firestore collection
type Client interface {
	Put(ctx context.Context, rec models.UserRecord) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

type clientImpl struct {
	client     *gfs.Client
	collection string
}

// NewClient creates a Firestore client authorized by the service account.
// projectID may be empty, in which case the bundle's project is used.
func NewClient(ctx context.Context, sa *credentials.ServiceAccount, projectID, collection string) (Client, error) {
	if projectID == "" {
		projectID = sa.ProjectID
	}
	c, err := newClient(ctx, projectID, collection, option.WithCredentialsJSON(sa.JSON()))
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(ctx context.Context, projectID, collection string, opts ...option.ClientOption) (*clientImpl, error) {
	client, err := gfs.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating Firestore client: %w", err)
	}

	log.WithField("prefix", "firestore").
		WithField("project", projectID).
		WithField("collection", collection).
		Info("firestore client ready")

	return &clientImpl{
		client:     client,
		collection: collection,
	}, nil
}

// Put sets the document at the record's ID, replacing any previous version.
func (c *clientImpl) Put(ctx context.Context, rec models.UserRecord) error {
	if _, err := c.client.Collection(c.collection).Doc(rec.ID).Set(ctx, rec); err != nil {
		return fmt.Errorf("error writing document: %w", err)
	}
	return nil
}

// Count runs a server-side count aggregation over the collection.
func (c *clientImpl) Count(ctx context.Context) (int64, error) {
	res, err := c.client.Collection(c.collection).NewAggregationQuery().WithCount(countAlias).Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting documents: %w", err)
	}
	return countFrom(res)
}

// countFrom reads the count aggregation out of a result keyed by countAlias.
func countFrom(res gfs.AggregationResult) (int64, error) {
	v, ok := res[countAlias]
	if !ok {
		return 0, fmt.Errorf("count aggregation returned no %q result", countAlias)
	}

	pv, ok := v.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result type %T", v)
	}

	n, ok := pv.GetValueType().(*firestorepb.Value_IntegerValue)
	if !ok {
		return 0, fmt.Errorf("unexpected count value %v", pv)
	}
	return n.IntegerValue, nil
}

func (c *clientImpl) Close() error {
	return c.client.Close()
}
