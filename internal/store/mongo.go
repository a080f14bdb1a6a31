package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fxb-gnss/spp/internal/gnss"
)

// obsDoc is the document shape archived per observation, mirroring the
// receiver's raw-observation JSON record.
type obsDoc struct {
	Time time.Time `bson:"time"`
	Sat  int       `bson:"sat"`
	SNR  [2]uint16 `bson:"snr"`
	Code [2]uint8  `bson:"code"`
	L    [2]float64 `bson:"l"`
	P    [2]float64 `bson:"p"`
	D    [1]float64 `bson:"d"`
}

// ObsArchive writes full raw observation batches to MongoDB, kept
// separate from the ClickHouse analytics sink because an epoch's
// complete observation set is exploratory data, not query-shaped.
type ObsArchive struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewObsArchive connects to uri and binds to database.gnss_obs.
func NewObsArchive(ctx context.Context, uri, database string) (*ObsArchive, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "pinging mongodb")
	}
	return &ObsArchive{
		client:     client,
		collection: client.Database(database).Collection("gnss_obs"),
	}, nil
}

// Archive inserts every observation in obs as its own document.
func (a *ObsArchive) Archive(ctx context.Context, obs []gnss.Obs) error {
	docs := make([]interface{}, len(obs))
	for i := range obs {
		docs[i] = obsDoc{
			Time: time.Unix(int64(obs[i].Time.Time), 0),
			Sat:  obs[i].Sat,
			SNR:  obs[i].SNR,
			Code: obs[i].Code,
			L:    obs[i].L,
			P:    obs[i].P,
			D:    obs[i].D,
		}
	}
	if len(docs) == 0 {
		return nil
	}
	if _, err := a.collection.InsertMany(ctx, docs); err != nil {
		return errors.Wrap(err, "archiving observation batch")
	}
	return nil
}

// Close disconnects the MongoDB client.
func (a *ObsArchive) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}
