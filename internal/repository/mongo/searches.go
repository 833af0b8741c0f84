package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"moviescout/internal/domain"
)

type searchRecordDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Term      string             `bson:"term"`
	Count     int64              `bson:"count"`
	MovieID   int64              `bson:"movieId,omitempty"`
	PosterURL string             `bson:"posterUrl,omitempty"`
	CreatedAt int64              `bson:"createdAt"`
	UpdatedAt int64              `bson:"updatedAt"`
}

// SearchRepository persists per-term search counters.
type SearchRepository struct {
	collection *mongo.Collection
}

func NewSearchRepository(client *mongo.Client, dbName, collectionName string) *SearchRepository {
	return &SearchRepository{collection: client.Database(dbName).Collection(collectionName)}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the lookup and trending indexes. The term index is
// intentionally not unique: record identity is maintained by the recorder's
// find-then-write flow, and a uniqueness constraint would turn its benign
// races into write errors.
func (r *SearchRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "term", Value: 1}}},
		{Keys: bson.D{{Key: "count", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (r *SearchRepository) FindByTerm(ctx context.Context, term string) (domain.SearchRecord, error) {
	var doc searchRecordDoc
	err := r.collection.FindOne(ctx, bson.M{"term": term}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.SearchRecord{}, domain.ErrNotFound
		}
		return domain.SearchRecord{}, err
	}
	return docToRecord(doc), nil
}

func (r *SearchRepository) Insert(ctx context.Context, rec domain.SearchRecord) (string, error) {
	doc := searchRecordDoc{
		ID:        primitive.NewObjectID(),
		Term:      rec.Term,
		Count:     rec.Count,
		MovieID:   rec.MovieID,
		PosterURL: rec.PosterURL,
		CreatedAt: rec.CreatedAt.Unix(),
		UpdatedAt: rec.UpdatedAt.Unix(),
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID.Hex(), nil
}

func (r *SearchRepository) IncrementCount(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updatedAt": time.Now().Unix()},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SearchRepository) TopByCount(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []searchRecordDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	records := make([]domain.SearchRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, docToRecord(doc))
	}
	return records, nil
}

// Ping verifies the store connection; used by the health endpoint.
func (r *SearchRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, nil)
}

func docToRecord(doc searchRecordDoc) domain.SearchRecord {
	return domain.SearchRecord{
		ID:        doc.ID.Hex(),
		Term:      doc.Term,
		Count:     doc.Count,
		MovieID:   doc.MovieID,
		PosterURL: doc.PosterURL,
		CreatedAt: time.Unix(doc.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(doc.UpdatedAt, 0).UTC(),
	}
}
