package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/theleywin/Backend-Kindred/src/lib"
	"github.com/theleywin/Backend-Kindred/src/models"
)

// MongoConnectionStore keeps each connection as one document with its
// milestones and stage history embedded.
type MongoConnectionStore struct {
	coll *mongo.Collection
	log  *lib.Logger
}

func NewMongoConnectionStore(db *mongo.Database, baseLog *lib.Logger) *MongoConnectionStore {
	return &MongoConnectionStore{
		coll: db.Collection("connections"),
		log:  baseLog.With("store", "MongoConnectionStore"),
	}
}

// EnsureIndexes creates the pair uniqueness and listing indexes
func (s *MongoConnectionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pairKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "participantA", Value: 1}, {Key: "lastInteractionAt", Value: -1}}},
		{Keys: bson.D{{Key: "participantB", Value: 1}, {Key: "lastInteractionAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create connection indexes: %w", err)
	}
	return nil
}

func (s *MongoConnectionStore) Create(ctx context.Context, c *models.Connection) error {
	if _, err := s.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewConflictError("these participants are already connected")
		}
		return fmt.Errorf("insert connection: %w", err)
	}
	return nil
}

func (s *MongoConnectionStore) Get(ctx context.Context, id string) (*models.Connection, error) {
	var c models.Connection
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, connectionNotFound(id)
		}
		return nil, fmt.Errorf("get connection %s: %w", id, err)
	}
	attachOwner(&c)
	return &c, nil
}

func (s *MongoConnectionStore) Save(ctx context.Context, c *models.Connection) error {
	doc := c.Clone()
	doc.Version = c.Version + 1

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": c.ID, "version": c.Version}, doc)
	if err != nil {
		return fmt.Errorf("replace connection %s: %w", c.ID, err)
	}
	if res.MatchedCount == 0 {
		n, err := s.coll.CountDocuments(ctx, bson.M{"_id": c.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return connectionNotFound(c.ID)
		}
		return models.NewConflictError(fmt.Sprintf("connection %s was modified concurrently", c.ID))
	}
	c.Version++
	return nil
}

func (s *MongoConnectionStore) ListForParticipant(ctx context.Context, participant string, stage *models.Stage) ([]*models.Connection, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"participantA": participant},
		bson.M{"participantB": participant},
	}}
	if stage != nil {
		filter["stage"] = *stage
	}
	opts := options.Find().SetSort(bson.D{{Key: "lastInteractionAt", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		s.log.Error("Failed to list connections", "participant", participant, "error", err)
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer cursor.Close(ctx)

	var conns []*models.Connection
	if err := cursor.All(ctx, &conns); err != nil {
		return nil, fmt.Errorf("decode connections: %w", err)
	}
	for _, c := range conns {
		attachOwner(c)
	}
	return conns, nil
}

// attachOwner restores the owner id that is implicit in embedded documents
func attachOwner(c *models.Connection) {
	for i := range c.Milestones {
		c.Milestones[i].ConnectionID = c.ID
	}
	for i := range c.History {
		c.History[i].ConnectionID = c.ID
	}
}
