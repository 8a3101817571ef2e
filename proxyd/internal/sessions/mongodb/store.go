package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/complyhq/comply"
	"github.com/complyhq/comply/proxyd/internal/sessions"
)

const createIndexTimeout = 5 * time.Second

type store struct {
	collection *mongo.Collection
}

func NewStore(database *mongo.Database) (sessions.Store, error) {
	ctx, cancel :=
		context.WithTimeout(context.Background(), createIndexTimeout)
	defer cancel()
	unique := true
	collection := database.Collection("sessions")
	if _, err := collection.Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.M{
					"id": 1,
				},
				Options: &options.IndexOptions{
					Unique: &unique,
				},
			},
			// Fast lookup by bearer token
			{
				Keys: bson.M{
					"hashedToken": 1,
				},
				Options: &options.IndexOptions{
					Unique: &unique,
				},
			},
		},
	); err != nil {
		return nil, errors.Wrap(
			err,
			"error adding indexes to sessions collection",
		)
	}
	return &store{
		collection: collection,
	}, nil
}

func (s *store) Create(
	ctx context.Context,
	session sessions.Session,
) error {
	now := time.Now()
	session.Created = &now
	if _, err := s.collection.InsertOne(ctx, session); err != nil {
		return errors.Wrapf(err, "error inserting new session %q", session.ID)
	}
	return nil
}

func (s *store) GetByHashedToken(
	ctx context.Context,
	hashedToken string,
) (sessions.Session, error) {
	session := sessions.Session{}
	res := s.collection.FindOne(ctx, bson.M{"hashedToken": hashedToken})
	if res.Err() == mongo.ErrNoDocuments {
		return session, comply.NewErrNotFound("Session", "")
	}
	if res.Err() != nil {
		return session, errors.Wrap(
			res.Err(),
			"error finding session by hashed token",
		)
	}
	if err := res.Decode(&session); err != nil {
		return session, errors.Wrap(err, "error decoding session")
	}
	return session, nil
}

func (s *store) Refresh(
	ctx context.Context,
	sessionID string,
	newHashedToken string,
	expires time.Time,
) error {
	res, err := s.collection.UpdateOne(
		ctx,
		bson.M{"id": sessionID},
		bson.M{
			"$set": bson.M{
				"hashedToken": newHashedToken,
				"expires":     expires,
			},
		},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating session %q", sessionID)
	}
	if res.MatchedCount == 0 {
		return comply.NewErrNotFound("Session", sessionID)
	}
	return nil
}

func (s *store) Delete(ctx context.Context, sessionID string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"id": sessionID})
	if err != nil {
		return errors.Wrapf(err, "error deleting session %q", sessionID)
	}
	if res.DeletedCount == 0 {
		return comply.NewErrNotFound("Session", sessionID)
	}
	return nil
}

func (s *store) CheckHealth(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.collection.Database().Client().Ping(pingCtx, nil); err != nil {
		return errors.Wrap(err, "error pinging mongo")
	}
	return nil
}
