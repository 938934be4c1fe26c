package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mbolis/survey-kiosk/model"
)

const (
	questionCollection = "survey_questions"
	sessionCollection  = "survey_sessions"
	responseCollection = "survey_responses"
)

// MongoStore is the document backend.
type MongoStore struct {
	client    *mongo.Client
	questions *mongo.Collection
	sessions  *mongo.Collection
	responses *mongo.Collection
}

// OpenMongo connects to uri, checks the connection and creates the indexes
// the store relies on.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:    client,
		questions: db.Collection(questionCollection),
		sessions:  db.Collection(sessionCollection),
		responses: db.Collection(responseCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.questions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo index %s: %w", questionCollection, err)
	}

	_, err = s.responses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "question_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo index %s: %w", responseCollection, err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

// Questions

func (s *MongoStore) ListQuestions(ctx context.Context) ([]model.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.questions.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	questions := []model.Question{}
	if err := cur.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *MongoStore) GetQuestion(ctx context.Context, id string) (q model.Question, err error) {
	err = notFound(s.questions.FindOne(ctx, byID(id)).Decode(&q))
	return
}

func (s *MongoStore) CreateQuestion(ctx context.Context, q model.Question) error {
	_, err := s.questions.InsertOne(ctx, q)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (s *MongoStore) InsertQuestionIfAbsent(ctx context.Context, q model.Question) (bool, error) {
	res, err := s.questions.UpdateOne(ctx,
		byID(q.ID),
		bson.D{{Key: "$setOnInsert", Value: q}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (s *MongoStore) UpdateQuestion(ctx context.Context, q model.Question) error {
	res, err := s.questions.ReplaceOne(ctx, byID(q.ID), q)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.questions.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteAllQuestions(ctx context.Context) error {
	_, err := s.questions.DeleteMany(ctx, bson.D{})
	return err
}

// Sessions

func (s *MongoStore) CreateSession(ctx context.Context, sess model.Session) error {
	_, err := s.sessions.InsertOne(ctx, sess)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (s *MongoStore) GetSession(ctx context.Context, id string) (sess model.Session, err error) {
	err = notFound(s.sessions.FindOne(ctx, byID(id)).Decode(&sess))
	return
}

func (s *MongoStore) ListSessions(ctx context.Context) ([]model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.sessions.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	sessions := []model.Session{}
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *MongoStore) UpdateSession(ctx context.Context, sess model.Session) error {
	res, err := s.sessions.ReplaceOne(ctx, byID(sess.ID), sess)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CompleteSession(ctx context.Context, id string, at time.Time) (model.Session, error) {
	answered, err := s.responses.CountDocuments(ctx, bson.D{
		{Key: "session_id", Value: id},
		{Key: "answer", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}},
	})
	if err != nil {
		return model.Session{}, err
	}

	var sess model.Session
	err = s.sessions.FindOneAndUpdate(ctx,
		byID(id),
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "completed_at", Value: at},
			{Key: "answered_questions", Value: answered},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&sess)
	return sess, notFound(err)
}

// Responses

func (s *MongoStore) SaveResponse(ctx context.Context, r *model.Response) error {
	var saved model.Response
	err := s.responses.FindOneAndUpdate(ctx,
		bson.D{
			{Key: "session_id", Value: r.SessionID},
			{Key: "question_id", Value: r.QuestionID},
		},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "answer", Value: r.Answer},
				{Key: "created_at", Value: r.CreatedAt},
			}},
			{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: r.ID}}},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&saved)
	if err != nil {
		return fmt.Errorf("upsert response: %w", err)
	}
	r.ID = saved.ID
	return nil
}

func (s *MongoStore) findResponses(ctx context.Context, filter bson.D) ([]model.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.responses.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	responses := []model.Response{}
	if err := cur.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (s *MongoStore) ListResponses(ctx context.Context) ([]model.Response, error) {
	return s.findResponses(ctx, bson.D{})
}

func (s *MongoStore) ListSessionResponses(ctx context.Context, sessionID string) ([]model.Response, error) {
	return s.findResponses(ctx, bson.D{{Key: "session_id", Value: sessionID}})
}
