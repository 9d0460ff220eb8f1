package database

import (
	"context"
	"fmt"
	"time"

	"swachhconnect/models"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	issuesCollection = "issues"
	DefaultPageSize  = 6
	monthsInStats    = 6
)

type IssueStore struct {
	collection *mongo.Collection
}

func NewIssueStore(db *mongo.Database) *IssueStore {
	return &IssueStore{collection: db.Collection(issuesCollection)}
}

func (s *IssueStore) Create(ctx context.Context, issue *models.Issue) error {
	result, err := s.collection.InsertOne(ctx, issue)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	if id, ok := result.InsertedID.(bson.ObjectID); ok {
		issue.ID = id
	}
	return nil
}

func (s *IssueStore) Get(ctx context.Context, id string) (*models.Issue, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	issue := &models.Issue{}
	if err := s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(issue); err != nil {
		return nil, notFound(err)
	}
	return issue, nil
}

// List returns one page of matching issues, newest first, and the total
// number of matches. A zero Limit returns every match.
func (s *IssueStore) List(ctx context.Context, f models.IssueFilter) ([]models.Issue, int64, error) {
	filter := IssueQuery(f)

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		findOptions.SetSkip(int64((page - 1) * f.Limit)).SetLimit(int64(f.Limit))
	}

	cursor, err := s.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err = cursor.All(ctx, &issues); err != nil {
		return nil, 0, fmt.Errorf("decode issues: %w", err)
	}
	return issues, total, nil
}

// IssueQuery translates a filter into a MongoDB query document.
func IssueQuery(f models.IssueFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" && f.Status != "all" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	created := bson.M{}
	if !f.From.IsZero() {
		created["$gte"] = f.From
	}
	if !f.To.IsZero() {
		created["$lte"] = f.To
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return filter
}

// Reply stores the municipal reply and marks the issue solved.
func (s *IssueStore) Reply(ctx context.Context, id, reply string, at time.Time) (*models.Issue, error) {
	return s.update(ctx, id, bson.M{
		"status":          models.StatusSolved,
		"municipal_reply": reply,
		"solved_at":       at,
	})
}

func (s *IssueStore) MarkSolved(ctx context.Context, id string, at time.Time) (*models.Issue, error) {
	return s.update(ctx, id, bson.M{
		"status":    models.StatusSolved,
		"solved_at": at,
	})
}

func (s *IssueStore) update(ctx context.Context, id string, set bson.M) (*models.Issue, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	issue := &models.Issue{}
	err = s.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(issue)
	if err != nil {
		return nil, notFound(err)
	}
	return issue, nil
}

// Delete removes the issue and returns it so the caller can clean up its image.
func (s *IssueStore) Delete(ctx context.Context, id string) (*models.Issue, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	issue := &models.Issue{}
	if err := s.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(issue); err != nil {
		return nil, notFound(err)
	}
	return issue, nil
}

func (s *IssueStore) Stats(ctx context.Context, now time.Time) (*models.IssueStats, error) {
	stats := &models.IssueStats{ByCategory: map[string]int64{}}

	counts := []struct {
		dst    *int64
		filter bson.M
	}{
		{&stats.Total, bson.M{}},
		{&stats.Pending, bson.M{"status": models.StatusPending}},
		{&stats.Solved, bson.M{"status": models.StatusSolved}},
		{&stats.Overdue, bson.M{"status": models.StatusPending, "deadline": bson.M{"$lt": now}}},
	}
	for _, c := range counts {
		n, err := s.collection.CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("count issues: %w", err)
		}
		*c.dst = n
	}
	stats.ResolvedPercent = ResolvedPercent(stats.Solved, stats.Total)

	cursor, err := s.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate categories: %w", err)
	}
	var byCategory []struct {
		Category string `bson:"_id"`
		Count    int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &byCategory); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	for _, c := range byCategory {
		stats.ByCategory[c.Category] = c.Count
	}

	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(monthsInStats - 1), 0)
	cursor, err = s.collection.Aggregate(ctx, monthlyPipeline(since))
	if err != nil {
		return nil, fmt.Errorf("aggregate months: %w", err)
	}
	stats.Monthly = []models.MonthlyStats{}
	if err := cursor.All(ctx, &stats.Monthly); err != nil {
		return nil, fmt.Errorf("decode months: %w", err)
	}
	return stats, nil
}

func monthlyPipeline(since time.Time) mongo.Pipeline {
	countStatus := func(status string) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$status", status}}}, 1, 0,
		}}}}}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m"},
				{Key: "date", Value: "$created_at"},
			}}}},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "solved", Value: countStatus(models.StatusSolved)},
			{Key: "pending", Value: countStatus(models.StatusPending)},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

func ResolvedPercent(solved, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(solved) * 100 / float64(total)
}

type changeEvent struct {
	OperationType string        `bson:"operationType"`
	FullDocument  *models.Issue `bson:"fullDocument"`
	DocumentKey   struct {
		ID bson.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
}

// Watch streams insert, update and delete notifications until ctx is done.
// It needs a replica set; standalone servers return an error here.
func (s *IssueStore) Watch(ctx context.Context) (<-chan models.IssueEvent, error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := s.collection.Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return nil, fmt.Errorf("watch issues: %w", err)
	}

	events := make(chan models.IssueEvent)
	go func() {
		defer close(events)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				log.WithError(err).Warn("Error decoding issue change event")
				continue
			}
			select {
			case events <- models.IssueEvent{
				Operation: ev.OperationType,
				IssueID:   ev.DocumentKey.ID.Hex(),
				Issue:     ev.FullDocument,
			}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("Issue change stream stopped")
		}
	}()
	return events, nil
}
