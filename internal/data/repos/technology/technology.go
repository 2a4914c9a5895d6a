package technology

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neocube/neocube-backend/internal/data/repos/dberr"
	types "github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

const Collection = "technologies"

type ListFilter struct {
	FieldID  string
	Category string
	Search   string
	Limit    int
}

// RoadmapPatch is written by lazy generation, only while the stored roadmap is still empty.
type RoadmapPatch struct {
	Roadmap         []types.RoadmapStep
	LongDescription string
	EstimatedTime   string
}

type TechnologyRepo interface {
	EnsureIndexes(ctx context.Context) error
	List(ctx context.Context, f ListFilter) ([]types.Summary, error)
	Trending(ctx context.Context, limit int) ([]types.Summary, error)
	GetBySlug(ctx context.Context, slug string) (*types.Technology, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*types.Technology, error)
	GetSummariesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]types.Summary, error)
	NameKeyExists(ctx context.Context, nameKey string) (bool, error)
	Create(ctx context.Context, t *types.Technology) error
	InsertIfMissing(ctx context.Context, t *types.Technology) (bool, error)
	SetRoadmapIfEmpty(ctx context.Context, id primitive.ObjectID, patch RoadmapPatch) (bool, error)
	IncPopularity(ctx context.Context, id primitive.ObjectID, delta int) error
}

type technologyRepo struct {
	coll *mongo.Collection
	log  *logger.Logger
}

func NewTechnologyRepo(db *mongo.Database, baseLog *logger.Logger) TechnologyRepo {
	repoLog := baseLog.With("repo", "TechnologyRepo")
	return &technologyRepo{coll: db.Collection(Collection), log: repoLog}
}

func (r *technologyRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_slug")},
		{Keys: bson.D{{Key: "nameKey", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_name_key")},
		{Keys: bson.D{{Key: "fieldId", Value: 1}, {Key: "popularity", Value: -1}}, Options: options.Index().SetName("field_popularity")},
		{Keys: bson.D{{Key: "category", Value: 1}}, Options: options.Index().SetName("category")},
	})
	if err != nil {
		return fmt.Errorf("technology indexes: %w", err)
	}
	return nil
}

var summaryProjection = bson.M{"roadmap": 0, "longDescription": 0, "prerequisites": 0, "nameKey": 0}

func (r *technologyRepo) List(ctx context.Context, f ListFilter) ([]types.Summary, error) {
	filter := bson.M{}
	if f.FieldID != "" {
		filter["fieldId"] = f.FieldID
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "popularity", Value: -1}, {Key: "name", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return r.findSummaries(ctx, filter, opts)
}

func (r *technologyRepo) Trending(ctx context.Context, limit int) ([]types.Summary, error) {
	if limit <= 0 {
		limit = 10
	}
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "isTrending", Value: -1}, {Key: "popularity", Value: -1}, {Key: "name", Value: 1}}).
		SetLimit(int64(limit))
	return r.findSummaries(ctx, bson.M{}, opts)
}

func (r *technologyRepo) GetSummariesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]types.Summary, error) {
	if len(ids) == 0 {
		return []types.Summary{}, nil
	}
	opts := options.Find().SetProjection(summaryProjection).SetSort(bson.D{{Key: "name", Value: 1}})
	return r.findSummaries(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
}

func (r *technologyRepo) findSummaries(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]types.Summary, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []types.Summary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *technologyRepo) GetBySlug(ctx context.Context, slug string) (*types.Technology, error) {
	var t types.Technology
	if err := r.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&t); err != nil {
		return nil, dberr.FromMongo(err)
	}
	return &t, nil
}

func (r *technologyRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*types.Technology, error) {
	var t types.Technology
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, dberr.FromMongo(err)
	}
	return &t, nil
}

func (r *technologyRepo) NameKeyExists(ctx context.Context, nameKey string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"nameKey": nameKey}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *technologyRepo) Create(ctx context.Context, t *types.Technology) error {
	now := time.Now().UTC()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.Roadmap == nil {
		t.Roadmap = []types.RoadmapStep{}
	}
	t.CreatedAt, t.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return dberr.FromMongo(err)
	}
	return nil
}

// InsertIfMissing inserts t unless a technology with the same slug exists.
func (r *technologyRepo) InsertIfMissing(ctx context.Context, t *types.Technology) (bool, error) {
	now := time.Now().UTC()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.Roadmap == nil {
		t.Roadmap = []types.RoadmapStep{}
	}
	t.CreatedAt, t.UpdatedAt = now, now
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"slug": t.Slug},
		bson.M{"$setOnInsert": t},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, dberr.FromMongo(err)
	}
	return res.UpsertedCount > 0, nil
}

// SetRoadmapIfEmpty stores a generated roadmap when none exists. Description and
// estimated time only fill fields that are still blank.
func (r *technologyRepo) SetRoadmapIfEmpty(ctx context.Context, id primitive.ObjectID, patch RoadmapPatch) (bool, error) {
	set := bson.M{
		"roadmap":   bson.M{"$literal": patch.Roadmap},
		"updatedAt": time.Now().UTC(),
	}
	if patch.LongDescription != "" {
		set["longDescription"] = fillIfBlank("longDescription", patch.LongDescription)
	}
	if patch.EstimatedTime != "" {
		set["estimatedTime"] = fillIfBlank("estimatedTime", patch.EstimatedTime)
	}
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"roadmap": bson.M{"$exists": false}},
			bson.M{"roadmap": nil},
			bson.M{"roadmap": bson.M{"$size": 0}},
		},
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.A{bson.M{"$set": set}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func fillIfBlank(field, value string) bson.M {
	current := "$" + field
	return bson.M{"$cond": bson.A{
		bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{current, ""}}, ""}},
		bson.M{"$literal": value},
		current,
	}}
}

// IncPopularity adjusts the counter. Decrements only apply while popularity is positive.
func (r *technologyRepo) IncPopularity(ctx context.Context, id primitive.ObjectID, delta int) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["popularity"] = bson.M{"$gte": -delta}
	}
	_, err := r.coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"popularity": delta}})
	return err
}
