package sector

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neocube/neocube-backend/internal/data/repos/dberr"
	types "github.com/neocube/neocube-backend/internal/domain/sector"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

const Collection = "fields"

type SectorRepo interface {
	List(ctx context.Context) ([]types.Sector, error)
	GetByID(ctx context.Context, id string) (*types.Sector, error)
	Upsert(ctx context.Context, s *types.Sector) error
}

type sectorRepo struct {
	coll *mongo.Collection
	log  *logger.Logger
}

func NewSectorRepo(db *mongo.Database, baseLog *logger.Logger) SectorRepo {
	repoLog := baseLog.With("repo", "SectorRepo")
	return &sectorRepo{coll: db.Collection(Collection), log: repoLog}
}

func (r *sectorRepo) List(ctx context.Context) ([]types.Sector, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []types.Sector{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sectorRepo) GetByID(ctx context.Context, id string) (*types.Sector, error) {
	var s types.Sector
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, dberr.FromMongo(err)
	}
	return &s, nil
}

func (r *sectorRepo) Upsert(ctx context.Context, s *types.Sector) error {
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, s, options.Replace().SetUpsert(true))
	return err
}
