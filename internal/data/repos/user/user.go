package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neocube/neocube-backend/internal/data/repos/dberr"
	types "github.com/neocube/neocube-backend/internal/domain/user"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

const Collection = "users"

// ProfilePatch holds the user editable profile fields; nil means unchanged.
type ProfilePatch struct {
	Name            *string
	Username        *string
	Bio             *string
	Avatar          *string
	ExperienceLevel *string
	Interests       *[]string
}

func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Username == nil && p.Bio == nil && p.Avatar == nil &&
		p.ExperienceLevel == nil && p.Interests == nil
}

type UserRepo interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, u *types.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*types.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*types.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, patch ProfilePatch) (*types.User, error)
	SaveProgress(ctx context.Context, u *types.User) error
	AddFavourite(ctx context.Context, userID, techID primitive.ObjectID) (bool, error)
	RemoveFavourite(ctx context.Context, userID, techID primitive.ObjectID) (bool, error)
}

type userRepo struct {
	coll *mongo.Collection
	log  *logger.Logger
}

func NewUserRepo(db *mongo.Database, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{coll: db.Collection(Collection), log: repoLog}
}

func (r *userRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName("username").SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepo) Create(ctx context.Context, u *types.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = NormalizeEmail(u.Email)
	if u.Favourites == nil {
		u.Favourites = []primitive.ObjectID{}
	}
	if u.Progress == nil {
		u.Progress = []types.ProgressEntry{}
	}
	if u.Interests == nil {
		u.Interests = []string{}
	}
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		return dberr.FromMongo(err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*types.User, error) {
	var u types.User
	opts := options.FindOne().SetProjection(bson.M{"password": 0})
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&u); err != nil {
		return nil, dberr.FromMongo(err)
	}
	return &u, nil
}

func (r *userRepo) GetByEmailWithPassword(ctx context.Context, email string) (*types.User, error) {
	var u types.User
	if err := r.coll.FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&u); err != nil {
		return nil, dberr.FromMongo(err)
	}
	return &u, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, patch ProfilePatch) (*types.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	if patch.Avatar != nil {
		set["avatar"] = *patch.Avatar
	}
	if patch.ExperienceLevel != nil {
		set["experienceLevel"] = *patch.ExperienceLevel
	}
	if patch.Interests != nil {
		set["interests"] = *patch.Interests
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"password": 0})
	var u types.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set, "$inc": bson.M{"version": 1}}, opts).Decode(&u)
	if err != nil {
		return nil, dberr.FromMongo(err)
	}
	return &u, nil
}

// SaveProgress writes the progress-owned fields in one update guarded by u.Version.
// On success u.Version is advanced; a concurrent writer yields dberr.ErrVersionConflict.
func (r *userRepo) SaveProgress(ctx context.Context, u *types.User) error {
	now := time.Now().UTC()
	set := bson.M{
		"progress":        u.Progress,
		"streak":          u.Streak,
		"lastActiveAt":    u.LastActiveAt,
		"totalHoursSpent": u.TotalHoursSpent,
		"level":           u.Level,
		"updatedAt":       now,
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": u.ID, "version": u.Version},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return dberr.ErrVersionConflict
	}
	u.Version++
	u.UpdatedAt = now
	return nil
}

// AddFavourite appends techID only when absent. false means it was already a favourite (or no such user).
func (r *userRepo) AddFavourite(ctx context.Context, userID, techID primitive.ObjectID) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "favourites": bson.M{"$ne": techID}},
		bson.M{
			"$addToSet": bson.M{"favourites": techID},
			"$inc":      bson.M{"version": 1},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *userRepo) RemoveFavourite(ctx context.Context, userID, techID primitive.ObjectID) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "favourites": techID},
		bson.M{
			"$pull": bson.M{"favourites": techID},
			"$inc":  bson.M{"version": 1},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
