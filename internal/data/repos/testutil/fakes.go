package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neocube/neocube-backend/internal/data/repos/dberr"
	sectorrepo "github.com/neocube/neocube-backend/internal/data/repos/sector"
	techrepo "github.com/neocube/neocube-backend/internal/data/repos/technology"
	userrepo "github.com/neocube/neocube-backend/internal/data/repos/user"
	"github.com/neocube/neocube-backend/internal/domain/sector"
	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/domain/user"
)

// MemTechnologyRepo is an in-memory TechnologyRepo. Writes counts mutating calls that changed state.
type MemTechnologyRepo struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]*technology.Technology
	Writes int
}

func NewMemTechnologyRepo() *MemTechnologyRepo {
	return &MemTechnologyRepo{byID: map[primitive.ObjectID]*technology.Technology{}}
}

var _ techrepo.TechnologyRepo = (*MemTechnologyRepo)(nil)

func cloneTech(t *technology.Technology) *technology.Technology {
	cp := *t
	cp.Roadmap = append([]technology.RoadmapStep(nil), t.Roadmap...)
	cp.Tags = append([]string(nil), t.Tags...)
	return &cp
}

// Seed stores t as-is, assigning an id when missing.
func (r *MemTechnologyRepo) Seed(t *technology.Technology) *technology.Technology {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.NameKey == "" {
		t.NameKey = technology.NameKey(t.Name)
	}
	if t.Slug == "" {
		t.Slug = technology.Slugify(t.Name)
	}
	r.byID[t.ID] = cloneTech(t)
	return t
}

// Stored returns a copy of the stored document.
func (r *MemTechnologyRepo) Stored(id primitive.ObjectID) *technology.Technology {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil
	}
	return cloneTech(t)
}

func (r *MemTechnologyRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *MemTechnologyRepo) List(ctx context.Context, f techrepo.ListFilter) ([]technology.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []technology.Summary{}
	for _, t := range r.byID {
		if f.FieldID != "" && t.FieldID != f.FieldID {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, t.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].Name < out[j].Name
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemTechnologyRepo) Trending(ctx context.Context, limit int) ([]technology.Summary, error) {
	all, _ := r.List(ctx, techrepo.ListFilter{})
	sort.SliceStable(all, func(i, j int) bool { return all[i].IsTrending && !all[j].IsTrending })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemTechnologyRepo) GetBySlug(ctx context.Context, slug string) (*technology.Technology, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byID {
		if t.Slug == slug {
			return cloneTech(t), nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (r *MemTechnologyRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*technology.Technology, error) {
	if t := r.Stored(id); t != nil {
		return t, nil
	}
	return nil, dberr.ErrNotFound
}

func (r *MemTechnologyRepo) GetSummariesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]technology.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []technology.Summary{}
	for _, id := range ids {
		if t, ok := r.byID[id]; ok {
			out = append(out, t.Summary())
		}
	}
	return out, nil
}

func (r *MemTechnologyRepo) NameKeyExists(ctx context.Context, nameKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byID {
		if t.NameKey == nameKey {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemTechnologyRepo) Create(ctx context.Context, t *technology.Technology) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Slug == t.Slug || existing.NameKey == t.NameKey {
			return dberr.ErrDuplicate
		}
	}
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	r.byID[t.ID] = cloneTech(t)
	r.Writes++
	return nil
}

func (r *MemTechnologyRepo) InsertIfMissing(ctx context.Context, t *technology.Technology) (bool, error) {
	if _, err := r.GetBySlug(ctx, t.Slug); err == nil {
		return false, nil
	}
	if err := r.Create(ctx, t); err != nil {
		return false, err
	}
	return true, nil
}

func (r *MemTechnologyRepo) SetRoadmapIfEmpty(ctx context.Context, id primitive.ObjectID, patch techrepo.RoadmapPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || len(t.Roadmap) > 0 {
		return false, nil
	}
	t.Roadmap = append([]technology.RoadmapStep(nil), patch.Roadmap...)
	if t.LongDescription == "" {
		t.LongDescription = patch.LongDescription
	}
	if t.EstimatedTime == "" {
		t.EstimatedTime = patch.EstimatedTime
	}
	t.UpdatedAt = time.Now().UTC()
	r.Writes++
	return true, nil
}

func (r *MemTechnologyRepo) IncPopularity(ctx context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil
	}
	if delta < 0 && t.Popularity < -delta {
		return nil
	}
	t.Popularity += delta
	r.Writes++
	return nil
}

// MemUserRepo is an in-memory UserRepo with the same guard semantics as the Mongo implementation.
type MemUserRepo struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]*user.User
	Writes int
	// ConflictsLeft makes the next SaveProgress calls fail with a version conflict.
	ConflictsLeft int
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{byID: map[primitive.ObjectID]*user.User{}}
}

var _ userrepo.UserRepo = (*MemUserRepo)(nil)

func cloneUser(u *user.User) *user.User {
	cp := *u
	cp.Favourites = append([]primitive.ObjectID(nil), u.Favourites...)
	cp.Interests = append([]string(nil), u.Interests...)
	cp.Progress = make([]user.ProgressEntry, len(u.Progress))
	for i, p := range u.Progress {
		p.Steps = append([]user.StepProgress(nil), p.Steps...)
		cp.Progress[i] = p
	}
	return &cp
}

func (r *MemUserRepo) Stored(id primitive.ObjectID) *user.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

func (r *MemUserRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *MemUserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = userrepo.NormalizeEmail(u.Email)
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return dberr.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.byID[u.ID] = cloneUser(u)
	r.Writes++
	return nil
}

func (r *MemUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*user.User, error) {
	u := r.Stored(id)
	if u == nil {
		return nil, dberr.ErrNotFound
	}
	u.Password = ""
	return u, nil
}

func (r *MemUserRepo) GetByEmailWithPassword(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = userrepo.NormalizeEmail(email)
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (r *MemUserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, patch userrepo.ProfilePatch) (*user.User, error) {
	r.mu.Lock()
	u, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return nil, dberr.ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	if patch.ExperienceLevel != nil {
		u.ExperienceLevel = *patch.ExperienceLevel
	}
	if patch.Interests != nil {
		u.Interests = append([]string(nil), (*patch.Interests)...)
	}
	u.Version++
	u.UpdatedAt = time.Now().UTC()
	r.Writes++
	r.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r *MemUserRepo) SaveProgress(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[u.ID]
	if !ok || stored.Version != u.Version {
		return dberr.ErrVersionConflict
	}
	if r.ConflictsLeft > 0 {
		r.ConflictsLeft--
		stored.Version++
		return dberr.ErrVersionConflict
	}
	next := cloneUser(u)
	next.Password = stored.Password
	next.Favourites = stored.Favourites
	next.Version = stored.Version + 1
	r.byID[u.ID] = next
	u.Version = next.Version
	r.Writes++
	return nil
}

func (r *MemUserRepo) AddFavourite(ctx context.Context, userID, techID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok || u.HasFavourite(techID) {
		return false, nil
	}
	u.Favourites = append(u.Favourites, techID)
	u.Version++
	r.Writes++
	return true, nil
}

func (r *MemUserRepo) RemoveFavourite(ctx context.Context, userID, techID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok || !u.HasFavourite(techID) {
		return false, nil
	}
	kept := u.Favourites[:0]
	for _, id := range u.Favourites {
		if id != techID {
			kept = append(kept, id)
		}
	}
	u.Favourites = kept
	u.Version++
	r.Writes++
	return true, nil
}

// MemSectorRepo is an in-memory SectorRepo.
type MemSectorRepo struct {
	mu   sync.Mutex
	byID map[string]sector.Sector
}

func NewMemSectorRepo() *MemSectorRepo {
	return &MemSectorRepo{byID: map[string]sector.Sector{}}
}

var _ sectorrepo.SectorRepo = (*MemSectorRepo)(nil)

func (r *MemSectorRepo) List(ctx context.Context) ([]sector.Sector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sector.Sector, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *MemSectorRepo) GetByID(ctx context.Context, id string) (*sector.Sector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return &s, nil
}

func (r *MemSectorRepo) Upsert(ctx context.Context, s *sector.Sector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = *s
	return nil
}
