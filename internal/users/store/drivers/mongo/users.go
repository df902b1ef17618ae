package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
	"github.com/aussiebroadwan/starterkit/internal/users/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// userDoc is the stored shape. _id holds the ULID string.
type userDoc struct {
	ID           string     `bson:"_id"`
	Username     string     `bson:"username"`
	Name         string     `bson:"name"`
	PasswordHash string     `bson:"password_hash"`
	Role         string     `bson:"role"`
	Inactive     bool       `bson:"inactive"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	DeletedAt    *time.Time `bson:"deleted_at"`
}

func toDoc(u domain.User) userDoc {
	var deleted *time.Time
	if u.DeletedAt != nil {
		d := u.DeletedAt.UTC()
		deleted = &d
	}
	return userDoc{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Inactive:     u.Inactive,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
		DeletedAt:    deleted,
	}
}

func (d userDoc) toDomain() (domain.User, error) {
	role, err := domain.ParseRole(d.Role)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", d.ID, err)
	}

	var deleted *time.Time
	if d.DeletedAt != nil {
		t := d.DeletedAt.UTC()
		deleted = &t
	}
	return domain.User{
		ID:           d.ID,
		Username:     d.Username,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		Role:         role,
		Inactive:     d.Inactive,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		DeletedAt:    deleted,
	}, nil
}

// lookupFilter matches key=value, narrowed to usable accounts when activeOnly.
// A nil deleted_at matches both null and missing fields.
func lookupFilter(key, value string, activeOnly bool) bson.D {
	f := bson.D{{Key: key, Value: value}}
	if activeOnly {
		f = append(f,
			bson.E{Key: "inactive", Value: false},
			bson.E{Key: "deleted_at", Value: nil},
		)
	}
	return f
}

// patchUpdate builds the $set document for patch, always bumping updated_at.
func patchUpdate(patch domain.UserPatch, now time.Time) bson.D {
	set := bson.D{{Key: "updated_at", Value: now}}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.PasswordHash != nil {
		set = append(set, bson.E{Key: "password_hash", Value: *patch.PasswordHash})
	}
	if patch.Inactive != nil {
		set = append(set, bson.E{Key: "inactive", Value: *patch.Inactive})
	}
	if patch.Role != nil {
		set = append(set, bson.E{Key: "role", Value: string(*patch.Role)})
	}
	return bson.D{{Key: "$set", Value: set}}
}

func softDeleteUpdate(now time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "deleted_at", Value: now},
		{Key: "inactive", Value: true},
		{Key: "updated_at", Value: now},
	}}}
}

type usersRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	if _, err := r.coll.InsertOne(ctx, toDoc(u)); err != nil {
		return mapDuplicateKey(err)
	}
	return nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string, activeOnly bool) (domain.User, error) {
	return r.findOne(ctx, lookupFilter("_id", id, activeOnly))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string, activeOnly bool) (domain.User, error) {
	return r.findOne(ctx, lookupFilter("username", username, activeOnly))
}

func (r *usersRepo) findOne(ctx context.Context, filter bson.D) (domain.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return doc.toDomain()
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := r.coll.Find(ctx, bson.D{{Key: "deleted_at", Value: nil}}, opts)
	if err != nil {
		return nil, err
	}

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *usersRepo) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	return r.updateByID(ctx, id, patchUpdate(patch, r.now()))
}

func (r *usersRepo) SoftDeleteUser(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, softDeleteUpdate(r.now()))
}

func (r *usersRepo) updateByID(ctx context.Context, id string, update bson.D) error {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
