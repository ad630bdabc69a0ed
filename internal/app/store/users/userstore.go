package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/skillhub/internal/app/system/normalize"
	"github.com/dalemusser/skillhub/internal/app/system/search"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetMemberByID loads a user by ObjectID, returning an error if the user
// does not exist or is not a member role.
func (s *Store) GetMemberByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "role": models.RoleMember}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs loads many users at once. IDs with no matching user are
// simply absent from the result.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "member"|"admin"|"superadmin"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
	errBadAuthMethod  = errors.New(`auth_method must be "password"|"google"`)
)

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	// Normalize core fields
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Skills = normalize.Skills(u.Skills)
	u.SkillsCI = foldAll(u.Skills)
	if u.Status == "" {
		u.Status = models.UserActive
	}
	if u.AuthMethod == "" {
		u.AuthMethod = models.AuthPassword
	}

	// Validate role
	switch u.Role {
	case models.RoleMember, models.RoleAdmin, models.RoleSuperAdmin:
		// ok
	default:
		return models.User{}, errBadRole
	}

	// Validate status and auth method
	if !models.ValidUserStatus(u.Status) {
		return models.User{}, errBadStatus
	}
	if !models.IsValidAuthMethod(u.AuthMethod) {
		return models.User{}, errBadAuthMethod
	}

	// Timestamps
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	// Insert
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Update holds the admin-editable fields of a user.
type Update struct {
	FullName   string
	Email      string
	AuthMethod string
	Role       string
	Status     string
	Skills     []string
}

// UpdateUser updates a user's fields. Returns ErrDuplicateEmail if the email
// already exists for another user.
func (s *Store) UpdateUser(ctx context.Context, id primitive.ObjectID, upd Update) error {
	switch upd.Role {
	case models.RoleMember, models.RoleAdmin, models.RoleSuperAdmin:
		// ok
	default:
		return errBadRole
	}
	if !models.ValidUserStatus(upd.Status) {
		return errBadStatus
	}

	skills := normalize.Skills(upd.Skills)
	set := bson.M{
		"full_name":    normalize.Name(upd.FullName),
		"full_name_ci": text.Fold(normalize.Name(upd.FullName)),
		"email":        normalize.Email(upd.Email),
		"auth_method":  upd.AuthMethod,
		"role":         upd.Role,
		"status":       upd.Status,
		"skills":       skills,
		"skills_ci":    foldAll(skills),
		"updated_at":   time.Now(),
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdateProfile updates the self-service fields of a user's own record.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, fullName string, skills []string) error {
	fullName = normalize.Name(fullName)
	skills = normalize.Skills(skills)
	set := bson.M{
		"full_name":    fullName,
		"full_name_ci": text.Fold(fullName),
		"skills":       skills,
		"skills_ci":    foldAll(skills),
		"updated_at":   time.Now(),
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if !models.ValidUserStatus(status) {
		return errBadStatus
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}})
	return err
}

// SetPasswordHash replaces the stored bcrypt hash.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now(),
	}})
	return err
}

// TouchLastLogin records a successful sign-in time.
func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"last_login_at": time.Now(),
	}})
	return err
}

// AwardChallenge credits XP and a badge to a user. The badge is added at
// most once; XP accumulates.
func (s *Store) AwardChallenge(ctx context.Context, id primitive.ObjectID, xp int, badge string) error {
	update := bson.M{
		"$inc": bson.M{"xp": xp},
		"$set": bson.M{"updated_at": time.Now()},
	}
	if badge != "" {
		update["$addToSet"] = bson.M{"badges": badge}
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// Delete removes a user by ID. Returns the number of documents deleted (0 or 1).
// Permission rules (who may delete whom) live with the callers.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil // found another user with this email
	}
	if err == mongo.ErrNoDocuments {
		return false, nil // no duplicate
	}
	return false, err // actual error
}

// FindBySkills returns active members whose folded skill list contains every
// requested skill. Used to suggest candidates for an open role.
func (s *Store) FindBySkills(ctx context.Context, skills []string, limit int64) ([]models.User, error) {
	folded := foldAll(normalize.Skills(skills))
	if len(folded) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	filter := bson.M{
		"role":      models.RoleMember,
		"status":    models.UserActive,
		"skills_ci": bson.M{"$all": folded},
	}
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "full_name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchDirectory returns active members matching every requested skill
// and, optionally, a name or email prefix. Queries containing '@' pivot
// the prefix window from full_name_ci to email so the unique email index
// carries the scan.
func (s *Store) SearchDirectory(ctx context.Context, skills []string, q string, limit int64) ([]models.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	filter := bson.M{
		"role":   models.RoleMember,
		"status": models.UserActive,
	}
	if folded := foldAll(normalize.Skills(skills)); len(folded) > 0 {
		filter["skills_ci"] = bson.M{"$all": folded}
	}

	sortField := "full_name_ci"
	if q = strings.TrimSpace(q); q != "" {
		if search.EmailPivotOK(q, models.UserActive) {
			lo := strings.ToLower(q)
			filter["email"] = bson.M{"$gte": lo, "$lt": lo + "￿"}
			sortField = "email"
		} else {
			lo := text.Fold(q)
			filter["full_name_ci"] = bson.M{"$gte": lo, "$lt": lo + "￿"}
		}
	}

	opts := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: sortField, Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveMemberIDs returns the IDs of every active member. The challenge
// notifier fans new-challenge notifications out to this set.
func (s *Store) ListActiveMemberIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{
		"role":   models.RoleMember,
		"status": models.UserActive,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

func foldAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = text.Fold(s)
	}
	return out
}
