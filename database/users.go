package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"swachhconnect/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

type UserStore struct {
	collection *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{collection: db.Collection(usersCollection)}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.collection.InsertOne(ctx, user)
	return err
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"phone": phone})
}

func (s *UserStore) FindByID(ctx context.Context, userID string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"user_id": userID})
}

// FindByResetToken only matches tokens that have not expired yet.
func (s *UserStore) FindByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error) {
	return s.findOne(ctx, bson.M{
		"password_reset_token":   hashedToken,
		"password_token_expired": bson.M{"$gt": now},
	})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	user := &models.User{}
	if err := s.collection.FindOne(ctx, filter).Decode(user); err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// SetOTP creates the citizen record on first contact and stores a hashed code.
func (s *UserStore) SetOTP(ctx context.Context, phone, otpHash string, expires, now time.Time) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"phone": phone},
		bson.M{
			"$set": bson.M{
				"otp_hash":    otpHash,
				"otp_expires": expires,
				"updated_at":  now,
			},
			"$setOnInsert": bson.M{
				"user_id":    bson.NewObjectID().Hex(),
				"role":       models.RoleCitizen,
				"created_at": now,
			},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

// CompleteOTP clears the code and fills in any name given at verification.
func (s *UserStore) CompleteOTP(ctx context.Context, userID, firstName, lastName string, now time.Time) error {
	set := bson.M{"updated_at": now}
	if firstName != "" {
		set["first_name"] = firstName
	}
	if lastName != "" {
		set["last_name"] = lastName
	}
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set, "$unset": bson.M{"otp_hash": "", "otp_expires": ""}},
	)
	return err
}

func (s *UserStore) SetPasswordResetToken(ctx context.Context, email, hashedToken string, expiry time.Time) error {
	_, err := s.collection.UpdateOne(
		ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{
			"password_reset_token":   hashedToken,
			"password_token_expired": expiry,
		}},
	)
	return err
}

// UpdatePassword also clears any outstanding reset token.
func (s *UserStore) UpdatePassword(ctx context.Context, userID, hashedPassword string, now time.Time) error {
	result, err := s.collection.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set": bson.M{
				"password":   hashedPassword,
				"updated_at": now,
			},
			"$unset": bson.M{"password_reset_token": "", "password_token_expired": ""},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCitizens returns citizen accounts, optionally narrowed by a search term.
func (s *UserStore) ListCitizens(ctx context.Context, search string) ([]models.User, error) {
	cursor, err := s.collection.Find(ctx, CitizenQuery(search), options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find citizens: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode citizens: %w", err)
	}
	return users, nil
}

// CitizenQuery matches citizens whose name, phone, email or user id contains
// the search term.
func CitizenQuery(search string) bson.M {
	filter := bson.M{"role": models.RoleCitizen}
	if pattern := SearchPattern(search); pattern != "" {
		regex := bson.M{"$regex": pattern, "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"first_name": regex},
			bson.M{"last_name": regex},
			bson.M{"phone": regex},
			bson.M{"email": regex},
			bson.M{"user_id": regex},
		}
	}
	return filter
}

var whitespace = regexp.MustCompile(`\s+`)

// SearchPattern builds a case-insensitive contains pattern where whitespace in
// the term matches any run of spaces, dashes or underscores:
// "john doe" -> ".*john[-_ ]*doe.*".
func SearchPattern(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	words := whitespace.Split(term, -1)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return fmt.Sprintf(".*%s.*", strings.Join(words, "[-_ ]*"))
}

func (s *UserStore) Delete(ctx context.Context, userID string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
