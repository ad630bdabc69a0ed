// internal/app/store/users/upsert.go
package userstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/dalemusser/skillhub/internal/app/system/normalize"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// itoa is a shorthand for strconv.Itoa
func itoa(i int) string { return strconv.Itoa(i) }

// MemberEntry represents a member to upsert, keyed by email.
type MemberEntry struct {
	FullName     string
	Email        string   // required: unique identity
	Skills       []string // optional
	TempPassword *string  // optional: plain text temp password (will be hashed)
}

// ItemError represents a per-item error during batch processing.
type ItemError struct {
	Email  string // The email that failed (normalized, or original if normalization failed)
	Row    int    // Original row number (1-indexed for user display)
	Reason string // Human-readable error reason
}

// SkippedMember represents a member that was skipped because the email
// belongs to a non-member account.
type SkippedMember struct {
	Email string
	Role  string
}

// MemberSummary represents basic member info for result display.
type MemberSummary struct {
	FullName string
	Email    string
}

// UpsertBatchResult holds the result of a batch upsert operation with per-item tracking.
type UpsertBatchResult struct {
	Created int
	Updated int
	Skipped int

	// CreatedMembers lists members that were newly created
	CreatedMembers []MemberSummary

	// UpdatedMembers lists members that were updated
	UpdatedMembers []MemberSummary

	// SkippedMembers lists entries whose email belongs to an admin account
	SkippedMembers []SkippedMember

	// ItemErrors provides granular per-item error details
	ItemErrors []ItemError
}

// HasErrors returns true if any per-item errors occurred.
func (r UpsertBatchResult) HasErrors() bool {
	return len(r.ItemErrors) > 0
}

// UpsertMembersBatch creates or updates member accounts from an import,
// keyed by email.
//
// For each entry:
//   - If the email is not found: creates a new member
//   - If the email belongs to a member: updates name and skills
//   - If the email belongs to an admin or superadmin: skipped
//
// ItemErrors provides per-item error tracking for validation failures and
// duplicates. The Row field is 1-indexed for user display.
func (s *Store) UpsertMembersBatch(ctx context.Context, entries []MemberEntry) (UpsertBatchResult, error) {
	var result UpsertBatchResult
	if len(entries) == 0 {
		return result, nil
	}

	// Normalize entries and collect unique emails, tracking per-item issues
	type normalizedEntry struct {
		fullName     string
		email        string
		skills       []string
		passwordHash *string
		row          int // original 1-indexed row number
	}
	normalized := make(map[string]normalizedEntry, len(entries))
	emails := make([]string, 0, len(entries))

	for i, e := range entries {
		row := i + 1 // 1-indexed for user display
		email := normalize.Email(e.Email)
		fullName := normalize.Name(e.FullName)

		if email == "" && fullName == "" {
			result.ItemErrors = append(result.ItemErrors, ItemError{
				Email: e.Email, Row: row, Reason: "missing email and name",
			})
			continue
		}
		if email == "" {
			result.ItemErrors = append(result.ItemErrors, ItemError{
				Email: e.Email, Row: row, Reason: "missing email",
			})
			continue
		}
		if fullName == "" {
			result.ItemErrors = append(result.ItemErrors, ItemError{
				Email: email, Row: row, Reason: "missing name",
			})
			continue
		}

		// Track duplicates within the batch
		if existing, seen := normalized[email]; seen {
			result.ItemErrors = append(result.ItemErrors, ItemError{
				Email: email, Row: row, Reason: "duplicate of row " + itoa(existing.row),
			})
			continue
		}

		// Hash password if provided
		var passwordHash *string
		if e.TempPassword != nil && *e.TempPassword != "" {
			hash, err := hashPassword(*e.TempPassword)
			if err != nil {
				result.ItemErrors = append(result.ItemErrors, ItemError{
					Email: email, Row: row, Reason: "failed to hash password",
				})
				continue
			}
			passwordHash = &hash
		}

		normalized[email] = normalizedEntry{
			fullName:     fullName,
			email:        email,
			skills:       normalize.Skills(e.Skills),
			passwordHash: passwordHash,
			row:          row,
		}
		emails = append(emails, email)
	}

	if len(emails) == 0 {
		return result, nil
	}

	// Batch fetch all existing users by email
	cur, err := s.c.Find(ctx, bson.M{"email": bson.M{"$in": emails}})
	if err != nil {
		return result, err
	}
	defer cur.Close(ctx)

	type existingUser struct {
		ID    primitive.ObjectID `bson:"_id"`
		Email string             `bson:"email"`
		Role  string             `bson:"role"`
	}
	existing := make(map[string]existingUser, len(emails))
	for cur.Next(ctx) {
		var u existingUser
		if err := cur.Decode(&u); err != nil {
			return result, err
		}
		existing[normalize.Email(u.Email)] = u
	}
	if err := cur.Err(); err != nil {
		return result, err
	}

	now := time.Now()

	// Categorize entries: to_insert vs to_update vs skipped
	type insertDoc struct {
		doc bson.M
		row int
	}
	type updateItem struct {
		user  existingUser
		entry normalizedEntry
	}
	var toInsert []insertDoc
	var toUpdate []updateItem

	for _, email := range emails {
		entry := normalized[email]
		if ex, found := existing[email]; found {
			// Imports never touch admin accounts.
			if ex.Role != models.RoleMember {
				result.Skipped++
				result.SkippedMembers = append(result.SkippedMembers, SkippedMember{
					Email: email, Role: ex.Role,
				})
				result.ItemErrors = append(result.ItemErrors, ItemError{
					Email: email, Row: entry.row, Reason: "email belongs to an admin account",
				})
				continue
			}
			toUpdate = append(toUpdate, updateItem{user: ex, entry: entry})
		} else {
			doc := bson.M{
				"full_name":    entry.fullName,
				"full_name_ci": text.Fold(entry.fullName),
				"email":        entry.email,
				"role":         models.RoleMember,
				"status":       models.UserActive,
				"auth_method":  models.AuthPassword,
				"xp":           0,
				"created_at":   now,
				"updated_at":   now,
			}
			if len(entry.skills) > 0 {
				doc["skills"] = entry.skills
				doc["skills_ci"] = foldAll(entry.skills)
			}
			if entry.passwordHash != nil {
				doc["password_hash"] = *entry.passwordHash
			}
			toInsert = append(toInsert, insertDoc{doc: doc, row: entry.row})
		}
	}

	// Batch insert new users
	if len(toInsert) > 0 {
		docs := make([]interface{}, len(toInsert))
		for i, d := range toInsert {
			docs[i] = d.doc
		}

		opts := options.InsertMany().SetOrdered(false)
		_, err := s.c.InsertMany(ctx, docs, opts)
		if err != nil {
			// Handle partial success with duplicate key errors (race conditions)
			var bulkErr mongo.BulkWriteException
			if errors.As(err, &bulkErr) {
				failedIndexes := make(map[int]bool)
				var raceEmails []string
				for _, we := range bulkErr.WriteErrors {
					failedIndexes[we.Index] = true
					if we.Index < 0 || we.Index >= len(toInsert) {
						continue
					}
					item := toInsert[we.Index]
					email, _ := item.doc["email"].(string)
					if we.Code == 11000 {
						// Inserted concurrently since our lookup; retry as update
						raceEmails = append(raceEmails, email)
					} else {
						result.ItemErrors = append(result.ItemErrors, ItemError{
							Email: email, Row: item.row, Reason: "database error: " + we.Message,
						})
					}
				}
				result.Created = len(toInsert) - len(bulkErr.WriteErrors)
				for i, item := range toInsert {
					if !failedIndexes[i] {
						result.CreatedMembers = append(result.CreatedMembers, docToMemberSummary(item.doc))
					}
				}
				for _, email := range raceEmails {
					entry := normalized[email]
					toUpdate = append(toUpdate, updateItem{
						user:  existingUser{Email: email, Role: models.RoleMember},
						entry: entry,
					})
				}
			} else {
				return result, err
			}
		} else {
			result.Created = len(toInsert)
			for _, item := range toInsert {
				result.CreatedMembers = append(result.CreatedMembers, docToMemberSummary(item.doc))
			}
		}
	}

	// Batch update existing members
	if len(toUpdate) > 0 {
		var writes []mongo.WriteModel
		for _, item := range toUpdate {
			updateFields := bson.M{
				"full_name":    item.entry.fullName,
				"full_name_ci": text.Fold(item.entry.fullName),
				"updated_at":   now,
			}
			if len(item.entry.skills) > 0 {
				updateFields["skills"] = item.entry.skills
				updateFields["skills_ci"] = foldAll(item.entry.skills)
			}
			if item.entry.passwordHash != nil {
				updateFields["password_hash"] = *item.entry.passwordHash
			}
			// Race-retried entries have no ID yet, so filter by email. The
			// role guard keeps a concurrently created admin untouched.
			filter := bson.M{"email": item.entry.email, "role": models.RoleMember}
			if !item.user.ID.IsZero() {
				filter = bson.M{"_id": item.user.ID}
			}
			writes = append(writes, mongo.NewUpdateOneModel().
				SetFilter(filter).
				SetUpdate(bson.M{"$set": updateFields}))
		}
		opts := options.BulkWrite().SetOrdered(false)
		res, err := s.c.BulkWrite(ctx, writes, opts)
		if err != nil {
			var bulkErr mongo.BulkWriteException
			if errors.As(err, &bulkErr) {
				failedIndexes := make(map[int]bool)
				for _, we := range bulkErr.WriteErrors {
					failedIndexes[we.Index] = true
					if we.Index >= 0 && we.Index < len(toUpdate) {
						item := toUpdate[we.Index]
						result.ItemErrors = append(result.ItemErrors, ItemError{
							Email: item.entry.email, Row: item.entry.row,
							Reason: "update failed: " + we.Message,
						})
					}
				}
				result.Updated += len(toUpdate) - len(bulkErr.WriteErrors)
				for i, item := range toUpdate {
					if !failedIndexes[i] {
						result.UpdatedMembers = append(result.UpdatedMembers, MemberSummary{
							FullName: item.entry.fullName, Email: item.entry.email,
						})
					}
				}
			} else {
				return result, err
			}
		} else {
			result.Updated += int(res.ModifiedCount + res.UpsertedCount)
			for _, item := range toUpdate {
				result.UpdatedMembers = append(result.UpdatedMembers, MemberSummary{
					FullName: item.entry.fullName, Email: item.entry.email,
				})
			}
		}
	}

	return result, nil
}

// hashPassword hashes a password using bcrypt with a cost of 12.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// docToMemberSummary extracts member summary info from an insert document.
func docToMemberSummary(doc bson.M) MemberSummary {
	summary := MemberSummary{}
	if v, ok := doc["full_name"].(string); ok {
		summary.FullName = v
	}
	if v, ok := doc["email"].(string); ok {
		summary.Email = v
	}
	return summary
}
