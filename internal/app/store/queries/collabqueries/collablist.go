// Package collabqueries provides complex read-only queries for the public
// collaboration marketplace.
package collabqueries

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/skillhub/internal/app/system/paging"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// CollabListItem is one marketplace row: the collaboration's own fields
// plus the owner's name and the derived open-role count.
type CollabListItem struct {
	ID                 primitive.ObjectID         `bson:"_id" json:"id"`
	Title              string                     `bson:"title" json:"title"`
	TitleCI            string                     `bson:"title_ci" json:"-"`
	Description        string                     `bson:"description" json:"description"`
	Status             models.CollaborationStatus `bson:"status" json:"status"`
	OwnerID            primitive.ObjectID         `bson:"owner_id" json:"owner_id"`
	OwnerName          string                     `bson:"owner_name" json:"owner_name"`
	RoleCount          int                        `bson:"role_count" json:"role_count"`
	FilledRoleCount    int                        `bson:"filled_role_count" json:"filled_role_count"`
	CompletedRoleCount int                        `bson:"completed_role_count" json:"completed_role_count"`
	OpenRoleCount      int                        `bson:"open_role_count" json:"open_role_count"`
	CreatedAt          time.Time                  `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time                  `bson:"updated_at" json:"updated_at"`
}

// CollabListResult contains the paginated results and metadata.
type CollabListResult struct {
	Items []CollabListItem
	Total int64
}

// ListFilter defines the filter options for the marketplace list.
type ListFilter struct {
	Status      models.CollaborationStatus // "" means all statuses
	OwnerID     *primitive.ObjectID        // scope to one owner's collaborations
	SearchQuery string                     // prefix search on title_ci
}

// ListCollaborations fetches a keyset-paginated page of collaborations with
// owner names and role summaries, using a single aggregation pipeline with
// $facet so the page and the total count come back in one round trip.
func ListCollaborations(
	ctx context.Context,
	db *mongo.Database,
	filter ListFilter,
	cfg paging.KeysetConfig,
) (CollabListResult, error) {
	var result CollabListResult

	// Base filter (without keyset window) keeps the total count accurate.
	baseClauses := buildBaseClauses(filter)
	baseFilter := andify(baseClauses)

	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: baseFilter}},
		bson.D{{Key: "$facet", Value: bson.M{
			"totalCount": []bson.M{
				{"$count": "count"},
			},
			"data": buildDataPipeline(cfg),
		}}},
	}

	cur, err := db.Collection("collaborations").Aggregate(ctx, pipe)
	if err != nil {
		return result, err
	}
	defer cur.Close(ctx)

	var aggResult struct {
		TotalCount []struct {
			Count int64 `bson:"count"`
		} `bson:"totalCount"`
		Data []CollabListItem `bson:"data"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&aggResult); err != nil {
			return result, err
		}
	}

	if len(aggResult.TotalCount) > 0 {
		result.Total = aggResult.TotalCount[0].Count
	}
	result.Items = aggResult.Data

	return result, nil
}

// buildBaseClauses builds the base filter clauses from the ListFilter.
func buildBaseClauses(filter ListFilter) []bson.M {
	var clauses []bson.M
	if filter.Status != "" {
		clauses = append(clauses, bson.M{"status": filter.Status})
	}
	if filter.OwnerID != nil {
		clauses = append(clauses, bson.M{"owner_id": *filter.OwnerID})
	}
	if filter.SearchQuery != "" {
		q := text.Fold(filter.SearchQuery)
		hi := q + "￿"
		clauses = append(clauses, bson.M{"title_ci": bson.M{"$gte": q, "$lt": hi}})
	}
	return clauses
}

// buildDataPipeline constructs the data portion of the $facet pipeline.
// It applies the keyset window, sorts and limits for look-ahead pagination,
// joins the owner's name, and projects the open-role count.
func buildDataPipeline(cfg paging.KeysetConfig) []bson.M {
	pipeline := []bson.M{}

	// Re-match the keyset window inside the facet so the total count above
	// stays window-independent.
	if ks := cfg.KeysetWindow("title_ci"); ks != nil {
		pipeline = append(pipeline, bson.M{"$match": ks})
	}

	pipeline = append(pipeline,
		bson.M{"$sort": bson.D{
			{Key: "title_ci", Value: cfg.SortOrder},
			{Key: "_id", Value: cfg.SortOrder},
		}},
		bson.M{"$limit": paging.LimitPlusOne()},
	)

	// Lookup owner name
	pipeline = append(pipeline,
		bson.M{"$lookup": bson.M{
			"from":         "users",
			"localField":   "owner_id",
			"foreignField": "_id",
			"as":           "owner",
		}},
	)

	// Project final fields. filled_role_count already includes completed
	// roles, so open is simply total minus filled.
	pipeline = append(pipeline,
		bson.M{"$project": bson.M{
			"_id":                  1,
			"title":                1,
			"title_ci":             1,
			"description":          1,
			"status":               1,
			"owner_id":             1,
			"role_count":           1,
			"filled_role_count":    1,
			"completed_role_count": 1,
			"created_at":           1,
			"updated_at":           1,
			"owner_name": bson.M{"$ifNull": []interface{}{
				bson.M{"$arrayElemAt": []interface{}{"$owner.full_name", 0}},
				"",
			}},
			"open_role_count": bson.M{"$subtract": []interface{}{"$role_count", "$filled_role_count"}},
		}},
	)

	return pipeline
}

// andify composes clauses into a single bson.M with optional $and.
func andify(clauses []bson.M) bson.M {
	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	default:
		return bson.M{"$and": clauses}
	}
}
