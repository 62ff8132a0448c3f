package services

import (
	"context"
	"fmt"
	"time"

	"claims-intake-platform/internal/matching"
	"claims-intake-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClaimService is the claim repository. It satisfies matching.ClaimSource
// for the engine's store scans.
type ClaimService struct {
	claimsCollection *mongo.Collection
}

func NewClaimService(db *mongo.Database) *ClaimService {
	return &ClaimService{
		claimsCollection: db.Collection("claims"),
	}
}

// Create files a new claim
func (s *ClaimService) Create(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	if claim.ClaimNumber == "" || claim.Name == "" {
		return nil, fmt.Errorf("claim number and claimant name are required")
	}

	now := time.Now()
	claim.ID = primitive.NewObjectID()
	claim.CreatedAt = now
	claim.UpdatedAt = now

	if _, err := s.claimsCollection.InsertOne(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to insert claim: %w", err)
	}
	return claim, nil
}

// FindAll returns every claim in the store
func (s *ClaimService) FindAll(ctx context.Context) ([]models.Claim, error) {
	cursor, err := s.claimsCollection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer cursor.Close(ctx)

	var claims []models.Claim
	if err := cursor.All(ctx, &claims); err != nil {
		return nil, fmt.Errorf("failed to decode claims: %w", err)
	}
	return claims, nil
}

// FindByID looks up one claim
func (s *ClaimService) FindByID(ctx context.Context, id string) (*models.Claim, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid claim id %q: %w", id, matching.ErrClaimNotFound)
	}

	var claim models.Claim
	err = s.claimsCollection.FindOne(ctx, bson.M{"_id": oid}).Decode(&claim)
	if err == mongo.ErrNoDocuments {
		return nil, matching.ErrClaimNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch claim: %w", err)
	}
	return &claim, nil
}

// AppendMatchHistory pushes one entry onto the claim's history. History is
// append-only; entries are never rewritten.
func (s *ClaimService) AppendMatchHistory(ctx context.Context, claimID string, entry models.MatchHistoryEntry) error {
	oid, err := primitive.ObjectIDFromHex(claimID)
	if err != nil {
		return fmt.Errorf("invalid claim id %q: %w", claimID, matching.ErrClaimNotFound)
	}

	res, err := s.claimsCollection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$push": bson.M{"match_history": entry},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return fmt.Errorf("failed to append claim match history: %w", err)
	}
	if res.MatchedCount == 0 {
		return matching.ErrClaimNotFound
	}
	return nil
}

// AddDocument embeds a document reference into the claim
func (s *ClaimService) AddDocument(ctx context.Context, claimID string, doc models.ClaimDocument) error {
	oid, err := primitive.ObjectIDFromHex(claimID)
	if err != nil {
		return fmt.Errorf("invalid claim id %q: %w", claimID, matching.ErrClaimNotFound)
	}

	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}

	res, err := s.claimsCollection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$push": bson.M{"documents": doc},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return fmt.Errorf("failed to add document to claim: %w", err)
	}
	if res.MatchedCount == 0 {
		return matching.ErrClaimNotFound
	}
	return nil
}
