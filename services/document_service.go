package services

import (
	"context"
	"fmt"
	"time"

	"claims-intake-platform/internal/matching"
	"claims-intake-platform/models"
	"claims-intake-platform/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentService manages parked and claim-attached documents.
type DocumentService struct {
	documentsCollection *mongo.Collection
}

func NewDocumentService(db *mongo.Database) *DocumentService {
	return &DocumentService{
		documentsCollection: db.Collection("documents"),
	}
}

// Create registers an uploaded document. New documents always start parked;
// attachment is a separate, explicit step.
func (s *DocumentService) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	now := time.Now()
	doc.ID = primitive.NewObjectID()
	if doc.ExternalID == "" {
		return nil, fmt.Errorf("document external id is required")
	}
	doc.Status = models.DocumentStatusParked
	doc.ExtractionState = models.ExtractionPending
	doc.UploadedAt = now
	doc.UpdatedAt = now

	if _, err := s.documentsCollection.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	return doc, nil
}

// FindByExternalID looks up a document by its caller-facing id
func (s *DocumentService) FindByExternalID(ctx context.Context, externalID string) (*models.Document, error) {
	var doc models.Document
	err := s.documentsCollection.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, matching.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", externalID, err)
	}
	return &doc, nil
}

// FindByHash returns an existing document with the same content hash, if any.
// Used for duplicate-upload detection.
func (s *DocumentService) FindByHash(ctx context.Context, fileHash string) (*models.Document, error) {
	var doc models.Document
	err := s.documentsCollection.FindOne(ctx, bson.M{"file_hash": fileHash}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, matching.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document by hash: %w", err)
	}
	return &doc, nil
}

// ListParked returns parked documents, newest first
func (s *DocumentService) ListParked(ctx context.Context, limit int64) ([]models.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	cursor, err := s.documentsCollection.Find(ctx,
		bson.M{"status": models.DocumentStatusParked},
		options.Find().SetSort(bson.M{"uploaded_at": -1}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query parked documents: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode parked documents: %w", err)
	}
	return docs, nil
}

// SetTextContent stores the extracted (optionally compressed) text
func (s *DocumentService) SetTextContent(ctx context.Context, externalID string, text []byte, compressed bool) error {
	return s.update(ctx, externalID, bson.M{
		"compressed_text": text,
		"text_compressed": compressed,
	})
}

// SetExtractionState records extraction progress. The error message is
// cleared on every transition except the failed one.
func (s *DocumentService) SetExtractionState(ctx context.Context, externalID, state, errorMsg string) error {
	return s.update(ctx, externalID, bson.M{
		"extraction_state": state,
		"extraction_error": errorMsg,
	})
}

// SetEntities stores the extracted entity bundle and marks extraction complete
func (s *DocumentService) SetEntities(ctx context.Context, externalID string, entities *models.EntityBundle) error {
	return s.update(ctx, externalID, bson.M{
		"entities":         entities,
		"extraction_state": models.ExtractionCompleted,
		"extraction_error": "",
	})
}

// TextContent returns the document's extracted text, decompressing if needed
func (s *DocumentService) TextContent(ctx context.Context, externalID string) (string, error) {
	doc, err := s.FindByExternalID(ctx, externalID)
	if err != nil {
		return "", err
	}
	if len(doc.CompressedText) == 0 {
		return "", nil
	}
	text, err := utils.DecompressText(doc.CompressedText, doc.TextCompressed)
	if err != nil {
		return "", fmt.Errorf("failed to decompress document text: %w", err)
	}
	return text, nil
}

// AppendMatchHistory pushes one entry onto the document's append-only history
func (s *DocumentService) AppendMatchHistory(ctx context.Context, externalID string, entry models.MatchHistoryEntry) error {
	res, err := s.documentsCollection.UpdateOne(ctx,
		bson.M{"external_id": externalID},
		bson.M{
			"$push": bson.M{"match_history": entry},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return fmt.Errorf("failed to append document match history: %w", err)
	}
	if res.MatchedCount == 0 {
		return matching.ErrDocumentNotFound
	}
	return nil
}

// UpdateBestMatch replaces the stored best match only when the candidate
// score is strictly greater. The comparison runs inside the update filter so
// concurrent writers cannot regress the value. Returns true when the update
// took effect.
func (s *DocumentService) UpdateBestMatch(ctx context.Context, externalID string, candidate models.BestMatch) (bool, error) {
	filter := bson.M{
		"external_id": externalID,
		"$or": bson.A{
			bson.M{"best_match": bson.M{"$exists": false}},
			bson.M{"best_match": nil},
			bson.M{"best_match.score": bson.M{"$lt": candidate.Score}},
		},
	}
	res, err := s.documentsCollection.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{
			"best_match": candidate,
			"updated_at": time.Now(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to update best match: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// AttachToClaim links a parked document to a claim. Attaching an already
// attached document is rejected so a document never belongs to two claims.
func (s *DocumentService) AttachToClaim(ctx context.Context, externalID string, claimID primitive.ObjectID) error {
	res, err := s.documentsCollection.UpdateOne(ctx,
		bson.M{"external_id": externalID, "status": models.DocumentStatusParked},
		bson.M{
			"$set": bson.M{
				"status":     models.DocumentStatusAttached,
				"claim_id":   claimID,
				"updated_at": time.Now(),
			},
		})
	if err != nil {
		return fmt.Errorf("failed to attach document: %w", err)
	}
	if res.MatchedCount == 0 {
		// either the document does not exist or it is already attached
		count, countErr := s.documentsCollection.CountDocuments(ctx, bson.M{"external_id": externalID})
		if countErr == nil && count > 0 {
			return fmt.Errorf("document %s is already attached to a claim", externalID)
		}
		return matching.ErrDocumentNotFound
	}
	return nil
}

func (s *DocumentService) update(ctx context.Context, externalID string, fields bson.M) error {
	fields["updated_at"] = time.Now()
	res, err := s.documentsCollection.UpdateOne(ctx,
		bson.M{"external_id": externalID},
		bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", externalID, err)
	}
	if res.MatchedCount == 0 {
		return matching.ErrDocumentNotFound
	}
	return nil
}
