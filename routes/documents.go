package routes

import (
	"io"
	"net/http"
	"strings"

	"claims-intake-platform/internal/logger"
	"claims-intake-platform/internal/queue"
	"claims-intake-platform/models"
	"claims-intake-platform/services"
	"claims-intake-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// HandleUploadDocument accepts a document upload, parks it, and queues the
// ingest pipeline. Re-uploading identical bytes returns the existing record.
func HandleUploadDocument(documents *services.DocumentService, storage *services.StorageService, queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("document")
		if err != nil {
			utils.RespondWithBadRequest(c, "No document uploaded", nil)
			return
		}

		fileKey, fileHash, err := storage.Save(file)
		if err != nil {
			utils.RespondWithBadRequest(c, "Failed to store document", err.Error())
			return
		}

		if existing, err := documents.FindByHash(c.Request.Context(), fileHash); err == nil {
			c.JSON(http.StatusOK, gin.H{
				"document":  existing,
				"duplicate": true,
			})
			return
		}

		doc, err := documents.Create(c.Request.Context(), &models.Document{
			ExternalID:   uuid.NewString(),
			Filename:     file.Filename,
			OriginalName: file.Filename,
			FileKey:      fileKey,
			FileHash:     fileHash,
			MimeType:     file.Header.Get("Content-Type"),
			Category:     c.PostForm("category"),
		})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to register document", err.Error())
			return
		}

		task, err := queue.NewDocumentIngestTask(doc.ExternalID, storage.FilePath(fileKey), file.Filename)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to queue document processing", err.Error())
			return
		}
		if _, err := queueClient.Enqueue(task); err != nil {
			logger.Error("failed to enqueue ingest task", "document_id", doc.ExternalID, "error", err)
			utils.RespondWithInternalError(c, "Failed to queue document processing", nil)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"document": doc, "duplicate": false})
	}
}

// HandleListParkedDocuments lists documents awaiting claim attachment
func HandleListParkedDocuments(documents *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := documents.ListParked(c.Request.Context(), 100)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list parked documents", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
	}
}

// HandleGetDocument returns one document by its external id
func HandleGetDocument(documents *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := documents.FindByExternalID(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

// HandleGetDocumentText returns the extracted text for a document
func HandleGetDocumentText(documents *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		text, err := documents.TextContent(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"document_id": c.Param("id"), "text": text})
	}
}

type attachDocumentRequest struct {
	ClaimID string `json:"claim_id" binding:"required"`
}

// HandleAttachDocument links a parked document to a claim
func HandleAttachDocument(documents *services.DocumentService, claims *services.ClaimService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req attachDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "claim_id is required", nil)
			return
		}

		claim, err := claims.FindByID(c.Request.Context(), req.ClaimID)
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}

		doc, err := documents.FindByExternalID(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}

		if err := documents.AttachToClaim(c.Request.Context(), doc.ExternalID, claim.ID); err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}

		if err := claims.AddDocument(c.Request.Context(), req.ClaimID, models.ClaimDocument{
			ExternalID: doc.ExternalID,
			FileName:   doc.Filename,
			FileKey:    doc.FileKey,
			Category:   doc.Category,
		}); err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"document_id": doc.ExternalID,
			"claim_id":    req.ClaimID,
			"status":      models.DocumentStatusAttached,
		})
	}
}

// HandleGetDownloadURL issues a time-limited signed download link
func HandleGetDownloadURL(documents *services.DocumentService, storage *services.StorageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := documents.FindByExternalID(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"document_id": doc.ExternalID,
			"url":         storage.SignedURL(doc.FileKey),
		})
	}
}

// HandleDownloadFile serves a stored file after verifying the signed URL
func HandleDownloadFile(storage *services.StorageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// gin's catch-all parameter keeps the leading slash; signatures are
		// computed over the bare storage key
		fileKey := strings.TrimPrefix(c.Param("key"), "/")
		if err := storage.VerifySignature(fileKey, c.Query("expires"), c.Query("signature")); err != nil {
			utils.RespondWithError(c, http.StatusForbidden,
				"invalid_signature", "Download link is invalid or expired", nil)
			return
		}

		reader, err := storage.Open(fileKey)
		if err != nil {
			utils.RespondWithNotFound(c, "File not found")
			return
		}
		defer reader.Close()

		c.Header("Content-Disposition", "attachment")
		c.Status(http.StatusOK)
		io.Copy(c.Writer, reader)
	}
}
