package routes

import (
	"net/http"

	"claims-intake-platform/internal/matching"
	"claims-intake-platform/internal/telemetry"
	"claims-intake-platform/services"
	"claims-intake-platform/utils"

	"github.com/gin-gonic/gin"
)

type matchDocumentRequest struct {
	MinScore *float64 `json:"min_score"`
}

// HandleMatchDocument runs the matching engine for one document and records
// the results against the document's history.
func HandleMatchDocument(documents *services.DocumentService, matcher *matching.Matcher,
	recorder *services.MatchRecorder, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req matchDocumentRequest
		c.ShouldBindJSON(&req) // body is optional

		minScore := matcher.Config().Thresholds.MinScore
		if req.MinScore != nil {
			minScore = *req.MinScore
		}

		doc, err := documents.FindByExternalID(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}
		if doc.Entities == nil || doc.Entities.IsEmpty() {
			utils.RespondWithDomainError(c, matching.ErrNoEntities)
			return
		}

		results, err := matcher.FindMatches(c.Request.Context(), doc.Entities, minScore)
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}

		if err := recorder.RecordAll(c.Request.Context(), doc.ExternalID, results); err != nil {
			utils.RespondWithInternalError(c, "Failed to record match results", err.Error())
			return
		}

		var topScore float64
		if len(results) > 0 {
			topScore = results[0].Score
			if metrics != nil {
				metrics.RecordMatchRun(topScore, results[0].IsRecommended)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"document_id": doc.ExternalID,
			"min_score":   minScore,
			"matches":     results,
			"count":       len(results),
			"top_score":   topScore,
		})
	}
}

// HandleGetDocumentMatches returns a document's match history and best match
func HandleGetDocumentMatches(documents *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := documents.FindByExternalID(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"document_id":   doc.ExternalID,
			"best_match":    doc.BestMatch,
			"match_history": doc.MatchHistory,
		})
	}
}

type startBatchRequest struct {
	DocumentIDs []string `json:"document_ids" binding:"required"`
	MinScore    *float64 `json:"min_score"`
}

// HandleStartBatch launches a batch matching job and returns its id
func HandleStartBatch(batches *services.BatchService, defaultMinScore float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "document_ids is required", nil)
			return
		}

		minScore := defaultMinScore
		if req.MinScore != nil {
			minScore = *req.MinScore
		}

		job, err := batches.Start(req.DocumentIDs, minScore)
		if err != nil {
			utils.RespondWithBadRequest(c, err.Error(), nil)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"batch_id": job.ID,
			"status":   job.Status,
			"total":    job.Total,
		})
	}
}

// HandleGetBatchStatus reports batch job progress
func HandleGetBatchStatus(batches *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := batches.Status(c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

// HandleExportBatchReport streams a finished batch's results as a spreadsheet
func HandleExportBatchReport(batches *services.BatchService, exporter *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := batches.Status(c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}

		buf, err := exporter.BatchReportWorkbook(job)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build batch report", err.Error())
			return
		}
		exporter.StreamWorkbook(c, buf, "batch_"+job.ID+".xlsx")
	}
}
