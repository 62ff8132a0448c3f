package routes

import (
	"net/http"
	"time"

	"claims-intake-platform/models"
	"claims-intake-platform/services"
	"claims-intake-platform/utils"

	"github.com/gin-gonic/gin"
)

type createClaimRequest struct {
	ClaimNumber       string `json:"claim_number" binding:"required"`
	Name              string `json:"name" binding:"required"`
	Date              string `json:"date_of_injury" binding:"required"`
	Adjuster          string `json:"adjuster"`
	EmployerName      string `json:"employer_name"`
	PhysicianName     string `json:"physician_name"`
	InjuryDescription string `json:"injury_description"`
}

// HandleCreateClaim files a new claim
func HandleCreateClaim(claimService *services.ClaimService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createClaimRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Claim number, claimant name and date of injury are required", err.Error())
			return
		}

		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			utils.RespondWithBadRequest(c, "date_of_injury must be in YYYY-MM-DD format", nil)
			return
		}

		claim, err := claimService.Create(c.Request.Context(), &models.Claim{
			ClaimNumber:       req.ClaimNumber,
			Name:              req.Name,
			Date:              &date,
			Adjuster:          req.Adjuster,
			EmployerName:      req.EmployerName,
			PhysicianName:     req.PhysicianName,
			InjuryDescription: req.InjuryDescription,
		})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create claim", err.Error())
			return
		}

		c.JSON(http.StatusCreated, claim)
	}
}

// HandleListClaims returns all claims, newest first
func HandleListClaims(claimService *services.ClaimService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimService.FindAll(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list claims", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"claims": claims, "count": len(claims)})
	}
}

// HandleGetClaim returns one claim by id
func HandleGetClaim(claimService *services.ClaimService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim, err := claimService.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, claim)
	}
}

// HandleGetClaimMatchHistory returns a claim's append-only match history
func HandleGetClaimMatchHistory(claimService *services.ClaimService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim, err := claimService.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"claim_id":      claim.ID.Hex(),
			"match_history": claim.MatchHistory,
		})
	}
}

// HandleExportClaims streams the claims list as a spreadsheet
func HandleExportClaims(claimService *services.ClaimService, exportService *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimService.FindAll(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list claims", err.Error())
			return
		}

		buf, err := exportService.ClaimsWorkbook(claims)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build export", err.Error())
			return
		}
		exportService.StreamWorkbook(c, buf, "claims_export.xlsx")
	}
}
