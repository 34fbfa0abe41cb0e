package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beforepeak/beforepeak-backend/internal/errors"
	"github.com/beforepeak/beforepeak-backend/internal/middleware"
	"github.com/beforepeak/beforepeak-backend/internal/storage"
)

type UploadController struct {
	storage *storage.S3Storage
}

func NewUploadController(s3 *storage.S3Storage) *UploadController {
	return &UploadController{
		storage: s3,
	}
}

type PresignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
	Purpose     string `json:"purpose" binding:"required,oneof=restaurant_photo review_photo avatar"`
}

// Presign issues a presigned S3 PUT URL for a photo upload
// POST /api/v1/uploads/presign
func (ctrl *UploadController) Presign(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	if err := ctrl.storage.ValidateImageUpload(req.Size, req.ContentType); err != nil {
		errors.BadRequest(c, errors.UploadInvalidFileType, err.Error())
		return
	}

	var folder string
	switch req.Purpose {
	case "restaurant_photo":
		folder = storage.FolderRestaurantPhotos
	case "review_photo":
		folder = storage.FolderReviewPhotos
	case "avatar":
		folder = storage.FolderAvatars
	}

	resp, err := ctrl.storage.GeneratePresignedURL(req.Filename, req.ContentType, folder)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"user_id": userID,
			"purpose": req.Purpose,
		})
		errors.RespondWithError(c, http.StatusBadGateway, errors.UploadFailed, "Failed to prepare upload")
		return
	}

	c.JSON(http.StatusOK, resp)
}
