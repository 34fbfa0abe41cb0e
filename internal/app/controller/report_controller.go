package controller

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beforepeak/beforepeak-backend/internal/app/service"
	"github.com/beforepeak/beforepeak-backend/internal/errors"
	"github.com/beforepeak/beforepeak-backend/internal/middleware"
)

type ReportController struct {
	reportService service.ReportService
}

func NewReportController(reportService service.ReportService) *ReportController {
	return &ReportController{
		reportService: reportService,
	}
}

// ExportBookings streams the restaurant's bookings as an xlsx workbook
// GET /api/v1/owner/restaurants/:id/bookings/export
func (ctrl *ReportController) ExportBookings(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	file, filename, err := ctrl.reportService.ExportRestaurantBookings(userID, restaurantID, from, to)
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrRestaurantNotFound):
			errors.NotFound(c, errors.RestaurantNotFound, "Restaurant not found")
		case stderrors.Is(err, service.ErrNotRestaurantOwner):
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzNotOwner, "")
		default:
			log.Error("Failed to export bookings", err, map[string]interface{}{
				"restaurant_id": restaurantID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := file.Write(c.Writer); err != nil {
		log.Error("Failed to stream export", err, nil)
	}
}
