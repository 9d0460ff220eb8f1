package controller

import (
	"context"
	"net/http"

	"swachhconnect/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) ListCitizens(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	citizens, err := h.Users.ListCitizens(ctx, c.Query("search"))
	if err != nil {
		log.WithError(err).Error("Error listing citizens")
		errorJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"citizens": citizens, "total": len(citizens)})
}

// DeleteCitizen removes the account only; the citizen's reports stay on record.
func (h *Handler) DeleteCitizen(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.Users.FindByID(ctx, c.Param("user_id"))
	if err != nil {
		storeError(c, err, "citizen")
		return
	}
	if user.Role != models.RoleCitizen {
		errorJSON(c, http.StatusNotFound, "citizen not found")
		return
	}
	if err := h.Users.Delete(ctx, user.UserID); err != nil {
		storeError(c, err, "citizen")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": true, "user_id": c.Param("user_id")})
}
