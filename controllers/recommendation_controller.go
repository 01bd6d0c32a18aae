package controllers

import (
	"net/http"

	"messmate/services"

	"github.com/gin-gonic/gin"
)

type RecommendationController struct {
	recommendations *services.RecommendationService
}

func NewRecommendationController(recommendations *services.RecommendationService) *RecommendationController {
	return &RecommendationController{recommendations: recommendations}
}

// Recommend never fails on an unknown or malformed user id; those callers get
// a random selection.
func (rc *RecommendationController) Recommend(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	foods, err := rc.recommendations.Recommend(ctx, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": foods})
}
