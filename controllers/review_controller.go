package controllers

import (
	"net/http"
	"strings"

	"messmate/middleware"
	"messmate/models"
	"messmate/services"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{reviews: reviews}
}

func (rc *ReviewController) Submit(c *gin.Context) {
	var input services.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Mess ID and rating are required.")
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := rc.reviews.Submit(ctx, middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"message":       "Review added successfully!",
		"review":        result.Review,
		"updatedRating": result.UpdatedRating,
	})
}

func (rc *ReviewController) List(c *gin.Context) {
	ref := models.MessRef(strings.TrimSpace(c.Param("messId")))

	ctx, cancel := requestContext(c)
	defer cancel()

	reviews, err := rc.reviews.ListReviews(ctx, ref)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(reviews), "reviews": reviews})
}
