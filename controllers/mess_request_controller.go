package controllers

import (
	"net/http"

	"messmate/filestore"
	"messmate/middleware"
	"messmate/models"
	"messmate/services"

	"github.com/gin-gonic/gin"
)

type MessRequestController struct {
	requests *services.MessRequestService
	files    filestore.Store
}

func NewMessRequestController(requests *services.MessRequestService, files filestore.Store) *MessRequestController {
	return &MessRequestController{requests: requests, files: files}
}

// Submit accepts either a JSON application or a multipart form whose "menu"
// field is a JSON string and whose document fields are file uploads. On the
// multipart path document URLs only ever come from stored uploads.
func (rc *MessRequestController) Submit(c *gin.Context) {
	var input services.MessRequestInput
	if isMultipart(c) {
		parsed, err := rc.inputFromForm(c)
		if err != nil {
			respondError(c, err)
			return
		}
		input = parsed
	} else if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid mess request")
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	req, err := rc.requests.Submit(ctx, middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Mess request submitted successfully",
		"request": req,
	})
}

func (rc *MessRequestController) inputFromForm(c *gin.Context) (services.MessRequestInput, error) {
	if err := parseMultipart(c); err != nil {
		return services.MessRequestInput{}, err
	}
	input := services.MessRequestInput{
		Name:       c.PostForm("name"),
		Location:   c.PostForm("location"),
		Mobile:     c.PostForm("mobile"),
		Email:      c.PostForm("email"),
		PriceRange: c.PostForm("price_range"),
		Offer:      c.PostForm("offer"),
	}

	if raw, ok := c.GetPostForm("menu"); ok && raw != "" {
		menu, err := models.ParseMenu([]byte(raw))
		if err != nil {
			return input, services.InvalidInput("Invalid menu format")
		}
		input.Menu = &menu
	}

	docs := []struct {
		field string
		dst   *string
	}{
		{"pancard", &input.PanCard},
		{"fssai", &input.FSSAI},
		{"menuPhoto", &input.MenuPhoto},
		{"bankDetails", &input.BankDetails},
	}
	for _, doc := range docs {
		url, err := saveUpload(c, rc.files, doc.field)
		if err != nil {
			return input, err
		}
		*doc.dst = url
	}
	return input, nil
}

func (rc *MessRequestController) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	reqs, err := rc.requests.List(ctx, middleware.Actor(c), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(reqs), "requests": reqs})
}

func (rc *MessRequestController) ListMine(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	reqs, err := rc.requests.ListMine(ctx, middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(reqs), "requests": reqs})
}

func (rc *MessRequestController) Approve(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	mess, err := rc.requests.Approve(ctx, middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Mess approved and added successfully",
		"mess":    mess,
	})
}

func (rc *MessRequestController) Reject(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	req, err := rc.requests.Reject(ctx, middleware.Actor(c), c.Param("id"), body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Mess request rejected",
		"request": req,
	})
}
