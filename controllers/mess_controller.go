package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"messmate/filestore"
	"messmate/middleware"
	"messmate/models"
	"messmate/services"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

type MessController struct {
	catalog *services.CatalogService
	files   filestore.Store
}

func NewMessController(catalog *services.CatalogService, files filestore.Store) *MessController {
	return &MessController{catalog: catalog, files: files}
}

func (mc *MessController) ListMesses(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	messes, err := mc.catalog.ListMesses(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(messes), "messes": messes})
}

func (mc *MessController) ListMine(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	messes, err := mc.catalog.ListMine(ctx, middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(messes), "messes": messes})
}

func (mc *MessController) GetMess(c *gin.Context) {
	messID, ok := messIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	mess, err := mc.catalog.GetMess(ctx, messID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "mess": mess})
}

func (mc *MessController) CreateMess(c *gin.Context) {
	var input services.MessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid mess data")
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	mess, err := mc.catalog.CreateMess(ctx, middleware.Actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Mess created", "mess": mess})
}

func (mc *MessController) UpdateMess(c *gin.Context) {
	messID, ok := messIDParam(c)
	if !ok {
		return
	}

	var body models.MessDetails
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	mess, err := mc.catalog.UpdateMess(ctx, middleware.Actor(c), messID, body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Mess updated", "mess": mess})
}

func (mc *MessController) DeleteMess(c *gin.Context) {
	messID, ok := messIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := mc.catalog.DeleteMess(ctx, middleware.Actor(c), messID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Mess deleted"})
}

// AddMenuItem accepts a JSON dish or a multipart form with an optional
// "image" file.
func (mc *MessController) AddMenuItem(c *gin.Context) {
	messID, ok := messIDParam(c)
	if !ok {
		return
	}

	var input services.MenuItemInput
	if isMultipart(c) {
		parsed, err := mc.menuItemFromForm(c)
		if err != nil {
			respondError(c, err)
			return
		}
		input = parsed
	} else if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid menu item")
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	menu, err := mc.catalog.AddMenuItem(ctx, middleware.Actor(c), messID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Menu item added", "menu": menu})
}

func (mc *MessController) menuItemFromForm(c *gin.Context) (services.MenuItemInput, error) {
	if err := parseMultipart(c); err != nil {
		return services.MenuItemInput{}, err
	}
	input := services.MenuItemInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Type:        c.PostForm("type"),
		Category:    c.PostForm("category"),
		Image:       c.PostForm("image"),
	}
	if raw := strings.TrimSpace(c.PostForm("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return input, services.InvalidInput("Price must be a number")
		}
		input.Price = price
	}
	if raw := strings.TrimSpace(c.PostForm("isVeg")); raw != "" {
		isVeg, err := strconv.ParseBool(raw)
		if err != nil {
			return input, services.InvalidInput("isVeg must be true or false")
		}
		input.IsVeg = &isVeg
	}

	url, err := saveUpload(c, mc.files, "image")
	if err != nil {
		return input, err
	}
	if url != "" {
		input.Image = url
	}
	return input, nil
}

// ReplaceMenu takes {"menu": ...} in any supported menu shape, or a bare menu
// document.
func (mc *MessController) ReplaceMenu(c *gin.Context) {
	messID, ok := messIDParam(c)
	if !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil || !gjson.ValidBytes(raw) {
		badRequest(c, "Invalid menu")
		return
	}

	var menu *models.Menu
	payload := gjson.ParseBytes(raw)
	if wrapped := payload.Get("menu"); wrapped.Exists() {
		if wrapped.Type != gjson.Null {
			parsed, err := models.ParseMenu([]byte(wrapped.Raw))
			if err != nil {
				badRequest(c, "Invalid menu")
				return
			}
			menu = &parsed
		}
	} else if payload.IsArray() || payload.Get("items").Exists() {
		parsed, err := models.ParseMenu(raw)
		if err != nil {
			badRequest(c, "Invalid menu")
			return
		}
		menu = &parsed
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	updated, err := mc.catalog.ReplaceMenu(ctx, middleware.Actor(c), messID, menu)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Menu updated", "menu": updated})
}

func (mc *MessController) DeleteMenuItem(c *gin.Context) {
	messID, ok := messIDParam(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, services.NotFound("Menu item not found"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	menu, err := mc.catalog.DeleteMenuItem(ctx, middleware.Actor(c), messID, index)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Menu item deleted", "menu": menu})
}
