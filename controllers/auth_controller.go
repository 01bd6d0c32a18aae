package controllers

import (
	"net/http"

	"messmate/middleware"
	"messmate/services"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (ac *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	session, err := ac.auth.Register(ctx, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "User registered successfully",
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"user":      session.User,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Identifier string `json:"identifier"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if input.Identifier == "" {
		input.Identifier = input.Email
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	session, err := ac.auth.Login(ctx, services.LoginInput{
		Identifier: input.Identifier,
		Password:   input.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Login successful",
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"user":      session.User,
	})
}

func (ac *AuthController) Verify(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ac.auth.Verify(ctx, middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (ac *AuthController) Logout(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ac.auth.Logout(ctx, middleware.Token(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}
