package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"identity-service/internal/auth"
	"identity-service/internal/identity"
	"identity-service/internal/registry"
	"identity-service/internal/repository"
	"identity-service/internal/service"
)

const subjectKey = "auth.subject"

// Handler wires HTTP routes to the identity service.
type Handler struct {
	identities service.IdentityService
	tokens     *auth.TokenService
	publisher  registry.Publisher
	registryTo registry.PublishOptions
}

// NewHandler builds the route handler. publisher may be nil when no DID
// document registry is configured.
func NewHandler(identities service.IdentityService, tokens *auth.TokenService, publisher registry.Publisher, registryTo registry.PublishOptions) *Handler {
	return &Handler{
		identities: identities,
		tokens:     tokens,
		publisher:  publisher,
		registryTo: registryTo,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "Decentralized Identity System is running!"})
	})
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/signup", h.signup)
	router.POST("/login", h.login)
	router.POST("/verify", h.verifySignature)

	authed := router.Group("/", h.requireBearer())
	{
		authed.GET("/protected", h.protected)
		authed.GET("/did", h.getDID)
		authed.GET("/registry/documents", h.listRegistryDocuments)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireBearer validates the Authorization header and stores the token
// subject for downstream handlers.
func (h *Handler) requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
			return
		}

		subject, err := h.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
			return
		}

		c.Set(subjectKey, subject)
		c.Next()
	}
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signupResponse struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	IsActive   bool   `json:"is_active"`
	DID        string `json:"did"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	reg, err := h.identities.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Email already registered"})
		case errors.Is(err, repository.ErrUsernameExists):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Username already taken"})
		case errors.Is(err, repository.ErrDIDExists):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "DID already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, signupResponse{
		ID:         reg.ID,
		Username:   reg.Username,
		Email:      reg.Email,
		IsActive:   reg.IsActive,
		DID:        reg.DID,
		PublicKey:  reg.PublicKey,
		PrivateKey: reg.PrivateKey,
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	token, err := h.identities.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (h *Handler) protected(c *gin.Context) {
	subject := c.GetString(subjectKey)
	c.JSON(http.StatusOK, gin.H{
		"message": "Hello, " + subject + "! You have access to this protected route.",
	})
}

func (h *Handler) getDID(c *gin.Context) {
	subject := c.GetString(subjectKey)

	info, err := h.identities.GetIdentity(c.Request.Context(), subject)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		case errors.Is(err, service.ErrIdentityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"detail": "DID not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":   info.Username,
		"did":        info.DID,
		"public_key": info.PublicKey,
	})
}

type RegistryObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

// listRegistryDocuments lists the DID documents published to the configured
// registry bucket.
func (h *Handler) listRegistryDocuments(c *gin.Context) {
	if h.publisher == nil || h.registryTo.Bucket == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "registry not configured"})
		return
	}

	prefix := c.DefaultQuery("prefix", h.registryTo.KeyPrefix)
	objects, err := h.publisher.List(c.Request.Context(), h.registryTo.Bucket, prefix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	resp := make([]RegistryObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func objectToResponse(obj registry.ObjectInfo) RegistryObjectResponse {
	resp := RegistryObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

type verifyRequest struct {
	Username  string `json:"username" binding:"required"`
	Message   string `json:"message" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

func (h *Handler) verifySignature(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	valid, err := h.identities.VerifySignature(c.Request.Context(), req.Username, req.Message, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		case errors.Is(err, identity.ErrMalformedSignature):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid signature format"})
		case errors.Is(err, identity.ErrMalformedKey):
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Invalid public key"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		}
		return
	}

	// a mismatch is a normal outcome, not an HTTP error
	if valid {
		c.JSON(http.StatusOK, gin.H{"message": "Signature is valid"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signature verification failed"})
}
