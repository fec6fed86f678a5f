package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/missions/models"
	"github.com/studyhub/missions/services"
	"github.com/studyhub/missions/utils"
)

// CatalogStore reads and extends the mission template catalog.
type CatalogStore interface {
	services.CatalogReader
	services.CatalogWriter
}

// CatalogController exposes the mission template catalog.
type CatalogController struct {
	catalog CatalogStore
}

func NewCatalogController(catalog CatalogStore) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// ListTemplates returns every template, or one tier with ?difficulty=.
func (c *CatalogController) ListTemplates(ctx *gin.Context) {
	var (
		templates []models.MissionTemplate
		err       error
	)
	if raw := strings.TrimSpace(ctx.Query("difficulty")); raw != "" {
		difficulty := models.Difficulty(strings.ToUpper(raw))
		if !difficulty.Valid() {
			utils.Error(ctx, http.StatusBadRequest, 40011, "difficulty must be EASY, MEDIUM or HARD")
			return
		}
		templates, err = c.catalog.TemplatesFor(ctx.Request.Context(), difficulty)
	} else {
		templates, err = c.catalog.ListTemplates(ctx.Request.Context())
	}
	if err != nil {
		serverError(ctx, 50040, "failed to load mission templates", err)
		return
	}
	utils.Success(ctx, gin.H{"items": templates, "total": len(templates)})
}

// CreateTemplate adds a catalog entry. Duplicates of an existing entry are rejected.
func (c *CatalogController) CreateTemplate(ctx *gin.Context) {
	var req services.TemplateInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	template, err := services.NewTemplate(req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTemplate) {
			utils.Error(ctx, http.StatusBadRequest, 40021, err.Error())
			return
		}
		serverError(ctx, 50041, "failed to create mission template", err)
		return
	}

	templates := []models.MissionTemplate{template}
	inserted, err := c.catalog.AddTemplates(ctx.Request.Context(), templates)
	if err != nil {
		serverError(ctx, 50041, "failed to create mission template", err)
		return
	}
	if inserted == 0 {
		utils.Error(ctx, http.StatusConflict, 40920, "mission template already exists")
		return
	}
	utils.Created(ctx, templates[0])
}
