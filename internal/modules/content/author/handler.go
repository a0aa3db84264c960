package author

import (
	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	authors := rg.Group("/authors")
	authors.GET("", crud.List[models.Author](h.svc))
	authors.GET("/:id", crud.Get[models.Author](h.svc))

	authed := authors.Group("", authMW)
	authed.POST("", h.create)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	var b body
	if !crud.Bind(c, &b) {
		return
	}
	a, err := h.svc.Create(c.Request.Context(), b.Data)
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Created(c, a)
}

func (h *Handler) update(c *gin.Context) {
	var b body
	if !crud.Bind(c, &b) {
		return
	}
	a, err := h.svc.Update(c.Request.Context(), c.Param("id"), b.Data)
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Entry(c, a, nil)
}

func (h *Handler) delete(c *gin.Context) {
	a, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Entry(c, a, nil)
}
