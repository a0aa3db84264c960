package article

import (
	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
)

type Handler struct {
	ctrl *Controller
	svc  *Service
}

func NewHandler(ctrl *Controller, svc *Service) *Handler {
	return &Handler{ctrl: ctrl, svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	articles := rg.Group("/articles")
	articles.GET("", crud.List[models.Article](h.ctrl))
	articles.GET("/slug/:slug", h.getBySlug)
	articles.GET("/:id", crud.Get[models.Article](h.ctrl))

	authed := articles.Group("", authMW)
	authed.POST("", h.create)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.delete)
}

func (h *Handler) getBySlug(c *gin.Context) {
	res, err := h.ctrl.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Entry(c, res.Data, res.Meta)
}

func (h *Handler) create(c *gin.Context) {
	var body articleBody
	if !crud.Bind(c, &body) {
		return
	}
	a, err := h.svc.Create(c.Request.Context(), body.Data)
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Created(c, a)
}

func (h *Handler) update(c *gin.Context) {
	var body articleBody
	if !crud.Bind(c, &body) {
		return
	}
	a, err := h.svc.Update(c.Request.Context(), c.Param("id"), body.Data)
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
