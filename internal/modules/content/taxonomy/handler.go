package taxonomy

import (
	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
)

type Handler[T any, P term[T]] struct {
	svc *Service[T, P]
}

func NewHandler[T any, P term[T]](svc *Service[T, P]) *Handler[T, P] {
	return &Handler[T, P]{svc: svc}
}

func (h *Handler[T, P]) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/" + h.svc.kind.Plural)
	g.GET("", crud.List[T](h.svc))
	g.GET("/:id", crud.Get[T](h.svc))

	authed := g.Group("", authMW)
	authed.POST("", h.create)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.delete)
}

func (h *Handler[T, P]) create(c *gin.Context) {
	var b body
	if !crud.Bind(c, &b) {
		return
	}
	v, err := h.svc.Create(c.Request.Context(), b.Data)
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Created(c, v)
}

func (h *Handler[T, P]) update(c *gin.Context) {
	var b body
	if !crud.Bind(c, &b) {
		return
	}
	v, err := h.svc.Update(c.Request.Context(), c.Param("id"), b.Data)
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Entry(c, v, nil)
}

func (h *Handler[T, P]) delete(c *gin.Context) {
	v, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		crud.Fail(c, err)
		return
	}
	response.Entry(c, v, nil)
}
