package upload

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/content/crud"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
	"github.com/webapp-skeleton/cms/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the upload API. All of it needs a token.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/upload", authMW)
	g.POST("", h.upload)
	g.GET("/files", crud.List[models.Media](h.svc))
	g.GET("/files/:id", h.get)
	g.PUT("/files/:id", h.updateInfo)
	g.DELETE("/files/:id", h.delete)
}

// RegisterStatic serves locally stored files under /uploads.
func (h *Handler) RegisterStatic(r gin.IRoutes) {
	if local, ok := h.svc.Provider().(*Local); ok {
		r.Static("/uploads", local.Dir())
	}
}

func (h *Handler) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "expected a multipart form with a files field")
		return
	}

	var info FileInfo
	if raw := c.PostForm("fileInfo"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			response.BadRequest(c, "fileInfo must be a JSON object")
			return
		}
	}

	headers := form.File["files"]
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			response.InternalError(c, err)
			return
		}
		defer f.Close()
		files = append(files, File{Name: fh.Filename, Body: f})
	}

	media, err := h.svc.Upload(c.Request.Context(), files, info)
	if err != nil {
		crud.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, media)
}

func (h *Handler) get(c *gin.Context) {
	res, err := h.svc.FindOne(c.Request.Context(), c.Param("id"), query.Spec{})
	if err != nil {
		crud.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Data)
}

func (h *Handler) updateInfo(c *gin.Context) {
	var body struct {
		FileInfo FileInfo `json:"fileInfo"`
	}
	if !crud.Bind(c, &body) {
		return
	}
	m, err := h.svc.UpdateInfo(c.Request.Context(), c.Param("id"), body.FileInfo)
	if err != nil {
		crud.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) delete(c *gin.Context) {
	m, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		crud.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
