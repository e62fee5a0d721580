package http

import (
	"mime"
	"net/http"
	pathpkg "path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_chat/internal/blob"
)

// BlobController serves uploaded images at the URLs the blob store hands
// out.
type BlobController struct {
	blobs blob.Store
}

func NewBlobController(blobs blob.Store) *BlobController {
	return &BlobController{blobs: blobs}
}

func (c *BlobController) Get(ctx *gin.Context) {
	path := strings.TrimPrefix(ctx.Param("path"), "/")
	if path == "" || strings.Contains(path, "..") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
		return
	}

	obj, err := c.blobs.Get(ctx.Request.Context(), path)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.Header("Cache-Control", "public, max-age=31536000, immutable")
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("Content-Security-Policy", "sandbox")
	ctx.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": pathpkg.Base(path)}))
	ctx.Data(http.StatusOK, obj.ContentType, obj.Data)
}
