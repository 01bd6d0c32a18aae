package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"messmate/filestore"
	"messmate/services"

	"github.com/gin-gonic/gin"
)

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// parseMultipart reads the form up front so an oversized or broken body is
// reported instead of surfacing as missing fields.
func parseMultipart(c *gin.Context) error {
	if _, err := c.MultipartForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.InvalidInput(fmt.Sprintf("Upload is too large (limit %d bytes)", tooLarge.Limit))
		}
		return services.InvalidInput("Invalid multipart form")
	}
	return nil
}

// saveUpload stores the file in form field and returns its URL, or "" when
// the field is absent.
func saveUpload(c *gin.Context, files filestore.Store, field string) (string, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", services.InvalidInput(fmt.Sprintf("Could not read %s upload", field))
	}

	f, err := header.Open()
	if err != nil {
		return "", services.Internal("Could not read upload", err)
	}
	defer f.Close()

	ctx, cancel := requestContext(c)
	defer cancel()

	url, err := files.Save(ctx, header.Filename, f, header.Header.Get("Content-Type"))
	if errors.Is(err, filestore.ErrUnsupportedType) {
		return "", services.InvalidInput(fmt.Sprintf("%s must be an image or PDF", field))
	}
	if err != nil {
		return "", services.Internal("Failed to store upload", err)
	}
	return url, nil
}
