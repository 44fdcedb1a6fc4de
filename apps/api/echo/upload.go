package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type uploadApi struct {
	storage core.FileStorage
}

func registerUploadAPI(g *echo.Group, jwt echo.MiddlewareFunc, storage core.FileStorage) {
	api := uploadApi{storage: storage}
	g.POST("/uploads", api.upload, jwt)
}

// upload stores a multipart file and returns its metadata. The metadata is an
// opaque pass-through for submission attachments.
func (api *uploadApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(errors.New("a \"file\" form field is required"))
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	uploaded, err := api.storage.Upload(
		ctx.Request().Context(),
		fh.Filename,
		fh.Header.Get("Content-Type"),
		fh.Size,
		f,
	)
	if err != nil {
		return errors.Wrap(err, "uploading file")
	}
	return ctx.JSON(http.StatusCreated, uploaded)
}
