package httpserver

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/worknomads/pkg/httpx"
	"github.com/Skotchmaster/worknomads/pkg/logging"
	authmw "github.com/Skotchmaster/worknomads/pkg/middleware/auth"
	"github.com/Skotchmaster/worknomads/services/media/internal/models"
	"github.com/Skotchmaster/worknomads/services/media/internal/service"
	"github.com/Skotchmaster/worknomads/services/media/internal/transport"
)

const msgNotFound = "Not found."

type MediaHTTP struct {
	Svc *service.MediaService
}

func (h *MediaHTTP) UploadImage(c echo.Context) error {
	return h.upload(c, models.FileTypeImage)
}

func (h *MediaHTTP) UploadAudio(c echo.Context) error {
	return h.upload(c, models.FileTypeAudio)
}

func (h *MediaHTTP) upload(c echo.Context, fileType models.FileType) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "media_upload_"+string(fileType))
	p, _ := authmw.PrincipalFrom(c)

	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return echo.NewHTTPError(http.StatusBadRequest, service.MsgNoFile)
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		l.Warn("upload_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Multipart form parse error.")
	}

	f, err := fh.Open()
	if err != nil {
		l.Error("upload_error", "status", 500, "reason", "cannot open part", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, httpx.MsgServerError).SetInternal(err)
	}
	defer func(f multipart.File) { _ = f.Close() }(f)

	rec, err := h.Svc.Upload(ctx, service.UploadInput{
		OwnerID:     p.ID,
		FileType:    fileType,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, transport.NewMediaResponse(rec, absoluteURL(c, h.Svc.URL(rec))))
}

func (h *MediaHTTP) List(c echo.Context) error {
	p, _ := authmw.PrincipalFrom(c)

	recs, err := h.Svc.List(c.Request().Context(), p.ID)
	if err != nil {
		return mapError(err)
	}

	out := make([]transport.MediaResponse, 0, len(recs))
	for i := range recs {
		out = append(out, transport.NewMediaResponse(&recs[i], absoluteURL(c, h.Svc.URL(&recs[i]))))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MediaHTTP) Delete(c echo.Context) error {
	p, _ := authmw.PrincipalFrom(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}

	if err := h.Svc.Delete(c.Request().Context(), p.ID, uint(id)); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// absoluteURL prefixes relative storage URLs with the request origin.
func absoluteURL(c echo.Context, u string) string {
	if !strings.HasPrefix(u, "/") {
		return u
	}
	return c.Scheme() + "://" + c.Request().Host + u
}

func mapError(err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, httpx.MsgServerError).SetInternal(err)
	}
}
