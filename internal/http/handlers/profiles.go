package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klaape/klaape-api/internal/config"
	"github.com/klaape/klaape-api/internal/domain/identity"
	"github.com/klaape/klaape-api/internal/domain/profile"
	"github.com/klaape/klaape-api/internal/http/middlewares"
	"github.com/klaape/klaape-api/internal/service"
)

const profileNotFound = "Profile not found"

type ProfileService interface {
	Read(ctx context.Context, actor identity.Actor, targetID int64) (profile.View, error)
	Update(ctx context.Context, actor identity.Actor, targetID int64, req profile.UpdateRequest) (profile.View, error)
	UploadImage(ctx context.Context, actor identity.Actor, targetID int64, img service.ImageUpload) (profile.View, error)
	List(ctx context.Context, actor identity.Actor) ([]profile.View, error)
	Get(ctx context.Context, actor identity.Actor, profileID int64) (profile.View, error)
	UpdateByID(ctx context.Context, actor identity.Actor, profileID int64, req profile.UpdateRequest) (profile.View, error)
	Delete(ctx context.Context, actor identity.Actor, profileID int64) error
}

type ProfilesHandler struct {
	svc            ProfileService
	maxUploadBytes int64
}

func NewProfilesHandler(svc ProfileService, maxUploadBytes int64) *ProfilesHandler {
	return &ProfilesHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// GET /api/users/:id/profile/
func (h *ProfilesHandler) GetUserProfile(ctx *gin.Context) {
	actor, targetID, ok := h.actorAndID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	v, err := h.svc.Read(cctx, actor, targetID)
	if err != nil {
		RespondServiceError(ctx, err, "User not found")
		return
	}
	ctx.JSON(http.StatusOK, v)
}

// PUT|PATCH /api/users/:id/profile/
func (h *ProfilesHandler) UpdateUserProfile(ctx *gin.Context) {
	actor, targetID, ok := h.actorAndID(ctx)
	if !ok {
		return
	}

	var req profile.UpdateRequest
	if !decodePatch(ctx, &req) {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	v, err := h.svc.Update(cctx, actor, targetID, req)
	if err != nil {
		RespondServiceError(ctx, err, "User not found")
		return
	}
	ctx.JSON(http.StatusOK, v)
}

// POST /api/users/:id/profile/image/ (multipart, field "image")
func (h *ProfilesHandler) UploadImage(ctx *gin.Context) {
	actor, targetID, ok := h.actorAndID(ctx)
	if !ok {
		return
	}

	var upload service.ImageUpload

	fh, err := ctx.FormFile("image")
	if err == nil {
		data, err := h.readUpload(fh)
		if err != nil {
			if errors.Is(err, errUploadTooLarge) {
				RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Image too large", nil)
				return
			}
			RespondBadRequest(ctx, "Could not read image", nil)
			return
		}
		upload = service.ImageUpload{Filename: fh.Filename, Data: data}
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 15*time.Second)
	defer cancel()

	v, err := h.svc.UploadImage(cctx, actor, targetID, upload)
	if err != nil {
		RespondServiceError(ctx, err, "User not found")
		return
	}
	ctx.JSON(http.StatusOK, v)
}

// GET /api/profiles/
func (h *ProfilesHandler) List(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.svc.List(cctx, actor)
	if err != nil {
		RespondServiceError(ctx, err, profileNotFound)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

// GET /api/profiles/:id/
func (h *ProfilesHandler) Retrieve(ctx *gin.Context) {
	actor, profileID, ok := h.actorAndID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	v, err := h.svc.Get(cctx, actor, profileID)
	if err != nil {
		RespondServiceError(ctx, err, profileNotFound)
		return
	}
	ctx.JSON(http.StatusOK, v)
}

// PUT|PATCH /api/profiles/:id/
func (h *ProfilesHandler) UpdateByID(ctx *gin.Context) {
	actor, profileID, ok := h.actorAndID(ctx)
	if !ok {
		return
	}

	var req profile.UpdateRequest
	if !decodePatch(ctx, &req) {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	v, err := h.svc.UpdateByID(cctx, actor, profileID, req)
	if err != nil {
		RespondServiceError(ctx, err, profileNotFound)
		return
	}
	ctx.JSON(http.StatusOK, v)
}

// DELETE /api/profiles/:id/
func (h *ProfilesHandler) Delete(ctx *gin.Context) {
	actor, profileID, ok := h.actorAndID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.svc.Delete(cctx, actor, profileID); err != nil {
		RespondServiceError(ctx, err, profileNotFound)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (h *ProfilesHandler) actorAndID(ctx *gin.Context) (identity.Actor, int64, bool) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return identity.Actor{}, 0, false
	}

	id, ok := pathID(ctx, "id")
	if !ok {
		RespondNotFound(ctx, "Not found")
		return identity.Actor{}, 0, false
	}
	return actor, id, true
}

var errUploadTooLarge = errors.New("upload too large")

func (h *ProfilesHandler) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, errUploadTooLarge
	}
	return data, nil
}

// decodePatch treats an empty body as an empty patch. Field rules are left to
// the service so a stranger's invalid patch still gets 403 or 404.
func decodePatch(ctx *gin.Context, out *profile.UpdateRequest) bool {
	if ctx.Request.ContentLength == 0 {
		return true
	}
	return DecodeJSON(ctx, out)
}
