package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/klaape/klaape-api/internal/apperr"
	"github.com/klaape/klaape-api/internal/domain/catalog"
	"github.com/klaape/klaape-api/internal/domain/identity"
	"github.com/klaape/klaape-api/internal/domain/profile"
	"github.com/klaape/klaape-api/internal/media"
)

const pictureFolder = "profile_pictures"

type ProfileStore interface {
	GetOrCreate(ctx context.Context, identityID int64) (profile.Profile, error)
	GetByID(ctx context.Context, id int64) (profile.Profile, error)
	List(ctx context.Context, ownerID *int64) ([]profile.Profile, error)
	Update(ctx context.Context, id int64, req profile.UpdateRequest) (profile.Profile, error)
	SetPicture(ctx context.Context, id int64, ref string) (profile.Profile, error)
	Delete(ctx context.Context, id int64) error
}

type IdentityReader interface {
	GetByID(ctx context.Context, id int64) (identity.Identity, error)
}

// ImageUpload is one uploaded file. Data nil or empty means nothing was sent.
type ImageUpload struct {
	Filename string
	Data     []byte
}

type ProfileService struct {
	profiles   ProfileStore
	identities IdentityReader
	media      media.Store
}

func NewProfileService(profiles ProfileStore, identities IdentityReader, store media.Store) *ProfileService {
	return &ProfileService{profiles: profiles, identities: identities, media: store}
}

// GetOrCreate returns the identity's profile, creating the default one on
// first access. Calling it twice yields the same profile id.
func (s *ProfileService) GetOrCreate(ctx context.Context, identityID int64) (profile.Profile, error) {
	p, err := s.profiles.GetOrCreate(ctx, identityID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return profile.Profile{}, apperr.ErrNotFound
		}
		return profile.Profile{}, fmt.Errorf("get or create profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) Read(ctx context.Context, actor identity.Actor, targetID int64) (profile.View, error) {
	if err := s.authorizeTarget(ctx, actor, targetID); err != nil {
		return profile.View{}, err
	}

	p, err := s.GetOrCreate(ctx, targetID)
	if err != nil {
		return profile.View{}, err
	}
	return profile.NewView(p), nil
}

func (s *ProfileService) Update(ctx context.Context, actor identity.Actor, targetID int64, req profile.UpdateRequest) (profile.View, error) {
	if err := s.authorizeTarget(ctx, actor, targetID); err != nil {
		return profile.View{}, err
	}

	if err := validateStruct(req); err != nil {
		return profile.View{}, err
	}

	p, err := s.GetOrCreate(ctx, targetID)
	if err != nil {
		return profile.View{}, err
	}

	return s.apply(ctx, p, req)
}

func (s *ProfileService) UploadImage(ctx context.Context, actor identity.Actor, targetID int64, img ImageUpload) (profile.View, error) {
	if err := s.authorizeTarget(ctx, actor, targetID); err != nil {
		return profile.View{}, err
	}

	if len(img.Data) == 0 {
		return profile.View{}, apperr.Invalid("image", "required", "No image provided")
	}

	contentType, ext, err := media.DetectImage(img.Data)
	if err != nil {
		return profile.View{}, apperr.Invalid("image", "image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	p, err := s.GetOrCreate(ctx, targetID)
	if err != nil {
		return profile.View{}, err
	}

	ref, err := s.media.Put(ctx, media.ObjectKey(pictureFolder, img.Filename, ext), contentType, img.Data)
	if err != nil {
		return profile.View{}, fmt.Errorf("store profile picture: %w", err)
	}

	p, err = s.profiles.SetPicture(ctx, p.ID, ref)
	if err != nil {
		return profile.View{}, s.mapStoreErr(err)
	}
	return profile.NewView(p), nil
}

// List returns every profile to staff and only the actor's own otherwise.
func (s *ProfileService) List(ctx context.Context, actor identity.Actor) ([]profile.View, error) {
	var owner *int64
	if !actor.IsStaff {
		owner = &actor.ID
	}

	items, err := s.profiles.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	out := make([]profile.View, 0, len(items))
	for _, p := range items {
		out = append(out, profile.NewView(p))
	}
	return out, nil
}

func (s *ProfileService) Get(ctx context.Context, actor identity.Actor, profileID int64) (profile.View, error) {
	p, err := s.visible(ctx, actor, profileID)
	if err != nil {
		return profile.View{}, err
	}
	return profile.NewView(p), nil
}

func (s *ProfileService) UpdateByID(ctx context.Context, actor identity.Actor, profileID int64, req profile.UpdateRequest) (profile.View, error) {
	p, err := s.visible(ctx, actor, profileID)
	if err != nil {
		return profile.View{}, err
	}

	if err := validateStruct(req); err != nil {
		return profile.View{}, err
	}

	return s.apply(ctx, p, req)
}

func (s *ProfileService) Delete(ctx context.Context, actor identity.Actor, profileID int64) error {
	if _, err := s.visible(ctx, actor, profileID); err != nil {
		return err
	}
	return s.mapStoreErr(s.profiles.Delete(ctx, profileID))
}

func (s *ProfileService) apply(ctx context.Context, p profile.Profile, req profile.UpdateRequest) (profile.View, error) {
	if req.IsEmpty() {
		return profile.NewView(p), nil
	}

	updated, err := s.profiles.Update(ctx, p.ID, req)
	if err != nil {
		return profile.View{}, s.mapStoreErr(err)
	}
	return profile.NewView(updated), nil
}

// authorizeTarget reports NotFound for a missing identity before checking
// ownership, matching the order the public API has always used.
func (s *ProfileService) authorizeTarget(ctx context.Context, actor identity.Actor, targetID int64) error {
	if _, err := s.identities.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("load identity: %w", err)
	}

	if !actor.CanAccess(targetID) {
		return apperr.ErrForbidden
	}
	return nil
}

// visible loads a profile by its own id. Profiles the actor may not see are
// reported as NotFound, the same as a collection filtered to the owner.
func (s *ProfileService) visible(ctx context.Context, actor identity.Actor, profileID int64) (profile.Profile, error) {
	p, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return profile.Profile{}, s.mapStoreErr(err)
	}

	if !actor.CanAccess(p.IdentityID) {
		return profile.Profile{}, apperr.ErrNotFound
	}
	return p, nil
}

func (s *ProfileService) mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, profile.ErrNotFound), errors.Is(err, identity.ErrNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, catalog.ErrUnknownCategory):
		return apperr.Invalid("expertise", "exists", "Invalid pk - object does not exist.")
	default:
		return err
	}
}
