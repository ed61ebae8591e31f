package handlers_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klaape/klaape-api/internal/auth"
	"github.com/klaape/klaape-api/internal/domain/catalog"
	"github.com/klaape/klaape-api/internal/domain/identity"
	"github.com/klaape/klaape-api/internal/domain/profile"
	"github.com/klaape/klaape-api/internal/http/middlewares"
	"github.com/klaape/klaape-api/internal/service"
)

// Fake implementations of the handler interfaces

type fakeProfiles struct {
	readFn     func(ctx context.Context, actor identity.Actor, targetID int64) (profile.View, error)
	updateFn   func(ctx context.Context, actor identity.Actor, targetID int64, req profile.UpdateRequest) (profile.View, error)
	uploadFn   func(ctx context.Context, actor identity.Actor, targetID int64, img service.ImageUpload) (profile.View, error)
	listFn     func(ctx context.Context, actor identity.Actor) ([]profile.View, error)
	getFn      func(ctx context.Context, actor identity.Actor, profileID int64) (profile.View, error)
	updateIDFn func(ctx context.Context, actor identity.Actor, profileID int64, req profile.UpdateRequest) (profile.View, error)
	deleteFn   func(ctx context.Context, actor identity.Actor, profileID int64) error
}

func (f *fakeProfiles) Read(ctx context.Context, actor identity.Actor, targetID int64) (profile.View, error) {
	if f.readFn != nil {
		return f.readFn(ctx, actor, targetID)
	}
	return profile.View{}, nil
}

func (f *fakeProfiles) Update(ctx context.Context, actor identity.Actor, targetID int64, req profile.UpdateRequest) (profile.View, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, actor, targetID, req)
	}
	return profile.View{}, nil
}

func (f *fakeProfiles) UploadImage(ctx context.Context, actor identity.Actor, targetID int64, img service.ImageUpload) (profile.View, error) {
	if f.uploadFn != nil {
		return f.uploadFn(ctx, actor, targetID, img)
	}
	return profile.View{}, nil
}

func (f *fakeProfiles) List(ctx context.Context, actor identity.Actor) ([]profile.View, error) {
	if f.listFn != nil {
		return f.listFn(ctx, actor)
	}
	return []profile.View{}, nil
}

func (f *fakeProfiles) Get(ctx context.Context, actor identity.Actor, profileID int64) (profile.View, error) {
	if f.getFn != nil {
		return f.getFn(ctx, actor, profileID)
	}
	return profile.View{}, nil
}

func (f *fakeProfiles) UpdateByID(ctx context.Context, actor identity.Actor, profileID int64, req profile.UpdateRequest) (profile.View, error) {
	if f.updateIDFn != nil {
		return f.updateIDFn(ctx, actor, profileID, req)
	}
	return profile.View{}, nil
}

func (f *fakeProfiles) Delete(ctx context.Context, actor identity.Actor, profileID int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, actor, profileID)
	}
	return nil
}

type fakeAccounts struct {
	registerFn func(ctx context.Context, req identity.CreateIdentityRequest) (identity.Identity, error)
	loginFn    func(ctx context.Context, username, password string) (identity.Identity, auth.Issued, error)
	logoutFn   func(ctx context.Context, token string) error
}

func (f *fakeAccounts) Register(ctx context.Context, req identity.CreateIdentityRequest) (identity.Identity, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, req)
	}
	return identity.Identity{}, nil
}

func (f *fakeAccounts) Login(ctx context.Context, username, password string) (identity.Identity, auth.Issued, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, username, password)
	}
	return identity.Identity{}, auth.Issued{}, nil
}

func (f *fakeAccounts) Logout(ctx context.Context, token string) error {
	if f.logoutFn != nil {
		return f.logoutFn(ctx, token)
	}
	return nil
}

type fakeCategories struct {
	listFn   func(ctx context.Context) ([]catalog.Category, error)
	createFn func(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error)
}

func (f *fakeCategories) List(ctx context.Context) ([]catalog.Category, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []catalog.Category{}, nil
}

func (f *fakeCategories) Create(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return catalog.Category{}, nil
}

type fakeCatalog struct {
	listVideosFn func(ctx context.Context, f catalog.VideoFilter, afterCreatedAt time.Time, afterID int64) ([]catalog.Video, bool, error)
	getVideoFn   func(ctx context.Context, id int64) (catalog.Video, error)
	klaapFn      func(ctx context.Context, f catalog.KlaapeningFilter) ([]catalog.Klaapening, error)
	purchasesFn  func(ctx context.Context, buyerID int64) ([]catalog.Purchase, error)
	reviewsFn    func(ctx context.Context, creatorID int64) ([]catalog.Review, error)
}

func (f *fakeCatalog) ListVideos(ctx context.Context, vf catalog.VideoFilter, afterCreatedAt time.Time, afterID int64) ([]catalog.Video, bool, error) {
	if f.listVideosFn != nil {
		return f.listVideosFn(ctx, vf, afterCreatedAt, afterID)
	}
	return []catalog.Video{}, false, nil
}

func (f *fakeCatalog) GetVideo(ctx context.Context, id int64) (catalog.Video, error) {
	if f.getVideoFn != nil {
		return f.getVideoFn(ctx, id)
	}
	return catalog.Video{}, nil
}

func (f *fakeCatalog) ListKlaapenings(ctx context.Context, kf catalog.KlaapeningFilter) ([]catalog.Klaapening, error) {
	if f.klaapFn != nil {
		return f.klaapFn(ctx, kf)
	}
	return []catalog.Klaapening{}, nil
}

func (f *fakeCatalog) ListLiveSessions(ctx context.Context, activeOnly bool) ([]catalog.LiveSession, error) {
	return []catalog.LiveSession{}, nil
}

func (f *fakeCatalog) ListPurchasesByBuyer(ctx context.Context, buyerID int64) ([]catalog.Purchase, error) {
	if f.purchasesFn != nil {
		return f.purchasesFn(ctx, buyerID)
	}
	return []catalog.Purchase{}, nil
}

func (f *fakeCatalog) ListBookingsByUser(ctx context.Context, userID int64) ([]catalog.LiveSessionBooking, error) {
	return []catalog.LiveSessionBooking{}, nil
}

func (f *fakeCatalog) ListReviewsForCreator(ctx context.Context, creatorID int64) ([]catalog.Review, error) {
	if f.reviewsFn != nil {
		return f.reviewsFn(ctx, creatorID)
	}
	return []catalog.Review{}, nil
}

// withActor stands in for RequireAuth.
func withActor(actor identity.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxActor, actor)
		c.Next()
	}
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}
