package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/klaape/klaape-api/internal/domain/catalog"
	"github.com/klaape/klaape-api/internal/domain/identity"
	"github.com/klaape/klaape-api/internal/domain/profile"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileCols = []string{
	"id", "identity_id", "role", "bio", "profile_picture", "hourly_rate",
	"is_verified_pro", "company_name", "industry", "created_at", "updated_at",
	"expertise", "uid", "username", "email", "first_name", "last_name", "is_staff",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func profileRow(id, identityID int64, role string, verified bool) *pgxmock.Rows {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return pgxmock.NewRows(profileCols).AddRow(
		id, identityID, role, "", (*string)(nil), (*float64)(nil),
		verified, "", "", now, now,
		[]int64{}, identityID, "alice", "", "", "", false,
	)
}

func TestIdentitiesCreateMapsUniqueViolation(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentitiesRepo(mock, nil)

	mock.ExpectQuery("INSERT INTO identities").
		WithArgs("alice", "", "", "", "hash", false).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	_, err := repo.Create(context.Background(), identity.Identity{Username: "alice", PasswordHash: "hash"})
	assert.ErrorIs(t, err, identity.ErrUsernameTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentitiesCreateReturnsID(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentitiesRepo(mock, nil)
	joined := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO identities").
		WithArgs("alice", "a@example.com", "Alice", "Smith", "hash", true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "date_joined"}).AddRow(int64(7), joined))

	u, err := repo.Create(context.Background(), identity.Identity{
		Username: "alice", Email: "a@example.com", FirstName: "Alice", LastName: "Smith",
		PasswordHash: "hash", IsStaff: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, joined, u.DateJoined)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentitiesGetByUsernameNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentitiesRepo(mock, nil)

	mock.ExpectQuery("FROM identities WHERE username").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, identity.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilesGetOrCreateExisting(t *testing.T) {
	mock := newMock(t)
	repo := NewProfilesRepo(mock, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM profiles p").WithArgs(int64(3)).WillReturnRows(profileRow(10, 3, "pro", false))
	mock.ExpectCommit()

	p, err := repo.GetOrCreate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.ID)
	assert.Equal(t, profile.RolePro, p.Role)
	assert.Equal(t, "alice", p.Owner.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilesGetOrCreateInsertsDefault(t *testing.T) {
	mock := newMock(t)
	repo := NewProfilesRepo(mock, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM profiles p").WithArgs(int64(3)).WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec("INSERT INTO profiles").
		WithArgs(int64(3), "regular").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("FROM profiles p").WithArgs(int64(3)).WillReturnRows(profileRow(11, 3, "regular", false))
	mock.ExpectCommit()

	p, err := repo.GetOrCreate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(11), p.ID)
	assert.Equal(t, profile.RoleRegular, p.Role)
	assert.Empty(t, p.Bio)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilesGetOrCreateUnknownIdentity(t *testing.T) {
	mock := newMock(t)
	repo := NewProfilesRepo(mock, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM profiles p").WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec("INSERT INTO profiles").
		WithArgs(int64(99), "regular").
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})
	mock.ExpectRollback()

	_, err := repo.GetOrCreate(context.Background(), 99)
	assert.ErrorIs(t, err, identity.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilesUpdateKeepsVerifiedProAndReplacesExpertise(t *testing.T) {
	mock := newMock(t)
	repo := NewProfilesRepo(mock, nil)
	bio := "hello"
	ids := []int64{4, 2}
	updatedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF p").WithArgs(int64(10)).WillReturnRows(profileRow(10, 3, "pro", true))
	mock.ExpectQuery("UPDATE profiles").
		WithArgs(int64(10), "pro", "hello", (*float64)(nil), "", "").
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(updatedAt))
	mock.ExpectExec("DELETE FROM profile_expertise").WithArgs(int64(10)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("INSERT INTO profile_expertise").WithArgs(int64(10), []int64{4, 2}).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	p, err := repo.Update(context.Background(), 10, profile.UpdateRequest{Bio: &bio, Expertise: &ids})
	require.NoError(t, err)
	assert.True(t, p.IsVerifiedPro)
	assert.Equal(t, "hello", p.Bio)
	assert.Equal(t, []int64{4, 2}, p.Expertise)
	assert.Equal(t, updatedAt, p.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilesUpdateUnknownCategory(t *testing.T) {
	mock := newMock(t)
	repo := NewProfilesRepo(mock, nil)
	ids := []int64{404}

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE OF p").WithArgs(int64(10)).WillReturnRows(profileRow(10, 3, "regular", false))
	mock.ExpectQuery("UPDATE profiles").
		WithArgs(int64(10), "regular", "", (*float64)(nil), "", "").
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec("DELETE FROM profile_expertise").WithArgs(int64(10)).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO profile_expertise").
		WithArgs(int64(10), []int64{404}).
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 10, profile.UpdateRequest{Expertise: &ids})
	assert.ErrorIs(t, err, catalog.ErrUnknownCategory)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilesDeleteNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProfilesRepo(mock, nil)

	mock.ExpectExec("DELETE FROM profiles").WithArgs(int64(5)).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 5), profile.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilesSetPicture(t *testing.T) {
	mock := newMock(t)
	repo := NewProfilesRepo(mock, nil)

	mock.ExpectExec("UPDATE profiles SET profile_picture").
		WithArgs(int64(10), "/media/profile_pictures/a.png").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("FROM profiles p").WithArgs(int64(10)).WillReturnRows(profileRow(10, 3, "regular", false))

	p, err := repo.SetPicture(context.Background(), 10, "/media/profile_pictures/a.png")
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilesListFiltersByOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewProfilesRepo(mock, nil)
	owner := int64(3)

	mock.ExpectQuery("WHERE p.identity_id = \\$1 ORDER BY p.id").
		WithArgs(int64(3)).
		WillReturnRows(profileRow(10, 3, "regular", false))

	items, err := repo.List(context.Background(), &owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].IdentityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogListVideosPagination(t *testing.T) {
	mock := newMock(t)
	repo := NewCatalogRepo(mock, nil)

	cols := []string{"id", "creator_id", "title", "description", "category_id", "video_file", "thumbnail", "created_at", "is_premium", "price", "view_count"}
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cat := int64(2)
	rows := pgxmock.NewRows(cols)
	for i := int64(3); i >= 1; i-- {
		rows.AddRow(i, int64(1), "v", "", &cat, "f.mp4", "t.png", t0.Add(time.Duration(i)*time.Minute), false, (*float64)(nil), 0)
	}

	after := t0.Add(time.Hour)
	mock.ExpectQuery(`category_id = \$1 AND \(created_at, id\) < \(\$2, \$3\) ORDER BY created_at DESC, id DESC LIMIT \$4`).
		WithArgs(int64(2), after, int64(50), 3).
		WillReturnRows(rows)

	items, hasMore, err := repo.ListVideos(context.Background(), catalog.VideoFilter{CategoryID: &cat, Limit: 2}, after, 50)
	require.NoError(t, err)
	assert.True(t, hasMore)
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].ID)
	assert.Equal(t, int64(2), items[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogGetVideoNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewCatalogRepo(mock, nil)

	mock.ExpectQuery("FROM videos WHERE id").WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetVideo(context.Background(), 9)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoriesList(t *testing.T) {
	mock := newMock(t)
	repo := NewCategoriesRepo(mock, nil)

	mock.ExpectQuery("FROM categories").WillReturnRows(
		pgxmock.NewRows([]string{"id", "name", "description"}).
			AddRow(int64(1), "Design", "").
			AddRow(int64(2), "Music", "beats"),
	)

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Music", items[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type recordingObserver struct{ ops []string }

func (o *recordingObserver) ObserveDB(op string, fn func() error) error {
	o.ops = append(o.ops, op)
	return fn()
}

func TestReposReportOperationsToObserver(t *testing.T) {
	mock := newMock(t)
	obs := &recordingObserver{}
	repo := NewIdentitiesRepo(mock, obs)

	mock.ExpectQuery("FROM identities WHERE id").WithArgs(int64(1)).WillReturnError(pgx.ErrNoRows)

	_, _ = repo.GetByID(context.Background(), 1)
	assert.Equal(t, []string{"identities.get_by_id"}, obs.ops)
}

var klaapeningCols = []string{"id", "creator_id", "content_type", "text", "media", "created_at", "like_count", "comment_count"}

func TestCatalogListKlaapeningsFilterPositions(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	showcase := catalog.KlaapeningShowcase
	creator := int64(4)
	media := "klaapenings/a.png"

	tests := []struct {
		name   string
		filter catalog.KlaapeningFilter
		query  string
		args   []any
	}{
		{
			name:   "no filter",
			filter: catalog.KlaapeningFilter{Limit: 20},
			query:  `FROM klaapenings ORDER BY created_at DESC, id DESC LIMIT \$1`,
			args:   []any{20},
		},
		{
			name:   "creator only",
			filter: catalog.KlaapeningFilter{CreatorID: &creator, Limit: 20},
			query:  `WHERE creator_id = \$1 ORDER BY created_at DESC, id DESC LIMIT \$2`,
			args:   []any{int64(4), 20},
		},
		{
			name:   "type and creator",
			filter: catalog.KlaapeningFilter{ContentType: &showcase, CreatorID: &creator, Limit: 5},
			query:  `WHERE content_type = \$1 AND creator_id = \$2 ORDER BY created_at DESC, id DESC LIMIT \$3`,
			args:   []any{"showcase", int64(4), 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewCatalogRepo(mock, nil)

			mock.ExpectQuery(tt.query).WithArgs(tt.args...).WillReturnRows(
				pgxmock.NewRows(klaapeningCols).
					AddRow(int64(2), int64(4), "showcase", "look", &media, t0, 3, 1).
					AddRow(int64(1), int64(4), "quick_tip", "tip", (*string)(nil), t0, 0, 0),
			)

			items, err := repo.ListKlaapenings(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Equal(t, catalog.KlaapeningShowcase, items[0].ContentType)
			require.NotNil(t, items[0].Media)
			assert.Equal(t, media, *items[0].Media)
			assert.Equal(t, 3, items[0].LikeCount)
			assert.Nil(t, items[1].Media)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCatalogListKlaapeningsQueryError(t *testing.T) {
	mock := newMock(t)
	repo := NewCatalogRepo(mock, nil)

	mock.ExpectQuery("FROM klaapenings").WithArgs(10).WillReturnError(&pgconn.PgError{Code: "57014"})

	_, err := repo.ListKlaapenings(context.Background(), catalog.KlaapeningFilter{Limit: 10})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogListLiveSessions(t *testing.T) {
	cols := []string{"id", "expert_id", "title", "description", "category_id", "price_per_minute", "is_active", "scheduled_for", "started_at", "ended_at"}
	when := time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)
	cat := int64(2)

	tests := []struct {
		name       string
		activeOnly bool
		query      string
	}{
		{name: "all", query: `FROM live_sessions ORDER BY scheduled_for ASC NULLS LAST, id ASC`},
		{name: "active only", activeOnly: true, query: `FROM live_sessions WHERE is_active ORDER BY scheduled_for ASC NULLS LAST, id ASC`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewCatalogRepo(mock, nil)

			mock.ExpectQuery(tt.query).WillReturnRows(
				pgxmock.NewRows(cols).
					AddRow(int64(1), int64(9), "Live drawing", "", &cat, 1.5, true, &when, (*time.Time)(nil), (*time.Time)(nil)),
			)

			items, err := repo.ListLiveSessions(context.Background(), tt.activeOnly)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, int64(9), items[0].ExpertID)
			assert.Equal(t, 1.5, items[0].PricePerMinute)
			require.NotNil(t, items[0].ScheduledFor)
			assert.True(t, when.Equal(*items[0].ScheduledFor))
			assert.Nil(t, items[0].StartedAt)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCatalogListPurchasesByBuyer(t *testing.T) {
	mock := newMock(t)
	repo := NewCatalogRepo(mock, nil)
	at := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	video := int64(12)

	mock.ExpectQuery(`FROM purchases WHERE buyer_id = \$1 ORDER BY purchased_at DESC, id DESC`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "buyer_id", "video_id", "amount", "transaction_id", "purchased_at"}).
			AddRow(int64(1), int64(5), &video, 9.99, "tx-1", at))

	items, err := repo.ListPurchasesByBuyer(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "tx-1", items[0].TransactionID)
	require.NotNil(t, items[0].VideoID)
	assert.Equal(t, int64(12), *items[0].VideoID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogListBookingsByUser(t *testing.T) {
	mock := newMock(t)
	repo := NewCatalogRepo(mock, nil)
	at := time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)
	minutes := 30
	total := 45.0

	mock.ExpectQuery(`FROM live_session_bookings WHERE user_id = \$1 ORDER BY booked_at DESC, id DESC`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "session_id", "user_id", "status", "duration_minutes", "total_amount", "booked_at"}).
			AddRow(int64(1), int64(3), int64(5), "completed", &minutes, &total, at).
			AddRow(int64(2), int64(4), int64(5), "pending", (*int)(nil), (*float64)(nil), at))

	items, err := repo.ListBookingsByUser(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, catalog.BookingCompleted, items[0].Status)
	require.NotNil(t, items[0].DurationMinutes)
	assert.Equal(t, 30, *items[0].DurationMinutes)
	assert.Equal(t, catalog.BookingPending, items[1].Status)
	assert.Nil(t, items[1].TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogListReviewsForCreator(t *testing.T) {
	mock := newMock(t)
	repo := NewCatalogRepo(mock, nil)
	at := time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC)
	video := int64(12)

	mock.ExpectQuery(`FROM reviews WHERE content_creator_id = \$1 ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "reviewer_id", "content_creator_id", "video_id", "live_session_id", "rating", "comment", "created_at"}).
			AddRow(int64(1), int64(5), int64(9), &video, (*int64)(nil), 4, "nice", at))

	items, err := repo.ListReviewsForCreator(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Rating)
	assert.Equal(t, int64(9), items[0].CreatorID)
	assert.Nil(t, items[0].LiveSessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// rateArg matches the hourly_rate parameter by value.
type rateArg struct{ want *float64 }

func (a rateArg) Match(v any) bool {
	got, ok := v.(*float64)
	if !ok {
		return false
	}
	if a.want == nil || got == nil {
		return a.want == nil && got == nil
	}
	return *a.want == *got
}

func TestProfilesUpdateHourlyRate(t *testing.T) {
	rate := 12.5

	tests := []struct {
		name string
		rate profile.Rate
		want *float64
	}{
		{name: "set", rate: profile.RateOf(12.5), want: &rate},
		{name: "explicit null clears", rate: profile.ClearRate(), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewProfilesRepo(mock, nil)

			mock.ExpectBegin()
			mock.ExpectQuery("FOR UPDATE OF p").WithArgs(int64(10)).WillReturnRows(profileRow(10, 3, "pro", false))
			mock.ExpectQuery("UPDATE profiles").
				WithArgs(int64(10), "pro", "", rateArg{want: tt.want}, "", "").
				WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
			mock.ExpectCommit()

			p, err := repo.Update(context.Background(), 10, profile.UpdateRequest{HourlyRate: tt.rate})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.HourlyRate)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
