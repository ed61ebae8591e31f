package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/klaape/klaape-api/internal/domain/catalog"
)

type CatalogRepo struct {
	db  DB
	obs Observer
}

func NewCatalogRepo(db DB, obs Observer) *CatalogRepo {
	return &CatalogRepo{db: db, obs: observerOrNoop(obs)}
}

const videoColumns = `id, creator_id, title, description, category_id, video_file, thumbnail, created_at, is_premium, price, view_count`

// ListVideos pages newest first. A zero afterCreatedAt starts from the top.
// The returned bool reports whether another page exists.
func (r *CatalogRepo) ListVideos(ctx context.Context, f catalog.VideoFilter, afterCreatedAt time.Time, afterID int64) ([]catalog.Video, bool, error) {
	var conds []string
	var args []any
	argsPosition := 1

	if f.CategoryID != nil {
		conds = append(conds, fmt.Sprintf("category_id = $%d", argsPosition))
		args = append(args, *f.CategoryID)
		argsPosition++
	}

	if f.CreatorID != nil {
		conds = append(conds, fmt.Sprintf("creator_id = $%d", argsPosition))
		args = append(args, *f.CreatorID)
		argsPosition++
	}

	if !afterCreatedAt.IsZero() {
		conds = append(conds, fmt.Sprintf("(created_at, id) < ($%d, $%d)", argsPosition, argsPosition+1))
		args = append(args, afterCreatedAt, afterID)
		argsPosition += 2
	}

	query := `SELECT ` + videoColumns + ` FROM videos`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// fetch one extra row to learn whether a next page exists
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argsPosition)
	args = append(args, f.Limit+1)

	out := make([]catalog.Video, 0, f.Limit)

	err := r.obs.ObserveDB("videos.list", func() error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var v catalog.Video
			if err := scanVideo(rows, &v); err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, false, err
	}

	hasMore := len(out) > f.Limit
	if hasMore {
		out = out[:f.Limit]
	}
	return out, hasMore, nil
}

func (r *CatalogRepo) GetVideo(ctx context.Context, id int64) (catalog.Video, error) {
	var v catalog.Video

	err := r.obs.ObserveDB("videos.get", func() error {
		return scanVideo(r.db.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id), &v)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Video{}, catalog.ErrNotFound
		}
		return catalog.Video{}, err
	}
	return v, nil
}

func scanVideo(row pgx.Row, v *catalog.Video) error {
	return row.Scan(&v.ID, &v.CreatorID, &v.Title, &v.Description, &v.CategoryID, &v.VideoFile,
		&v.Thumbnail, &v.CreatedAt, &v.IsPremium, &v.Price, &v.ViewCount)
}

func (r *CatalogRepo) ListKlaapenings(ctx context.Context, f catalog.KlaapeningFilter) ([]catalog.Klaapening, error) {
	var conds []string
	var args []any
	argsPosition := 1

	if f.ContentType != nil {
		conds = append(conds, fmt.Sprintf("content_type = $%d", argsPosition))
		args = append(args, string(*f.ContentType))
		argsPosition++
	}
	if f.CreatorID != nil {
		conds = append(conds, fmt.Sprintf("creator_id = $%d", argsPosition))
		args = append(args, *f.CreatorID)
		argsPosition++
	}

	query := `SELECT id, creator_id, content_type, text, media, created_at, like_count, comment_count FROM klaapenings`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argsPosition)
	args = append(args, f.Limit)

	out := make([]catalog.Klaapening, 0)

	err := r.obs.ObserveDB("klaapenings.list", func() error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var k catalog.Klaapening
			var contentType string
			if err := rows.Scan(&k.ID, &k.CreatorID, &contentType, &k.Text, &k.Media, &k.CreatedAt, &k.LikeCount, &k.CommentCount); err != nil {
				return err
			}
			k.ContentType = catalog.KlaapeningType(contentType)
			out = append(out, k)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepo) ListLiveSessions(ctx context.Context, activeOnly bool) ([]catalog.LiveSession, error) {
	query := `SELECT id, expert_id, title, description, category_id, price_per_minute, is_active, scheduled_for, started_at, ended_at
	FROM live_sessions`
	if activeOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY scheduled_for ASC NULLS LAST, id ASC"

	out := make([]catalog.LiveSession, 0)

	err := r.obs.ObserveDB("live_sessions.list", func() error {
		rows, err := r.db.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s catalog.LiveSession
			if err := rows.Scan(&s.ID, &s.ExpertID, &s.Title, &s.Description, &s.CategoryID, &s.PricePerMinute,
				&s.IsActive, &s.ScheduledFor, &s.StartedAt, &s.EndedAt); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepo) ListPurchasesByBuyer(ctx context.Context, buyerID int64) ([]catalog.Purchase, error) {
	out := make([]catalog.Purchase, 0)

	err := r.obs.ObserveDB("purchases.list_by_buyer", func() error {
		rows, err := r.db.Query(ctx,
			`SELECT id, buyer_id, video_id, amount, transaction_id, purchased_at
			FROM purchases WHERE buyer_id = $1 ORDER BY purchased_at DESC, id DESC`,
			buyerID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p catalog.Purchase
			if err := rows.Scan(&p.ID, &p.BuyerID, &p.VideoID, &p.Amount, &p.TransactionID, &p.PurchasedAt); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepo) ListBookingsByUser(ctx context.Context, userID int64) ([]catalog.LiveSessionBooking, error) {
	out := make([]catalog.LiveSessionBooking, 0)

	err := r.obs.ObserveDB("bookings.list_by_user", func() error {
		rows, err := r.db.Query(ctx,
			`SELECT id, session_id, user_id, status, duration_minutes, total_amount, booked_at
			FROM live_session_bookings WHERE user_id = $1 ORDER BY booked_at DESC, id DESC`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var b catalog.LiveSessionBooking
			var status string
			if err := rows.Scan(&b.ID, &b.SessionID, &b.UserID, &status, &b.DurationMinutes, &b.TotalAmount, &b.BookedAt); err != nil {
				return err
			}
			b.Status = catalog.BookingStatus(status)
			out = append(out, b)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepo) ListReviewsForCreator(ctx context.Context, creatorID int64) ([]catalog.Review, error) {
	out := make([]catalog.Review, 0)

	err := r.obs.ObserveDB("reviews.list_for_creator", func() error {
		rows, err := r.db.Query(ctx,
			`SELECT id, reviewer_id, content_creator_id, video_id, live_session_id, rating, comment, created_at
			FROM reviews WHERE content_creator_id = $1 ORDER BY created_at DESC, id DESC`,
			creatorID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rv catalog.Review
			if err := rows.Scan(&rv.ID, &rv.ReviewerID, &rv.CreatorID, &rv.VideoID, &rv.LiveSessionID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
				return err
			}
			out = append(out, rv)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}
