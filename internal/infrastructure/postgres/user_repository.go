package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/luminhq/user-service/internal/domain/entity"
	"github.com/luminhq/user-service/internal/domain/repository"
)

const userColumns = `user_id, first_name, last_name, birth_date, phone, email,
		language_code, bio, avatar_url,
		avatar_visibility, birth_date_visibility, phone_visibility, email_visibility,
		profile_views, status, version, created_at, updated_at`

// UserRepository issues single-row statements against Postgres and keeps the
// multi-level cache coherent with every write.
type UserRepository struct {
	pool   *pgxpool.Pool
	idmap  *IdentityMap
	cache  *MultiLevelCache
	mapper UserMapper
	log    *logrus.Logger
}

func NewUserRepository(pool *pgxpool.Pool, idmap *IdentityMap, cache *MultiLevelCache, log *logrus.Logger) *UserRepository {
	return &UserRepository{pool: pool, idmap: idmap, cache: cache, log: log}
}

// GetByID serves from the multi-level cache when possible; on miss it reads
// the row, populates the cache and registers the aggregate in the identity
// map.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if u := r.cache.GetUser(ctx, id); u != nil {
		return u, nil
	}

	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE user_id = $1
	`, id.String())

	rec, err := scanUserRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user %s: %w", id, err)
	}

	u, err := r.mapper.ToDomain(rec)
	if err != nil {
		return nil, err
	}
	r.cache.SetUser(ctx, id, rec)
	r.idmap.Add(u)
	return u, nil
}

// Save determines insert vs update with an existence check, writes the row in
// one transaction, then invalidates and repopulates the cache. The aggregate's
// event log is left untouched either way: after a committed save the events
// belong to the publisher, which drains and clears them.
func (r *UserRepository) Save(ctx context.Context, u *entity.User) error {
	rec := r.mapper.ToRecord(u)

	if err := r.writeRow(ctx, u.ID(), rec); err != nil {
		// The cached copy may now be ahead of the rolled-back row.
		r.cache.InvalidateUser(ctx, u.ID())
		return err
	}

	r.cache.InvalidateUser(ctx, u.ID())
	r.cache.SetUser(ctx, u.ID(), rec)
	r.idmap.Add(u)
	return nil
}

func (r *UserRepository) writeRow(ctx context.Context, id uuid.UUID, rec *UserRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save of user %s: %w", id, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Existence check and write are two statements; concurrent saves for the
	// same id can lose an update. Accepted under the one-writer-per-request
	// unit-of-work model.
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, rec.UserID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check user %s: %w", id, err)
	}

	avatarVis, birthVis, phoneVis, emailVis, views, err := marshalJSONColumns(rec)
	if err != nil {
		return err
	}

	if exists {
		_, err = tx.Exec(ctx, `
			UPDATE users SET
				first_name = $2, last_name = $3, birth_date = $4, phone = $5,
				email = $6, language_code = $7, bio = $8, avatar_url = $9,
				avatar_visibility = $10, birth_date_visibility = $11,
				phone_visibility = $12, email_visibility = $13,
				profile_views = $14, status = $15, version = $16, updated_at = $17
			WHERE user_id = $1
		`, rec.UserID, rec.FirstName, rec.LastName, rec.BirthDate, rec.Phone,
			rec.Email, rec.LanguageCode, rec.Bio, rec.AvatarURL,
			avatarVis, birthVis, phoneVis, emailVis,
			views, rec.Status, rec.Version, rec.UpdatedAt)
	} else {
		_, err = tx.Exec(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`, rec.UserID, rec.FirstName, rec.LastName, rec.BirthDate, rec.Phone,
			rec.Email, rec.LanguageCode, rec.Bio, rec.AvatarURL,
			avatarVis, birthVis, phoneVis, emailVis,
			views, rec.Status, rec.Version, rec.CreatedAt, rec.UpdatedAt)
	}
	if err != nil {
		return fmt.Errorf("write user %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save of user %s: %w", id, err)
	}
	return nil
}

// Delete removes the row, then evicts both cache tiers. On store error the
// cache and identity map are left untouched: the caller treats the user as
// still present.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, id.String()); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	r.cache.InvalidateUser(ctx, id)
	r.idmap.Remove(id)
	r.log.WithField("user_id", id).Debug("user deleted from store and cache")
	return nil
}

func scanUserRecord(row pgx.Row) (*UserRecord, error) {
	var (
		rec                                            UserRecord
		avatarVis, birthVis, phoneVis, emailVis, views []byte
	)
	if err := row.Scan(
		&rec.UserID, &rec.FirstName, &rec.LastName, &rec.BirthDate, &rec.Phone,
		&rec.Email, &rec.LanguageCode, &rec.Bio, &rec.AvatarURL,
		&avatarVis, &birthVis, &phoneVis, &emailVis,
		&views, &rec.Status, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	for _, col := range []struct {
		raw  []byte
		dest *VisibilityRecord
	}{
		{avatarVis, &rec.AvatarVisibility},
		{birthVis, &rec.BirthDateVisibility},
		{phoneVis, &rec.PhoneVisibility},
		{emailVis, &rec.EmailVisibility},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, fmt.Errorf("decode visibility column: %w", err)
		}
	}
	if len(views) > 0 {
		if err := json.Unmarshal(views, &rec.ProfileViews); err != nil {
			return nil, fmt.Errorf("decode profile_views column: %w", err)
		}
	}
	return &rec, nil
}

func marshalJSONColumns(rec *UserRecord) (avatarVis, birthVis, phoneVis, emailVis, views []byte, err error) {
	cols := []struct {
		value any
		dest  *[]byte
	}{
		{rec.AvatarVisibility, &avatarVis},
		{rec.BirthDateVisibility, &birthVis},
		{rec.PhoneVisibility, &phoneVis},
		{rec.EmailVisibility, &emailVis},
		{rec.ProfileViews, &views},
	}
	for _, c := range cols {
		b, mErr := json.Marshal(c.value)
		if mErr != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("encode json column: %w", mErr)
		}
		*c.dest = b
	}
	return avatarVis, birthVis, phoneVis, emailVis, views, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
