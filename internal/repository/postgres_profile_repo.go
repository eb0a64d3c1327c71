package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/terra456/rsschool-graphql/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

const profileColumns = `id, is_male, year_of_birth, user_id, member_type_id`

func scanProfile(rows *sql.Rows) (*model.Profile, error) {
	profile := &model.Profile{}
	err := rows.Scan(
		&profile.ID, &profile.IsMale, &profile.YearOfBirth,
		&profile.UserID, &profile.MemberTypeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return profile, nil
}

// FindByIDs は指定ID集合のプロフィールを一括取得する。
func (r *PostgresProfileRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find profiles by IDs: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*model.Profile, len(ids))
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result[profile.ID] = profile
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return result, nil
}

// FindByUserIDs はユーザーID集合に対するプロフィールの一括取得。
// user_idのUNIQUE制約により1ユーザーにつき最大1件が返る。
func (r *PostgresProfileRepo) FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ANY($1)`,
		pq.Array(userIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find profiles by user IDs: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*model.Profile, len(userIDs))
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result[profile.UserID] = profile
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return result, nil
}

// FindAll は全プロフィールを取得する。
func (r *PostgresProfileRepo) FindAll(ctx context.Context) ([]*model.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find all profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return profiles, nil
}

// Create はプロフィールを作成する。
// user_idのUNIQUE制約違反はPROFILE_EXISTS、外部キー違反は参照先不明のエラーとして返す。
func (r *PostgresProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, is_male, year_of_birth, user_id, member_type_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		profile.ID, profile.IsMale, profile.YearOfBirth, profile.UserID, profile.MemberTypeID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewProfileExistsError(profile.UserID)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("profile references missing row: %w", err)
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// Update はプロフィールを上書き更新する。行が存在しない場合はエラーを返す。
func (r *PostgresProfileRepo) Update(ctx context.Context, profile *model.Profile) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET is_male = $2, year_of_birth = $3, member_type_id = $4 WHERE id = $1`,
		profile.ID, profile.IsMale, profile.YearOfBirth, profile.MemberTypeID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireRowAffected(result, model.NewProfileNotFoundError(profile.ID))
}

// Delete は指定IDのプロフィールを削除する。行が存在しない場合はエラーを返す。
func (r *PostgresProfileRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM profiles WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return requireRowAffected(result, model.NewProfileNotFoundError(id))
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
