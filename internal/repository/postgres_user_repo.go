package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/terra456/rsschool-graphql/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByIDs は指定ID集合のユーザーを一括取得する。
// 存在しないIDはマップに含まれない。
func (r *PostgresUserRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, balance FROM users WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find users by IDs: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*model.User, len(ids))
	for rows.Next() {
		user := &model.User{}
		if err := rows.Scan(&user.ID, &user.Name, &user.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return result, nil
}

// FindAll は全ユーザーを取得する。
func (r *PostgresUserRepo) FindAll(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, balance FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find all users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		if err := rows.Scan(&user.ID, &user.Name, &user.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, balance) VALUES ($1, $2, $3)`,
		user.ID, user.Name, user.Balance,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update はユーザーを上書き更新する。行が存在しない場合はエラーを返す。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $2, balance = $3 WHERE id = $1`,
		user.ID, user.Name, user.Balance,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRowAffected(result, model.NewUserNotFoundError(user.ID))
}

// Delete は指定IDのユーザーを削除する。
// 関連するposts、profile、購読エッジはCASCADE削除される。
func (r *PostgresUserRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRowAffected(result, model.NewUserNotFoundError(id))
}

// requireRowAffected は更新・削除が1行以上に作用したことを確認する。
// 0行の場合は「行が存在しない」を表すnotFoundエラーを返す。
func requireRowAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
