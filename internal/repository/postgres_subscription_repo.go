package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/terra456/rsschool-graphql/internal/model"
)

// PostgresSubscriptionRepo はPostgreSQLを使用した購読エッジリポジトリ。
type PostgresSubscriptionRepo struct {
	db *sql.DB
}

// NewPostgresSubscriptionRepo はPostgresSubscriptionRepoを生成する。
func NewPostgresSubscriptionRepo(db *sql.DB) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{db: db}
}

// FindBySubscriberIDs は購読者ID集合に対するエッジの一括スキャン。
func (r *PostgresSubscriptionRepo) FindBySubscriberIDs(ctx context.Context, subscriberIDs []string) (map[string][]*model.Subscription, error) {
	return r.findEdges(ctx,
		`SELECT subscriber_id, author_id FROM subscribers_on_authors
		 WHERE subscriber_id = ANY($1) ORDER BY author_id`,
		subscriberIDs,
		func(sub *model.Subscription) string { return sub.SubscriberID },
	)
}

// FindByAuthorIDs は著者ID集合に対するエッジの一括スキャン。
func (r *PostgresSubscriptionRepo) FindByAuthorIDs(ctx context.Context, authorIDs []string) (map[string][]*model.Subscription, error) {
	return r.findEdges(ctx,
		`SELECT subscriber_id, author_id FROM subscribers_on_authors
		 WHERE author_id = ANY($1) ORDER BY subscriber_id`,
		authorIDs,
		func(sub *model.Subscription) string { return sub.AuthorID },
	)
}

// findEdges はエッジスキャンの共通処理。keyFnでグループ化キーとなる端点を選ぶ。
func (r *PostgresSubscriptionRepo) findEdges(
	ctx context.Context,
	query string,
	keys []string,
	keyFn func(*model.Subscription) string,
) (map[string][]*model.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription edges: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]*model.Subscription, len(keys))
	for rows.Next() {
		sub := &model.Subscription{}
		if err := rows.Scan(&sub.SubscriberID, &sub.AuthorID); err != nil {
			return nil, fmt.Errorf("failed to scan subscription edge: %w", err)
		}
		k := keyFn(sub)
		result[k] = append(result[k], sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscription edges: %w", err)
	}

	return result, nil
}

// Create は購読エッジを作成する。
// 複合主キー違反はDUPLICATE_SUBSCRIPTION、外部キー違反はユーザー不明のエラーとして返す。
func (r *PostgresSubscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscribers_on_authors (subscriber_id, author_id) VALUES ($1, $2)`,
		sub.SubscriberID, sub.AuthorID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDuplicateSubscriptionError()
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("subscription references missing user: %w", err)
		}
		return fmt.Errorf("failed to insert subscription edge: %w", err)
	}
	return nil
}

// Delete は購読エッジを削除する。エッジが存在しない場合はエラーを返す。
func (r *PostgresSubscriptionRepo) Delete(ctx context.Context, subscriberID, authorID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM subscribers_on_authors WHERE subscriber_id = $1 AND author_id = $2`,
		subscriberID, authorID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete subscription edge: %w", err)
	}
	return requireRowAffected(result, model.NewSubscriptionNotFoundError())
}

// compile-time interface check
var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
