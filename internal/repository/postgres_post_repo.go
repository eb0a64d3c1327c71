package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/terra456/rsschool-graphql/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// FindByIDs は指定ID集合の投稿を一括取得する。
func (r *PostgresPostRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, author_id FROM posts WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find posts by IDs: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*model.Post, len(ids))
	for rows.Next() {
		post := &model.Post{}
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.AuthorID); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		result[post.ID] = post
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return result, nil
}

// FindByAuthorIDs は著者ID集合に対する投稿の一括スキャン。
// 1回のクエリで全著者分を取得し、著者IDでグループ化して返す。
func (r *PostgresPostRepo) FindByAuthorIDs(ctx context.Context, authorIDs []string) (map[string][]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, author_id FROM posts WHERE author_id = ANY($1) ORDER BY id`,
		pq.Array(authorIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find posts by author IDs: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]*model.Post, len(authorIDs))
	for rows.Next() {
		post := &model.Post{}
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.AuthorID); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		result[post.AuthorID] = append(result[post.AuthorID], post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return result, nil
}

// FindAll は全投稿を取得する。
func (r *PostgresPostRepo) FindAll(ctx context.Context) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, author_id FROM posts ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find all posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post := &model.Post{}
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.AuthorID); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// Create は投稿を作成する。著者が存在しない場合は外部キー違反をエラーとして返す。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, author_id) VALUES ($1, $2, $3, $4)`,
		post.ID, post.Title, post.Content, post.AuthorID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.NewUserNotFoundError(post.AuthorID)
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Update は投稿を上書き更新する。行が存在しない場合はエラーを返す。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = $2, content = $3, author_id = $4 WHERE id = $1`,
		post.ID, post.Title, post.Content, post.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return requireRowAffected(result, model.NewPostNotFoundError(post.ID))
}

// Delete は指定IDの投稿を削除する。行が存在しない場合はエラーを返す。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return requireRowAffected(result, model.NewPostNotFoundError(id))
}

// isForeignKeyViolation はPostgreSQLの外部キー制約違反（23503）かを判定する。
func isForeignKeyViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23503"
	}
	return false
}

// isUniqueViolation はPostgreSQLの一意制約違反（23505）かを判定する。
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
