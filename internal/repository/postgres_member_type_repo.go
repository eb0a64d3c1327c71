package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/terra456/rsschool-graphql/internal/model"
)

// PostgresMemberTypeRepo はPostgreSQLを使用した会員種別リポジトリ。
// 会員種別はマイグレーションで投入される静的参照データのため、読み取り操作のみを持つ。
type PostgresMemberTypeRepo struct {
	db *sql.DB
}

// NewPostgresMemberTypeRepo はPostgresMemberTypeRepoを生成する。
func NewPostgresMemberTypeRepo(db *sql.DB) *PostgresMemberTypeRepo {
	return &PostgresMemberTypeRepo{db: db}
}

// FindByIDs は指定ID集合の会員種別を一括取得する。
// 閉じた列挙に含まれないIDはマップに含まれず、エラーへの昇格は呼び出し側が決める。
func (r *PostgresMemberTypeRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.MemberType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, discount, posts_limit_per_month FROM member_types WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find member types by IDs: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*model.MemberType, len(ids))
	for rows.Next() {
		mt := &model.MemberType{}
		if err := rows.Scan(&mt.ID, &mt.Discount, &mt.PostsLimitPerMonth); err != nil {
			return nil, fmt.Errorf("failed to scan member type: %w", err)
		}
		result[mt.ID] = mt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member types: %w", err)
	}

	return result, nil
}

// FindAll は全会員種別を取得する。
func (r *PostgresMemberTypeRepo) FindAll(ctx context.Context) ([]*model.MemberType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, discount, posts_limit_per_month FROM member_types ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find all member types: %w", err)
	}
	defer rows.Close()

	var memberTypes []*model.MemberType
	for rows.Next() {
		mt := &model.MemberType{}
		if err := rows.Scan(&mt.ID, &mt.Discount, &mt.PostsLimitPerMonth); err != nil {
			return nil, fmt.Errorf("failed to scan member type: %w", err)
		}
		memberTypes = append(memberTypes, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member types: %w", err)
	}

	return memberTypes, nil
}

// compile-time interface check
var _ MemberTypeRepository = (*PostgresMemberTypeRepo)(nil)
