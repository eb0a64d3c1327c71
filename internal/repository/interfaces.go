// Package repository はデータ永続化のインターフェースを定義する。
//
// 読み取り系はバッチスケジューラからの一括呼び出しを前提とし、
// キー集合を受け取ってキー→エンティティのマップを返す。
// マップに含まれないキーは「行が存在しない」ことを意味する（エラーではない）。
// 書き込み系は単一行のパススルーコマンドで、バッチングの対象外。
package repository

import (
	"context"

	"github.com/terra456/rsschool-graphql/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByIDs は指定ID集合のユーザーを一括取得する。
	// 戻り値のマップは存在する行のみを含む。IDは重複なしを前提とする。
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)

	// FindAll は全ユーザーを取得する。
	FindAll(ctx context.Context) ([]*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーを上書き更新する。行が存在しない場合はエラーを返す。
	Update(ctx context.Context, user *model.User) error

	// Delete は指定IDのユーザーを削除する。
	// 関連するposts、profile、購読エッジはCASCADE削除される。
	// 行が存在しない場合はエラーを返す。
	Delete(ctx context.Context, id string) error
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// FindByIDs は指定ID集合の投稿を一括取得する。
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.Post, error)

	// FindByAuthorIDs は著者ID集合に対する投稿の一括スキャン（1:N）。
	// 戻り値は著者ID→投稿列のマップで、投稿を持たない著者はマップに含まれない。
	FindByAuthorIDs(ctx context.Context, authorIDs []string) (map[string][]*model.Post, error)

	// FindAll は全投稿を取得する。
	FindAll(ctx context.Context) ([]*model.Post, error)

	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// Update は投稿を上書き更新する。行が存在しない場合はエラーを返す。
	Update(ctx context.Context, post *model.Post) error

	// Delete は指定IDの投稿を削除する。行が存在しない場合はエラーを返す。
	Delete(ctx context.Context, id string) error
}

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// FindByIDs は指定ID集合のプロフィールを一括取得する。
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.Profile, error)

	// FindByUserIDs はユーザーID集合に対するプロフィールの一括取得。
	// user_idのUNIQUE制約により1ユーザーにつき最大1件。
	FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error)

	// FindAll は全プロフィールを取得する。
	FindAll(ctx context.Context) ([]*model.Profile, error)

	// Create はプロフィールを作成する。
	// ユーザーが既にプロフィールを持つ場合は model.ErrCodeProfileExists を返す。
	Create(ctx context.Context, profile *model.Profile) error

	// Update はプロフィールを上書き更新する。行が存在しない場合はエラーを返す。
	Update(ctx context.Context, profile *model.Profile) error

	// Delete は指定IDのプロフィールを削除する。行が存在しない場合はエラーを返す。
	Delete(ctx context.Context, id string) error
}

// MemberTypeRepository は会員種別（静的参照データ）の読み取りインターフェース。
type MemberTypeRepository interface {
	// FindByIDs は指定ID集合の会員種別を一括取得する。
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.MemberType, error)

	// FindAll は全会員種別を取得する。
	FindAll(ctx context.Context) ([]*model.MemberType, error)
}

// SubscriptionRepository は購読エッジの永続化インターフェース。
// 多対多関係は2段階（エッジスキャン→反対側IDのロード）で解決されるため、
// 読み取りは両端それぞれをキーとする一括スキャンを提供する。
type SubscriptionRepository interface {
	// FindBySubscriberIDs は購読者ID集合に対するエッジの一括スキャン。
	FindBySubscriberIDs(ctx context.Context, subscriberIDs []string) (map[string][]*model.Subscription, error)

	// FindByAuthorIDs は著者ID集合に対するエッジの一括スキャン。
	FindByAuthorIDs(ctx context.Context, authorIDs []string) (map[string][]*model.Subscription, error)

	// Create は購読エッジを作成する。
	// 同一ペアが既に存在する場合は model.ErrCodeDuplicateSub を返す。
	Create(ctx context.Context, sub *model.Subscription) error

	// Delete は購読エッジを削除する。エッジが存在しない場合はエラーを返す。
	Delete(ctx context.Context, subscriberID, authorID string) error
}
