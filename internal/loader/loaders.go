package loader

import (
	"context"

	"github.com/terra456/rsschool-graphql/internal/model"
	"github.com/terra456/rsschool-graphql/internal/repository"
)

// バッチの種別名。メトリクスのラベルとして使われる。
const (
	KindUser           = "user"
	KindPost           = "post"
	KindPostsByAuthor  = "posts_by_author"
	KindProfile        = "profile"
	KindProfileByUser  = "profile_by_user"
	KindMemberType     = "member_type"
	KindSubscribedTo   = "subscribed_to"
	KindSubscribers    = "subscribers"
)

// Repos はローダー一式が依存するStore Clientをまとめた構造体。
type Repos struct {
	Users         repository.UserRepository
	Posts         repository.PostRepository
	Profiles      repository.ProfileRepository
	MemberTypes   repository.MemberTypeRepository
	Subscriptions repository.SubscriptionRepository
}

// Loaders は1つの受信クエリに紐づくローダー一式。
// クエリ開始時に生成し、成否に関わらずクエリ終了とともに破棄する。
// クエリをまたいで参照・共有してはならない。
type Loaders struct {
	// Users はユーザーのID指定ロード。
	Users *Batcher[string, *model.User]
	// Posts は投稿のID指定ロード。
	Posts *Batcher[string, *model.Post]
	// PostsByAuthor は著者IDをキーとする投稿の一括スキャン（1:N）。
	PostsByAuthor *Batcher[string, []*model.Post]
	// Profiles はプロフィールのID指定ロード。
	Profiles *Batcher[string, *model.Profile]
	// ProfilesByUser はユーザーIDをキーとするプロフィールのロード（1:1）。
	ProfilesByUser *Batcher[string, *model.Profile]
	// MemberTypes は会員種別のID指定ロード。
	MemberTypes *Batcher[string, *model.MemberType]
	// SubscribedTo は購読者IDをキーとするエッジスキャン（userSubscribedTo第1段）。
	SubscribedTo *Batcher[string, []*model.Subscription]
	// Subscribers は著者IDをキーとするエッジスキャン（subscribedToUser第1段）。
	Subscribers *Batcher[string, []*model.Subscription]
}

// NewLoaders はローダー一式を生成する。
// obsはnil可（メトリクスを収集しない）。
func NewLoaders(repos Repos, cfg Config, obs Observer) *Loaders {
	return &Loaders{
		Users:          NewBatcher(KindUser, entityBatch(repos.Users.FindByIDs), cfg, obs),
		Posts:          NewBatcher(KindPost, entityBatch(repos.Posts.FindByIDs), cfg, obs),
		PostsByAuthor:  NewBatcher(KindPostsByAuthor, entityBatch(repos.Posts.FindByAuthorIDs), cfg, obs),
		Profiles:       NewBatcher(KindProfile, entityBatch(repos.Profiles.FindByIDs), cfg, obs),
		ProfilesByUser: NewBatcher(KindProfileByUser, entityBatch(repos.Profiles.FindByUserIDs), cfg, obs),
		MemberTypes:    NewBatcher(KindMemberType, entityBatch(repos.MemberTypes.FindByIDs), cfg, obs),
		SubscribedTo:   NewBatcher(KindSubscribedTo, entityBatch(repos.Subscriptions.FindBySubscriberIDs), cfg, obs),
		Subscribers:    NewBatcher(KindSubscribers, entityBatch(repos.Subscriptions.FindByAuthorIDs), cfg, obs),
	}
}

// entityBatch はStore Clientの一括取得（キー→値のマップ、存在する行のみ）を
// BatchFuncに適合させる。マップに含まれるキーはFound=trueで包み、
// 含まれないキーの欠損表現はBatcher側に任せる。
func entityBatch[V any](fetch func(ctx context.Context, keys []string) (map[string]V, error)) BatchFunc[string, V] {
	return func(ctx context.Context, keys []string) (map[string]Result[V], error) {
		rows, err := fetch(ctx, keys)
		if err != nil {
			return nil, err
		}
		out := make(map[string]Result[V], len(rows))
		for k, v := range rows {
			out[k] = Result[V]{Value: v, Found: true}
		}
		return out, nil
	}
}
