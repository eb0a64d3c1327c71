package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/terra456/rsschool-graphql/internal/loader"
	"github.com/terra456/rsschool-graphql/internal/model"
)

// thunk はエグゼキュータに解決の遅延を伝える戻り値の型。
// 同一階層の全フィールドが登録を終えてから評価される。
type thunk = func() (interface{}, error)

// resolveUserByID はIDでユーザーを解決する。存在しない場合はnull。
func resolveUserByID(p graphql.ResolveParams) (interface{}, error) {
	loaders, err := loader.FromContext(p.Context)
	if err != nil {
		return nil, err
	}
	id := p.Args["id"].(string)

	wait := loaders.Users.LoadThunk(p.Context, id)
	return thunk(func() (interface{}, error) {
		user, found, err := wait()
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return user, nil
	}), nil
}

// resolvePostByID はIDで投稿を解決する。存在しない場合はnull。
func resolvePostByID(p graphql.ResolveParams) (interface{}, error) {
	loaders, err := loader.FromContext(p.Context)
	if err != nil {
		return nil, err
	}
	id := p.Args["id"].(string)

	wait := loaders.Posts.LoadThunk(p.Context, id)
	return thunk(func() (interface{}, error) {
		post, found, err := wait()
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return post, nil
	}), nil
}

// resolveProfileByID はIDでプロフィールを解決する。存在しない場合はnull。
func resolveProfileByID(p graphql.ResolveParams) (interface{}, error) {
	loaders, err := loader.FromContext(p.Context)
	if err != nil {
		return nil, err
	}
	id := p.Args["id"].(string)

	wait := loaders.Profiles.LoadThunk(p.Context, id)
	return thunk(func() (interface{}, error) {
		profile, found, err := wait()
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return profile, nil
	}), nil
}

// resolveMemberTypeByID はIDで会員種別を解決する。
// IDは列挙でコアーション済みのため、欠損はシードデータの破損を意味する。
func resolveMemberTypeByID(p graphql.ResolveParams) (interface{}, error) {
	loaders, err := loader.FromContext(p.Context)
	if err != nil {
		return nil, err
	}
	id := p.Args["id"].(string)

	wait := loaders.MemberTypes.LoadThunk(p.Context, id)
	return thunk(func() (interface{}, error) {
		mt, found, err := wait()
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, model.NewMemberTypeUnknownError(id)
		}
		return mt, nil
	}), nil
}

// resolveUserProfile はuser.profileを解決する（1:1、存在しない場合はnull）。
func resolveUserProfile(p graphql.ResolveParams) (interface{}, error) {
	loaders, err := loader.FromContext(p.Context)
	if err != nil {
		return nil, err
	}
	user := p.Source.(*model.User)

	wait := loaders.ProfilesByUser.LoadThunk(p.Context, user.ID)
	return thunk(func() (interface{}, error) {
		profile, found, err := wait()
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return profile, nil
	}), nil
}

// resolveUserPosts はuser.postsを解決する（1:N、投稿が無い場合は空リスト）。
func resolveUserPosts(p graphql.ResolveParams) (interface{}, error) {
	loaders, err := loader.FromContext(p.Context)
	if err != nil {
		return nil, err
	}
	user := p.Source.(*model.User)

	wait := loaders.PostsByAuthor.LoadThunk(p.Context, user.ID)
	return thunk(func() (interface{}, error) {
		posts, found, err := wait()
		if err != nil {
			return nil, err
		}
		if !found {
			return []*model.Post{}, nil
		}
		return posts, nil
	}), nil
}

// resolvePostAuthor はpost.authorを解決する。
// 外部キー制約により通常は存在するが、欠損はnullとして返す。
func resolvePostAuthor(p graphql.ResolveParams) (interface{}, error) {
	loaders, err := loader.FromContext(p.Context)
	if err != nil {
		return nil, err
	}
	post := p.Source.(*model.Post)

	wait := loaders.Users.LoadThunk(p.Context, post.AuthorID)
	return thunk(func() (interface{}, error) {
		author, found, err := wait()
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return author, nil
	}), nil
}

// resolveProfileMemberType はprofile.memberTypeを解決する。
// 参照先が欠損している場合はnullではなくフィールドエラーになる。
func resolveProfileMemberType(p graphql.ResolveParams) (interface{}, error) {
	loaders, err := loader.FromContext(p.Context)
	if err != nil {
		return nil, err
	}
	profile := p.Source.(*model.Profile)

	wait := loaders.MemberTypes.LoadThunk(p.Context, profile.MemberTypeID)
	return thunk(func() (interface{}, error) {
		mt, found, err := wait()
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, model.NewMemberTypeUnknownError(profile.MemberTypeID)
		}
		return mt, nil
	}), nil
}

// resolveUserSubscribedTo はuser.userSubscribedTo（このユーザーが購読する著者一覧）を解決する。
// 2段階: エッジスキャン→著者IDのユーザーロード。第2段は同じ波の
// 他のユーザー要求と合流する。
func resolveUserSubscribedTo(p graphql.ResolveParams) (interface{}, error) {
	loaders, err := loader.FromContext(p.Context)
	if err != nil {
		return nil, err
	}
	user := p.Source.(*model.User)

	waitEdges := loaders.SubscribedTo.LoadThunk(p.Context, user.ID)
	return thunk(func() (interface{}, error) {
		edges, found, err := waitEdges()
		if err != nil {
			return nil, err
		}
		if !found {
			return []*model.User{}, nil
		}
		ids := make([]string, len(edges))
		for i, e := range edges {
			ids[i] = e.AuthorID
		}
		return collectUsers(p, loaders, ids)
	}), nil
}

// resolveSubscribedToUser はuser.subscribedToUser（このユーザーの購読者一覧）を解決する。
func resolveSubscribedToUser(p graphql.ResolveParams) (interface{}, error) {
	loaders, err := loader.FromContext(p.Context)
	if err != nil {
		return nil, err
	}
	user := p.Source.(*model.User)

	waitEdges := loaders.Subscribers.LoadThunk(p.Context, user.ID)
	return thunk(func() (interface{}, error) {
		edges, found, err := waitEdges()
		if err != nil {
			return nil, err
		}
		if !found {
			return []*model.User{}, nil
		}
		ids := make([]string, len(edges))
		for i, e := range edges {
			ids[i] = e.SubscriberID
		}
		return collectUsers(p, loaders, ids)
	}), nil
}

// collectUsers はID列のユーザーを一括ロードする。
// エッジが指す先の欠損（並行削除の競合）は結果から黙って除外する。
func collectUsers(p graphql.ResolveParams, loaders *loader.Loaders, ids []string) (interface{}, error) {
	results := loaders.Users.LoadMany(p.Context, ids)
	users := make([]*model.User, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Found {
			users = append(users, r.Value)
		}
	}
	return users, nil
}

// resolveAllUsers は全ユーザーを返し、ID指定ローダーに事前投入する。
// 一覧の直下で関連フィールドを辿っても追加のユーザー取得が発生しない。
func (r *Resolver) resolveAllUsers(p graphql.ResolveParams) (interface{}, error) {
	users, err := r.repos.Users.FindAll(p.Context)
	if err != nil {
		return nil, err
	}
	if loaders, lerr := loader.FromContext(p.Context); lerr == nil {
		for _, u := range users {
			loaders.Users.Prime(u.ID, u)
		}
	}
	return users, nil
}

// resolveAllPosts は全投稿を返し、ID指定ローダーに事前投入する。
func (r *Resolver) resolveAllPosts(p graphql.ResolveParams) (interface{}, error) {
	posts, err := r.repos.Posts.FindAll(p.Context)
	if err != nil {
		return nil, err
	}
	if loaders, lerr := loader.FromContext(p.Context); lerr == nil {
		for _, post := range posts {
			loaders.Posts.Prime(post.ID, post)
		}
	}
	return posts, nil
}

// resolveAllProfiles は全プロフィールを返し、ID指定・ユーザーID指定の両ローダーに事前投入する。
func (r *Resolver) resolveAllProfiles(p graphql.ResolveParams) (interface{}, error) {
	profiles, err := r.repos.Profiles.FindAll(p.Context)
	if err != nil {
		return nil, err
	}
	if loaders, lerr := loader.FromContext(p.Context); lerr == nil {
		for _, profile := range profiles {
			loaders.Profiles.Prime(profile.ID, profile)
			loaders.ProfilesByUser.Prime(profile.UserID, profile)
		}
	}
	return profiles, nil
}

// resolveAllMemberTypes は全会員種別を返し、ID指定ローダーに事前投入する。
func (r *Resolver) resolveAllMemberTypes(p graphql.ResolveParams) (interface{}, error) {
	memberTypes, err := r.repos.MemberTypes.FindAll(p.Context)
	if err != nil {
		return nil, err
	}
	if loaders, lerr := loader.FromContext(p.Context); lerr == nil {
		for _, mt := range memberTypes {
			loaders.MemberTypes.Prime(mt.ID, mt)
		}
	}
	return memberTypes, nil
}
