// Package graph はGraphQLスキーマとリゾルバを提供する。
//
// 読み取りの関連フィールドは全てバッチスケジューラ（loaderパッケージ）を
// 経由して解決され、リゾルバはサンク（遅延関数）を返す。エグゼキュータが
// 同一階層の兄弟フィールドを登録し終えてからサンクを評価するため、
// 1つの解決の波が1回のストア呼び出しに合流する。
package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/terra456/rsschool-graphql/internal/loader"
	"github.com/terra456/rsschool-graphql/internal/mutation"
)

// Resolver はスキーマ全体の依存をまとめる。
// 一覧クエリはStore Clientを直接使い、書き込みはmutationサービスに委譲する。
// ID指定の解決はコンテキスト上のローダー経由でのみ行う。
type Resolver struct {
	repos     loader.Repos
	mutations *mutation.Service
}

// NewSchema は実行可能なGraphQLスキーマを構築する。
func NewSchema(repos loader.Repos, mutations *mutation.Service) (graphql.Schema, error) {
	r := &Resolver{
		repos:     repos,
		mutations: mutations,
	}

	memberTypeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MemberType",
		Fields: graphql.Fields{
			"id":                 &graphql.Field{Type: graphql.NewNonNull(memberTypeIDEnum)},
			"discount":           &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"postsLimitPerMonth": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	postType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.NewNonNull(uuidScalar)},
			"title":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"content":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"authorId": &graphql.Field{Type: graphql.NewNonNull(uuidScalar)},
		},
	})

	profileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Profile",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.NewNonNull(uuidScalar)},
			"isMale":       &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"yearOfBirth":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"userId":       &graphql.Field{Type: graphql.NewNonNull(uuidScalar)},
			"memberTypeId": &graphql.Field{Type: graphql.NewNonNull(memberTypeIDEnum)},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.NewNonNull(uuidScalar)},
			"name":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"balance": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	// 相互参照フィールドは型定義後に配線する
	profileType.AddFieldConfig("memberType", &graphql.Field{
		Type:    graphql.NewNonNull(memberTypeType),
		Resolve: resolveProfileMemberType,
	})
	postType.AddFieldConfig("author", &graphql.Field{
		Type:    userType,
		Resolve: resolvePostAuthor,
	})
	userType.AddFieldConfig("profile", &graphql.Field{
		Type:    profileType,
		Resolve: resolveUserProfile,
	})
	userType.AddFieldConfig("posts", &graphql.Field{
		Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType))),
		Resolve: resolveUserPosts,
	})
	userType.AddFieldConfig("userSubscribedTo", &graphql.Field{
		Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType))),
		Resolve: resolveUserSubscribedTo,
	})
	userType.AddFieldConfig("subscribedToUser", &graphql.Field{
		Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType))),
		Resolve: resolveSubscribedToUser,
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"user": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
				},
				Resolve: resolveUserByID,
			},
			"users": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType))),
				Resolve: r.resolveAllUsers,
			},
			"post": &graphql.Field{
				Type: postType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
				},
				Resolve: resolvePostByID,
			},
			"posts": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType))),
				Resolve: r.resolveAllPosts,
			},
			"profile": &graphql.Field{
				Type: profileType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
				},
				Resolve: resolveProfileByID,
			},
			"profiles": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(profileType))),
				Resolve: r.resolveAllProfiles,
			},
			"memberType": &graphql.Field{
				Type: memberTypeType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(memberTypeIDEnum)},
				},
				Resolve: resolveMemberTypeByID,
			},
			"memberTypes": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(memberTypeType))),
				Resolve: r.resolveAllMemberTypes,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Mutation",
		Fields: r.mutationFields(userType, postType, profileType),
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}
