package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/terra456/rsschool-graphql/internal/model"
)

// 書き込みはバッチングの対象外で、mutationサービスへのパススルーコマンド。
// deleteXxx系は成功時にtrueを返し、対象が存在しない場合はエラーを返す。
func (r *Resolver) mutationFields(userType, postType, profileType *graphql.Object) graphql.Fields {
	createUserInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateUserInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"balance": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})
	changeUserInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ChangeUserInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"balance": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})
	createPostInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreatePostInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"content":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"authorId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(uuidScalar)},
		},
	})
	changePostInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ChangePostInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"content":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"authorId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(uuidScalar)},
		},
	})
	createProfileInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateProfileInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"isMale":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Boolean)},
			"yearOfBirth":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"userId":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(uuidScalar)},
			"memberTypeId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(memberTypeIDEnum)},
		},
	})
	changeProfileInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ChangeProfileInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"isMale":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Boolean)},
			"yearOfBirth":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"memberTypeId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(memberTypeIDEnum)},
		},
	})

	idArg := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
	}
	edgeArgs := graphql.FieldConfigArgument{
		"userId":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
		"authorId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
	}

	return graphql.Fields{
		"createUser": &graphql.Field{
			Type: graphql.NewNonNull(userType),
			Args: graphql.FieldConfigArgument{
				"dto": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createUserInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return r.mutations.CreateUser(p.Context, decodeUserInput(p.Args["dto"]))
			},
		},
		"changeUser": &graphql.Field{
			Type: graphql.NewNonNull(userType),
			Args: graphql.FieldConfigArgument{
				"id":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
				"dto": &graphql.ArgumentConfig{Type: graphql.NewNonNull(changeUserInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return r.mutations.ChangeUser(p.Context, p.Args["id"].(string), decodeUserInput(p.Args["dto"]))
			},
		},
		"deleteUser": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Boolean),
			Args: idArg,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if err := r.mutations.DeleteUser(p.Context, p.Args["id"].(string)); err != nil {
					return false, err
				}
				return true, nil
			},
		},
		"createPost": &graphql.Field{
			Type: graphql.NewNonNull(postType),
			Args: graphql.FieldConfigArgument{
				"dto": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createPostInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return r.mutations.CreatePost(p.Context, decodePostInput(p.Args["dto"]))
			},
		},
		"changePost": &graphql.Field{
			Type: graphql.NewNonNull(postType),
			Args: graphql.FieldConfigArgument{
				"id":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
				"dto": &graphql.ArgumentConfig{Type: graphql.NewNonNull(changePostInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return r.mutations.ChangePost(p.Context, p.Args["id"].(string), decodePostInput(p.Args["dto"]))
			},
		},
		"deletePost": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Boolean),
			Args: idArg,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if err := r.mutations.DeletePost(p.Context, p.Args["id"].(string)); err != nil {
					return false, err
				}
				return true, nil
			},
		},
		"createProfile": &graphql.Field{
			Type: graphql.NewNonNull(profileType),
			Args: graphql.FieldConfigArgument{
				"dto": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createProfileInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return r.mutations.CreateProfile(p.Context, decodeProfileInput(p.Args["dto"]))
			},
		},
		"changeProfile": &graphql.Field{
			Type: graphql.NewNonNull(profileType),
			Args: graphql.FieldConfigArgument{
				"id":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(uuidScalar)},
				"dto": &graphql.ArgumentConfig{Type: graphql.NewNonNull(changeProfileInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return r.mutations.ChangeProfile(p.Context, p.Args["id"].(string), decodeProfileInput(p.Args["dto"]))
			},
		},
		"deleteProfile": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Boolean),
			Args: idArg,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if err := r.mutations.DeleteProfile(p.Context, p.Args["id"].(string)); err != nil {
					return false, err
				}
				return true, nil
			},
		},
		"subscribeTo": &graphql.Field{
			Type: graphql.NewNonNull(userType),
			Args: edgeArgs,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return r.mutations.SubscribeTo(p.Context, p.Args["userId"].(string), p.Args["authorId"].(string))
			},
		},
		"unsubscribeFrom": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Boolean),
			Args: edgeArgs,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if err := r.mutations.UnsubscribeFrom(p.Context, p.Args["userId"].(string), p.Args["authorId"].(string)); err != nil {
					return false, err
				}
				return true, nil
			},
		},
	}
}

func decodeUserInput(arg interface{}) model.NewUser {
	m, _ := arg.(map[string]interface{})
	in := model.NewUser{}
	if v, ok := m["name"].(string); ok {
		in.Name = v
	}
	if v, ok := m["balance"].(float64); ok {
		in.Balance = v
	}
	return in
}

func decodePostInput(arg interface{}) model.NewPost {
	m, _ := arg.(map[string]interface{})
	in := model.NewPost{}
	if v, ok := m["title"].(string); ok {
		in.Title = v
	}
	if v, ok := m["content"].(string); ok {
		in.Content = v
	}
	if v, ok := m["authorId"].(string); ok {
		in.AuthorID = v
	}
	return in
}

func decodeProfileInput(arg interface{}) model.NewProfile {
	m, _ := arg.(map[string]interface{})
	in := model.NewProfile{}
	if v, ok := m["isMale"].(bool); ok {
		in.IsMale = v
	}
	if v, ok := m["yearOfBirth"].(int); ok {
		in.YearOfBirth = v
	}
	if v, ok := m["userId"].(string); ok {
		in.UserID = v
	}
	if v, ok := m["memberTypeId"].(string); ok {
		in.MemberTypeID = v
	}
	return in
}
