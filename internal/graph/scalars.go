package graph

import (
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// uuidScalar はUUID形式の文字列ID。
// 不正な形式の値はコアーションの段階で弾き、ストアまで到達させない。
var uuidScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "UUID",
	Description: "RFC 4122準拠のユーザー・投稿・プロフィールID",
	Serialize: func(value interface{}) interface{} {
		if s, ok := value.(string); ok {
			return s
		}
		return nil
	},
	ParseValue: func(value interface{}) interface{} {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		if _, err := uuid.Parse(s); err != nil {
			return nil
		}
		return s
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		sv, ok := valueAST.(*ast.StringValue)
		if !ok {
			return nil
		}
		if _, err := uuid.Parse(sv.Value); err != nil {
			return nil
		}
		return sv.Value
	},
})

// memberTypeIDEnum は会員種別IDの閉じた列挙。
// 未知のIDはコアーションエラーになる。
var memberTypeIDEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "MemberTypeId",
	Values: graphql.EnumValueConfigMap{
		"basic": &graphql.EnumValueConfig{
			Value: "basic",
		},
		"business": &graphql.EnumValueConfig{
			Value: "business",
		},
	},
})
