package repository

import (
	"testing"
)

// 各PostgresリポジトリがStore Clientインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ PostRepository = (*PostgresPostRepo)(nil)
	var _ ProfileRepository = (*PostgresProfileRepo)(nil)
	var _ MemberTypeRepository = (*PostgresMemberTypeRepo)(nil)
	var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
}

// 各コンストラクタが非nilのリポジトリを返すことを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("expected non-nil user repo")
	}
	if NewPostgresPostRepo(nil) == nil {
		t.Error("expected non-nil post repo")
	}
	if NewPostgresProfileRepo(nil) == nil {
		t.Error("expected non-nil profile repo")
	}
	if NewPostgresMemberTypeRepo(nil) == nil {
		t.Error("expected non-nil member type repo")
	}
	if NewPostgresSubscriptionRepo(nil) == nil {
		t.Error("expected non-nil subscription repo")
	}
}
