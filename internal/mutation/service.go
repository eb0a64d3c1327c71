// Package mutation は書き込み操作のドメインロジックを提供する。
//
// 全ての書き込みはバッチスケジューラを経由しない単一行のパススルーコマンドで、
// 入力検証・サニタイズ・一意性違反の分類をこの層で行う。
package mutation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terra456/rsschool-graphql/internal/model"
	"github.com/terra456/rsschool-graphql/internal/repository"
	"github.com/terra456/rsschool-graphql/internal/security"
)

// Service は書き込み操作のサービス層。
// 作成・更新・削除と購読エッジの張り替えを提供する。
type Service struct {
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	profileRepo repository.ProfileRepository
	subRepo     repository.SubscriptionRepository
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	profileRepo repository.ProfileRepository,
	subRepo repository.SubscriptionRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		userRepo:    userRepo,
		postRepo:    postRepo,
		profileRepo: profileRepo,
		subRepo:     subRepo,
		sanitizer:   sanitizer,
	}
}

// CreateUser はユーザーを作成して返す。
func (s *Service) CreateUser(ctx context.Context, input model.NewUser) (*model.User, error) {
	if err := validateUserInput(input); err != nil {
		return nil, err
	}

	user := &model.User{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(input.Name),
		Balance: input.Balance,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを作成しました",
		slog.String("user_id", user.ID),
	)
	return user, nil
}

// ChangeUser は指定IDのユーザーを入力で上書きして返す。
// 行が存在しない場合は model.ErrCodeUserNotFound を返す。
func (s *Service) ChangeUser(ctx context.Context, id string, input model.NewUser) (*model.User, error) {
	if err := validateUserInput(input); err != nil {
		return nil, err
	}

	user := &model.User{
		ID:      id,
		Name:    strings.TrimSpace(input.Name),
		Balance: input.Balance,
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser は指定IDのユーザーを削除する。
// 投稿・プロフィール・購読エッジはストア側でCASCADE削除される。
// 行が存在しない場合は model.ErrCodeUserNotFound を返す。
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("ユーザーを削除しました",
		slog.String("user_id", id),
	)
	return nil
}

// CreatePost は投稿を作成して返す。
// 本文はサニタイズしてから永続化する。
// 著者が存在しない場合は model.ErrCodeUserNotFound を返す。
func (s *Service) CreatePost(ctx context.Context, input model.NewPost) (*model.Post, error) {
	if err := validatePostInput(input); err != nil {
		return nil, err
	}

	post := &model.Post{
		ID:       uuid.NewString(),
		Title:    strings.TrimSpace(input.Title),
		Content:  s.sanitizer.Sanitize(input.Content),
		AuthorID: input.AuthorID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	slog.Info("投稿を作成しました",
		slog.String("post_id", post.ID),
		slog.String("author_id", post.AuthorID),
	)
	return post, nil
}

// ChangePost は指定IDの投稿を入力で上書きして返す。
// 行が存在しない場合は model.ErrCodePostNotFound を返す。
func (s *Service) ChangePost(ctx context.Context, id string, input model.NewPost) (*model.Post, error) {
	if err := validatePostInput(input); err != nil {
		return nil, err
	}

	post := &model.Post{
		ID:       id,
		Title:    strings.TrimSpace(input.Title),
		Content:  s.sanitizer.Sanitize(input.Content),
		AuthorID: input.AuthorID,
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost は指定IDの投稿を削除する。
// 行が存在しない場合は model.ErrCodePostNotFound を返す。
func (s *Service) DeletePost(ctx context.Context, id string) error {
	return s.postRepo.Delete(ctx, id)
}

// CreateProfile はプロフィールを作成して返す。
// 会員種別IDは閉じた列挙に対して検証する。
// ユーザーが既にプロフィールを持つ場合は model.ErrCodeProfileExists を返す。
func (s *Service) CreateProfile(ctx context.Context, input model.NewProfile) (*model.Profile, error) {
	if err := validateProfileInput(input); err != nil {
		return nil, err
	}

	profile := &model.Profile{
		ID:           uuid.NewString(),
		IsMale:       input.IsMale,
		YearOfBirth:  input.YearOfBirth,
		UserID:       input.UserID,
		MemberTypeID: input.MemberTypeID,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	slog.Info("プロフィールを作成しました",
		slog.String("profile_id", profile.ID),
		slog.String("user_id", profile.UserID),
	)
	return profile, nil
}

// ChangeProfile は指定IDのプロフィールを入力で上書きして返す。
// 所有ユーザー（UserID）は変更対象外のため、更新後の行を再取得して返す。
// 行が存在しない場合は model.ErrCodeProfileNotFound を返す。
func (s *Service) ChangeProfile(ctx context.Context, id string, input model.NewProfile) (*model.Profile, error) {
	if !model.ValidMemberTypeID(input.MemberTypeID) {
		return nil, model.NewMemberTypeUnknownError(input.MemberTypeID)
	}
	if err := validateYearOfBirth(input.YearOfBirth); err != nil {
		return nil, err
	}

	profile := &model.Profile{
		ID:           id,
		IsMale:       input.IsMale,
		YearOfBirth:  input.YearOfBirth,
		MemberTypeID: input.MemberTypeID,
	}
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	profiles, err := s.profileRepo.FindByIDs(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("更新後のプロフィールの取得に失敗しました: %w", err)
	}
	updated, ok := profiles[id]
	if !ok {
		return nil, model.NewProfileNotFoundError(id)
	}
	return updated, nil
}

// DeleteProfile は指定IDのプロフィールを削除する。
// 行が存在しない場合は model.ErrCodeProfileNotFound を返す。
func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	return s.profileRepo.Delete(ctx, id)
}

// SubscribeTo は購読エッジ (subscriberID, authorID) を作成し、購読者を返す。
// 同一ペアが既に存在する場合は model.ErrCodeDuplicateSub を返す。
// 自己ループは許可される。
func (s *Service) SubscribeTo(ctx context.Context, subscriberID, authorID string) (*model.User, error) {
	sub := &model.Subscription{
		SubscriberID: subscriberID,
		AuthorID:     authorID,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	users, err := s.userRepo.FindByIDs(ctx, []string{subscriberID})
	if err != nil {
		return nil, fmt.Errorf("購読者の取得に失敗しました: %w", err)
	}
	subscriber, ok := users[subscriberID]
	if !ok {
		return nil, model.NewUserNotFoundError(subscriberID)
	}

	slog.Info("購読を作成しました",
		slog.String("subscriber_id", subscriberID),
		slog.String("author_id", authorID),
	)
	return subscriber, nil
}

// UnsubscribeFrom は購読エッジ (subscriberID, authorID) を削除する。
// エッジが存在しない場合は model.ErrCodeSubscriptionNotFound を返す。
func (s *Service) UnsubscribeFrom(ctx context.Context, subscriberID, authorID string) error {
	if err := s.subRepo.Delete(ctx, subscriberID, authorID); err != nil {
		return err
	}

	slog.Info("購読を解除しました",
		slog.String("subscriber_id", subscriberID),
		slog.String("author_id", authorID),
	)
	return nil
}

func validateUserInput(input model.NewUser) error {
	if strings.TrimSpace(input.Name) == "" {
		return model.NewValidationError("name must not be empty")
	}
	return nil
}

func validatePostInput(input model.NewPost) error {
	if strings.TrimSpace(input.Title) == "" {
		return model.NewValidationError("title must not be empty")
	}
	if input.AuthorID == "" {
		return model.NewValidationError("authorId must not be empty")
	}
	return nil
}

func validateProfileInput(input model.NewProfile) error {
	if input.UserID == "" {
		return model.NewValidationError("userId must not be empty")
	}
	if !model.ValidMemberTypeID(input.MemberTypeID) {
		return model.NewMemberTypeUnknownError(input.MemberTypeID)
	}
	return validateYearOfBirth(input.YearOfBirth)
}

func validateYearOfBirth(year int) error {
	if year < 1900 || year > time.Now().Year() {
		return model.NewValidationError("yearOfBirth is out of range")
	}
	return nil
}
