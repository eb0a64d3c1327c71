package mutation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/terra456/rsschool-graphql/internal/model"
	"github.com/terra456/rsschool-graphql/internal/repository"
	"github.com/terra456/rsschool-graphql/internal/security"
)

type mockUserRepo struct {
	repository.UserRepository
	createFunc    func(ctx context.Context, user *model.User) error
	updateFunc    func(ctx context.Context, user *model.User) error
	deleteFunc    func(ctx context.Context, id string) error
	findByIDsFunc func(ctx context.Context, ids []string) (map[string]*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.createFunc(ctx, user)
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	return m.updateFunc(ctx, user)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockUserRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	return m.findByIDsFunc(ctx, ids)
}

type mockPostRepo struct {
	repository.PostRepository
	createFunc func(ctx context.Context, post *model.Post) error
	updateFunc func(ctx context.Context, post *model.Post) error
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error {
	return m.createFunc(ctx, post)
}

func (m *mockPostRepo) Update(ctx context.Context, post *model.Post) error {
	return m.updateFunc(ctx, post)
}

func (m *mockPostRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

type mockProfileRepo struct {
	repository.ProfileRepository
	createFunc    func(ctx context.Context, profile *model.Profile) error
	updateFunc    func(ctx context.Context, profile *model.Profile) error
	findByIDsFunc func(ctx context.Context, ids []string) (map[string]*model.Profile, error)
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	return m.createFunc(ctx, profile)
}

func (m *mockProfileRepo) Update(ctx context.Context, profile *model.Profile) error {
	return m.updateFunc(ctx, profile)
}

func (m *mockProfileRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Profile, error) {
	return m.findByIDsFunc(ctx, ids)
}

type mockSubRepo struct {
	repository.SubscriptionRepository
	createFunc func(ctx context.Context, sub *model.Subscription) error
	deleteFunc func(ctx context.Context, subscriberID, authorID string) error
}

func (m *mockSubRepo) Create(ctx context.Context, sub *model.Subscription) error {
	return m.createFunc(ctx, sub)
}

func (m *mockSubRepo) Delete(ctx context.Context, subscriberID, authorID string) error {
	return m.deleteFunc(ctx, subscriberID, authorID)
}

func newTestService(users *mockUserRepo, posts *mockPostRepo, profiles *mockProfileRepo, subs *mockSubRepo) *Service {
	if users == nil {
		users = &mockUserRepo{}
	}
	if posts == nil {
		posts = &mockPostRepo{}
	}
	if profiles == nil {
		profiles = &mockProfileRepo{}
	}
	if subs == nil {
		subs = &mockSubRepo{}
	}
	return NewService(users, posts, profiles, subs, security.NewContentSanitizer())
}

// ユーザー作成が新規IDを採番して永続化することを検証
func TestCreateUser(t *testing.T) {
	var saved *model.User
	users := &mockUserRepo{
		createFunc: func(_ context.Context, user *model.User) error {
			saved = user
			return nil
		},
	}
	svc := newTestService(users, nil, nil, nil)

	got, err := svc.CreateUser(context.Background(), model.NewUser{Name: "alice", Balance: 12.5})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if got.ID == "" {
		t.Error("expected a generated id")
	}
	if got.Name != "alice" || got.Balance != 12.5 {
		t.Errorf("user = %+v", got)
	}
	if saved != got {
		t.Error("returned user must be the persisted one")
	}
}

// 空の名前での作成が検証エラーになることを検証
func TestCreateUser_EmptyName(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil)

	_, err := svc.CreateUser(context.Background(), model.NewUser{Name: "   "})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeValidationFailed)
	}
}

// 存在しないユーザーの更新がストアのエラーをそのまま返すことを検証
func TestChangeUser_NotFound(t *testing.T) {
	users := &mockUserRepo{
		updateFunc: func(_ context.Context, _ *model.User) error {
			return model.NewUserNotFoundError("ghost")
		},
	}
	svc := newTestService(users, nil, nil, nil)

	_, err := svc.ChangeUser(context.Background(), "ghost", model.NewUser{Name: "x"})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeUserNotFound)
	}
}

// 投稿作成時に本文がサニタイズされることを検証
func TestCreatePost_SanitizesContent(t *testing.T) {
	var saved *model.Post
	posts := &mockPostRepo{
		createFunc: func(_ context.Context, post *model.Post) error {
			saved = post
			return nil
		},
	}
	svc := newTestService(nil, posts, nil, nil)

	_, err := svc.CreatePost(context.Background(), model.NewPost{
		Title:    "t",
		Content:  `<p>ok</p><script>alert(1)</script>`,
		AuthorID: "u1",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if strings.Contains(saved.Content, "script") {
		t.Errorf("content was not sanitized: %q", saved.Content)
	}
	if !strings.Contains(saved.Content, "<p>ok</p>") {
		t.Errorf("safe markup was dropped: %q", saved.Content)
	}
}

// 著者ID無しの投稿作成が検証エラーになることを検証
func TestCreatePost_MissingAuthor(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil)

	_, err := svc.CreatePost(context.Background(), model.NewPost{Title: "t"})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeValidationFailed)
	}
}

// 未知の会員種別でのプロフィール作成が拒否されることを検証
func TestCreateProfile_UnknownMemberType(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil)

	_, err := svc.CreateProfile(context.Background(), model.NewProfile{
		UserID:       "u1",
		MemberTypeID: "platinum",
		YearOfBirth:  1990,
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMemberTypeUnknown {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeMemberTypeUnknown)
	}
}

// プロフィール更新の戻り値が所有ユーザーID込みの更新後の行であることを検証
// （更新入力にはuser_idが含まれないため、ストアからの再取得が必要）
func TestChangeProfile_ReturnsRefreshedRow(t *testing.T) {
	profiles := &mockProfileRepo{
		updateFunc: func(_ context.Context, profile *model.Profile) error {
			if profile.UserID != "" {
				t.Errorf("Update received UserID = %q, want empty (owner is immutable)", profile.UserID)
			}
			return nil
		},
		findByIDsFunc: func(_ context.Context, ids []string) (map[string]*model.Profile, error) {
			if len(ids) != 1 || ids[0] != "p1" {
				t.Errorf("FindByIDs ids = %v, want [p1]", ids)
			}
			return map[string]*model.Profile{
				"p1": {
					ID:           "p1",
					IsMale:       true,
					YearOfBirth:  1985,
					UserID:       "u1",
					MemberTypeID: model.MemberTypeBusiness,
				},
			}, nil
		},
	}
	svc := newTestService(nil, nil, profiles, nil)

	got, err := svc.ChangeProfile(context.Background(), "p1", model.NewProfile{
		IsMale:       true,
		YearOfBirth:  1985,
		MemberTypeID: model.MemberTypeBusiness,
	})
	if err != nil {
		t.Fatalf("ChangeProfile() error = %v", err)
	}
	if got.UserID != "u1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "u1")
	}
	if got.MemberTypeID != model.MemberTypeBusiness {
		t.Errorf("MemberTypeID = %q, want %q", got.MemberTypeID, model.MemberTypeBusiness)
	}
}

// 既存プロフィールがある場合の作成がストアの一意性エラーを返すことを検証
func TestCreateProfile_AlreadyExists(t *testing.T) {
	profiles := &mockProfileRepo{
		createFunc: func(_ context.Context, _ *model.Profile) error {
			return model.NewProfileExistsError("u1")
		},
	}
	svc := newTestService(nil, nil, profiles, nil)

	_, err := svc.CreateProfile(context.Background(), model.NewProfile{
		UserID:       "u1",
		MemberTypeID: model.MemberTypeBasic,
		YearOfBirth:  1990,
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProfileExists {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeProfileExists)
	}
}

// 購読作成が成功時に購読者のユーザーを返すことを検証
func TestSubscribeTo(t *testing.T) {
	subs := &mockSubRepo{
		createFunc: func(_ context.Context, sub *model.Subscription) error {
			if sub.SubscriberID != "u1" || sub.AuthorID != "u2" {
				t.Errorf("edge = %+v, want (u1, u2)", sub)
			}
			return nil
		},
	}
	users := &mockUserRepo{
		findByIDsFunc: func(_ context.Context, ids []string) (map[string]*model.User, error) {
			return map[string]*model.User{"u1": {ID: "u1", Name: "alice"}}, nil
		},
	}
	svc := newTestService(users, nil, nil, subs)

	subscriber, err := svc.SubscribeTo(context.Background(), "u1", "u2")
	if err != nil {
		t.Fatalf("SubscribeTo failed: %v", err)
	}
	if subscriber.ID != "u1" {
		t.Errorf("subscriber = %+v, want u1", subscriber)
	}
}

// 重複購読がストアの一意性エラーを返すことを検証
func TestSubscribeTo_Duplicate(t *testing.T) {
	subs := &mockSubRepo{
		createFunc: func(_ context.Context, _ *model.Subscription) error {
			return model.NewDuplicateSubscriptionError()
		},
	}
	svc := newTestService(nil, nil, nil, subs)

	_, err := svc.SubscribeTo(context.Background(), "u1", "u2")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateSub {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeDuplicateSub)
	}
}

// 存在しない購読エッジの削除がエラーになることを検証
func TestUnsubscribeFrom_NotFound(t *testing.T) {
	subs := &mockSubRepo{
		deleteFunc: func(_ context.Context, _, _ string) error {
			return model.NewSubscriptionNotFoundError()
		},
	}
	svc := newTestService(nil, nil, nil, subs)

	err := svc.UnsubscribeFrom(context.Background(), "u1", "u2")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSubscriptionNotFound {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeSubscriptionNotFound)
	}
}
