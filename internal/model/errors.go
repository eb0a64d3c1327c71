package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// GraphQLレスポンスのerrorsにそのまま載せられる情報を持つ。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, data, system
	Action   string // クライアント向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodePostNotFound         = "POST_NOT_FOUND"
	ErrCodeProfileNotFound      = "PROFILE_NOT_FOUND"
	ErrCodeMemberTypeUnknown    = "MEMBER_TYPE_UNKNOWN"
	ErrCodeProfileExists        = "PROFILE_EXISTS"
	ErrCodeDuplicateSub         = "DUPLICATE_SUBSCRIPTION"
	ErrCodeSubscriptionNotFound = "SUBSCRIPTION_NOT_FOUND"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeStoreUnavailable     = "STORE_UNAVAILABLE"
)

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "data",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewPostNotFoundError は投稿が見つからない場合のエラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "data",
		Action:   "投稿IDを確認してください。",
	}
}

// NewProfileNotFoundError はプロフィールが見つからない場合のエラーを生成する。
func NewProfileNotFoundError(profileID string) *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  fmt.Sprintf("指定されたプロフィールが見つかりません: %s", profileID),
		Category: "data",
		Action:   "プロフィールIDを確認してください。",
	}
}

// NewMemberTypeUnknownError は閉じた列挙に存在しない会員種別IDが参照された場合のエラーを生成する。
// 会員種別は必須関係のため、欠損はnullではなくエラーとして扱う。
func NewMemberTypeUnknownError(memberTypeID string) *APIError {
	return &APIError{
		Code:     ErrCodeMemberTypeUnknown,
		Message:  fmt.Sprintf("未知の会員種別IDです: %s", memberTypeID),
		Category: "data",
		Action:   "会員種別には basic または business を指定してください。",
	}
}

// NewProfileExistsError はユーザーが既にプロフィールを持つ場合のエラーを生成する。
func NewProfileExistsError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeProfileExists,
		Message:  fmt.Sprintf("ユーザーは既にプロフィールを持っています: %s", userID),
		Category: "validation",
		Action:   "既存のプロフィールをchangeProfileで更新してください。",
	}
}

// NewDuplicateSubscriptionError は同一ペアの購読が既に存在する場合のエラーを生成する。
func NewDuplicateSubscriptionError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateSub,
		Message:  "この著者は既に購読しています。",
		Category: "validation",
		Action:   "購読状態を確認してください。",
	}
}

// NewSubscriptionNotFoundError は購読エッジが存在しない場合のエラーを生成する。
func NewSubscriptionNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSubscriptionNotFound,
		Message:  "購読が見つかりません。",
		Category: "data",
		Action:   "購読者IDと著者IDを確認してください。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力値を修正して再度実行してください。",
	}
}

// NewStoreUnavailableError はストア自体の失敗（接続断など）を表すエラーを生成する。
// 「行が存在しない」とは区別され、呼び出し側で吸収してはならない。
func NewStoreUnavailableError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  fmt.Sprintf("データストアへのアクセスに失敗しました: %v", cause),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
