package model

// Profile はユーザーのプロフィールを表す。
// UserIDにはUNIQUE制約があり、Userとの1:1関係を保証する。
// MemberTypeIDは閉じた列挙（basic/business）への外部キー。
type Profile struct {
	ID           string
	IsMale       bool
	YearOfBirth  int
	UserID       string
	MemberTypeID string
}

// NewProfile はプロフィール作成・更新の入力を表す。
type NewProfile struct {
	IsMale       bool
	YearOfBirth  int
	UserID       string
	MemberTypeID string
}
