package model

// 会員種別IDの閉集合。これ以外のIDを参照することはエラーであり、nullではない。
const (
	MemberTypeBasic    = "basic"
	MemberTypeBusiness = "business"
)

// MemberType は会員種別を表す静的な参照データ。
// IDは閉じた列挙 {basic, business} から取られる。
type MemberType struct {
	ID                 string
	Discount           float64
	PostsLimitPerMonth int
}

// ValidMemberTypeID はIDが閉じた列挙に含まれるかを返す。
func ValidMemberTypeID(id string) bool {
	return id == MemberTypeBasic || id == MemberTypeBusiness
}
