package model

// Subscription は「購読者が著者をフォローする」購読エッジを表す。
// (SubscriberID, AuthorID) の組が複合主キーで、同一ペアの重複は存在しない。
// 自己ループ（自分自身の購読）は禁止されていない。
type Subscription struct {
	SubscriberID string
	AuthorID     string
}
