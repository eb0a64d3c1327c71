package model

// Post はユーザーの投稿を表す。
// AuthorIDは必須の外部キーで、ちょうど1人のUserに所有される。
type Post struct {
	ID       string
	Title    string
	Content  string
	AuthorID string
}

// NewPost は投稿作成・更新の入力を表す。
type NewPost struct {
	Title    string
	Content  string
	AuthorID string
}
