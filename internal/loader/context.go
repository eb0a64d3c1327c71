package loader

import (
	"context"
	"errors"
)

type contextKey struct{}

// ErrNoLoaders はコンテキストにローダー一式が載っていない場合のエラー。
var ErrNoLoaders = errors.New("loaders not found in context")

// NewContext はローダー一式をコンテキストに載せる。
// リクエストごとに生成したLoadersをグラフ解決の呼び出し連鎖に引き回すために使う。
func NewContext(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, contextKey{}, loaders)
}

// FromContext はコンテキストからローダー一式を取り出す。
// リゾルバはStore Clientを直接呼ばず、必ずここから得たローダーを経由する。
func FromContext(ctx context.Context) (*Loaders, error) {
	loaders, ok := ctx.Value(contextKey{}).(*Loaders)
	if !ok {
		return nil, ErrNoLoaders
	}
	return loaders, nil
}
