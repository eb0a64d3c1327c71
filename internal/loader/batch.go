// Package loader はグラフ解決とStore Clientの間に置かれる
// リクエストスコープのバッチ取得層を提供する。
//
// 1回のクエリ解決中に発行される個別のキー要求を「ウェーブ」単位で溜め、
// エンティティ種別ごとに1回の一括ストア呼び出しへ合流させる。
// 同一キーの重複要求は1つの取得に合流し、解決済みの結果はクエリの
// 寿命の間キャッシュされる。キャッシュとキューはクエリ間で共有されない。
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultWait はウェーブの累積ウィンドウのデフォルト値。
// グラフエグゼキュータが兄弟フィールドのリゾルバを同期的に走らせ終えるのに
// 十分な長さであればよく、長くする必要はない。
const DefaultWait = 2 * time.Millisecond

// Result は1キー分の取得結果を表す。
// 「行が存在しない」（Found=false）と「取得に失敗した」（Err非nil）は区別され、
// 欠損をエラーへ昇格させるかどうかは呼び出し側が決める。
type Result[V any] struct {
	Value V
	Found bool
	Err   error
}

// BatchFunc は1ウェーブ分のキー集合を一括取得する関数。
// keysは先着順で重複を含まない。戻り値のマップに含まれないキーは
// 「存在しない」として扱われる。キー単位の失敗はResult.Errで返し、
// 第2戻り値の非nilエラーはウェーブ全体の失敗として全キーに伝播する。
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]Result[V], error)

// Observer はウェーブのフラッシュを観測するフック。メトリクス収集に使う。
type Observer interface {
	// ObserveFlush は種別kindのウェーブがbatchSize個のキーでフラッシュされたことを記録する。
	ObserveFlush(kind string, batchSize int)
}

// Config はBatcherの動作パラメータ。
type Config struct {
	// Wait はウェーブの累積ウィンドウ。0以下の場合はDefaultWaitを使用する。
	Wait time.Duration
	// MaxBatch は1ウェーブの最大キー数。到達した時点でウィンドウを待たずに
	// フラッシュする。0は無制限。
	MaxBatch int
}

// Batcher は1エンティティ種別分のバッチスケジューラ＋結果キャッシュ。
// 1つの受信クエリにつき1インスタンスを生成し、クエリ終了とともに破棄する。
// 同一クエリ内の複数の解決経路から並行に呼び出されても安全。
type Batcher[K comparable, V any] struct {
	kind     string
	fn       BatchFunc[K, V]
	wait     time.Duration
	maxBatch int
	observer Observer

	mu    sync.Mutex
	cache map[K]*thunk[V]
	curr  *wave[K, V]
}

// thunk は1キーの未解決または解決済みの取得結果。
// doneのcloseが解決を意味し、未解決キーへの後続要求はこれを待つことで
// 二重のストア呼び出しを避ける。
type thunk[V any] struct {
	done chan struct{}
	res  Result[V]
}

// wave は1回のフラッシュで処理されるキーの集まり。
type wave[K comparable, V any] struct {
	ctx     context.Context
	keys    []K
	timer   *time.Timer
	flushed bool
}

// NewBatcher はBatcherを生成する。kindはログ・メトリクス用の種別名。
func NewBatcher[K comparable, V any](kind string, fn BatchFunc[K, V], cfg Config, obs Observer) *Batcher[K, V] {
	wait := cfg.Wait
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Batcher[K, V]{
		kind:     kind,
		fn:       fn,
		wait:     wait,
		maxBatch: cfg.MaxBatch,
		observer: obs,
		cache:    make(map[K]*thunk[V]),
	}
}

// Load はkeyのエンティティを取得する。
// 戻り値は (値, 存在フラグ, エラー)。行が存在しない場合はエラーではなく
// 存在フラグfalseで返る。キャッシュ済みまたは取得中のキーは
// 追加のストア呼び出しを発生させない。
func (b *Batcher[K, V]) Load(ctx context.Context, key K) (V, bool, error) {
	return b.LoadThunk(ctx, key)()
}

// LoadThunk はkeyを現在のウェーブに登録し、結果を待つ関数を返す。
// 登録と待機を分離することで、兄弟フィールドのリゾルバが全員キーを
// 登録し終えてから待機に入れる（全員が同じウェーブに乗る）。
func (b *Batcher[K, V]) LoadThunk(ctx context.Context, key K) func() (V, bool, error) {
	b.mu.Lock()

	if t, ok := b.cache[key]; ok {
		b.mu.Unlock()
		return func() (V, bool, error) { return b.await(ctx, t) }
	}

	// キャンセル済みコンテキストからは新しいウェーブを開始しない。
	// 進行中のウェーブはそのまま完了させる。
	if err := ctx.Err(); err != nil {
		b.mu.Unlock()
		return func() (V, bool, error) {
			var zero V
			return zero, false, err
		}
	}

	t := &thunk[V]{done: make(chan struct{})}
	b.cache[key] = t

	if b.curr == nil {
		w := &wave[K, V]{ctx: ctx}
		b.curr = w
		w.timer = time.AfterFunc(b.wait, func() { b.flush(w) })
	}
	w := b.curr
	w.keys = append(w.keys, key)

	full := b.maxBatch > 0 && len(w.keys) >= b.maxBatch
	b.mu.Unlock()

	if full {
		go b.flush(w)
	}

	return func() (V, bool, error) { return b.await(ctx, t) }
}

// LoadMany はkeysのエンティティを一括取得する。
// 戻り値は入力キーと同じ順序・同じ個数で、重複キーは同一の結果を共有する。
// 全キーが同一ウェーブに登録されてから待機するため、ストア呼び出しは
// 高々1回に合流する。
func (b *Batcher[K, V]) LoadMany(ctx context.Context, keys []K) []Result[V] {
	thunks := make([]func() (V, bool, error), len(keys))
	for i, key := range keys {
		thunks[i] = b.LoadThunk(ctx, key)
	}

	results := make([]Result[V], len(keys))
	for i, wait := range thunks {
		v, found, err := wait()
		results[i] = Result[V]{Value: v, Found: found, Err: err}
	}
	return results
}

// Prime は解決済みの値をキャッシュに事前投入する。
// 既にキャッシュ済み（または取得中）のキーには何もしない。
// 一覧クエリが取得した行を個別ロードに再利用させるために使う。
func (b *Batcher[K, V]) Prime(key K, value V) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.cache[key]; ok {
		return
	}
	t := &thunk[V]{
		done: make(chan struct{}),
		res:  Result[V]{Value: value, Found: true},
	}
	close(t.done)
	b.cache[key] = t
}

// Flush は現在のウェーブを累積ウィンドウの満了を待たずに確定しフラッシュする。
// 明示的なウェーブ境界が必要な場合に使う。保留中のウェーブがなければ何もしない。
func (b *Batcher[K, V]) Flush() {
	b.mu.Lock()
	w := b.curr
	b.mu.Unlock()

	if w != nil {
		b.flush(w)
	}
}

// flush はウェーブwを確定し、一括取得を実行して待機中の全thunkを解決する。
// 確定と同時にb.currを空けるので、この結果に起因する後続の要求は
// 新しいウェーブとして始まる。
func (b *Batcher[K, V]) flush(w *wave[K, V]) {
	b.mu.Lock()
	if w.flushed {
		b.mu.Unlock()
		return
	}
	w.flushed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	if b.curr == w {
		b.curr = nil
	}
	keys := w.keys
	b.mu.Unlock()

	results, err := b.safeBatch(w.ctx, keys)

	if b.observer != nil {
		b.observer.ObserveFlush(b.kind, len(keys))
	}

	b.mu.Lock()
	for _, key := range keys {
		t := b.cache[key]
		switch {
		case err != nil:
			// ウェーブ全体の失敗は全キーに同一の原因で伝播する
			t.res = Result[V]{Err: err}
		default:
			if res, ok := results[key]; ok {
				t.res = res
			}
			// マップに含まれないキーはゼロ値のResult（Found=false）のまま:
			// 「行が存在しない」ことを表す
		}
		close(t.done)
	}
	b.mu.Unlock()
}

// safeBatch はBatchFuncの呼び出しをpanicから保護する。
// panicを握りつぶすとウェーブ内の全thunkが永久に未解決になるため、
// エラーに変換して通常の失敗経路に乗せる。
func (b *Batcher[K, V]) safeBatch(ctx context.Context, keys []K) (results map[K]Result[V], err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("batch function panicked: %v", rec)
		}
	}()
	return b.fn(ctx, keys)
}

// await はthunkの解決を待って結果を返す。
// コンテキストのキャンセル時は待機を打ち切るが、thunk自体は
// 進行中のフラッシュによって必ず解決される（他の待機者に影響しない）。
func (b *Batcher[K, V]) await(ctx context.Context, t *thunk[V]) (V, bool, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		// 解決とキャンセルが競合した場合は解決済みの結果を優先する
		select {
		case <-t.done:
		default:
			var zero V
			return zero, false, ctx.Err()
		}
	}
	return t.res.Value, t.res.Found, t.res.Err
}
