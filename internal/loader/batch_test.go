package loader

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingBatch はテスト用のBatchFunc。呼び出し回数と渡されたキー列を記録する。
type countingBatch struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(keys []string) (map[string]Result[string], error)
}

func (c *countingBatch) batch(_ context.Context, keys []string) (map[string]Result[string], error) {
	c.mu.Lock()
	c.calls = append(c.calls, append([]string(nil), keys...))
	c.mu.Unlock()

	if c.fn != nil {
		return c.fn(keys)
	}
	// デフォルト: 全キーを "v:<key>" として返す
	out := make(map[string]Result[string], len(keys))
	for _, k := range keys {
		out[k] = Result[string]{Value: "v:" + k, Found: true}
	}
	return out, nil
}

func (c *countingBatch) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *countingBatch) keysOfCall(i int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[i]
}

func newTestBatcher(c *countingBatch, cfg Config) *Batcher[string, string] {
	return NewBatcher("test", c.batch, cfg, nil)
}

// 同一ウェーブ内の複数キーが1回のストア呼び出しに合流することを検証
func TestBatcher_CoalescesOneWave(t *testing.T) {
	c := &countingBatch{}
	b := newTestBatcher(c, Config{})
	ctx := context.Background()

	// 登録と待機を分離し、全キーを同じウェーブに乗せる
	t1 := b.LoadThunk(ctx, "a")
	t2 := b.LoadThunk(ctx, "b")
	t3 := b.LoadThunk(ctx, "c")

	for _, wait := range []func() (string, bool, error){t1, t2, t3} {
		v, found, err := wait()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !found {
			t.Fatal("expected found=true")
		}
		if v == "" {
			t.Fatal("expected non-empty value")
		}
	}

	if got := c.callCount(); got != 1 {
		t.Errorf("store calls = %d, want 1", got)
	}
	if got := c.keysOfCall(0); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("batch keys = %v, want [a b c] (first-seen order)", got)
	}
}

// LoadMany([a,b,a])が入力順の3要素を返し、重複キーが同一の結果を共有することを検証
func TestBatcher_LoadMany_OrderAndDuplicates(t *testing.T) {
	c := &countingBatch{}
	b := newTestBatcher(c, Config{})

	results := b.LoadMany(context.Background(), []string{"a", "b", "a"})

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Value != "v:a" || results[1].Value != "v:b" || results[2].Value != "v:a" {
		t.Errorf("results = %+v, want values [v:a v:b v:a]", results)
	}
	if results[0] != results[2] {
		t.Error("first and third results must be identical (same key)")
	}

	if got := c.callCount(); got != 1 {
		t.Errorf("store calls = %d, want 1", got)
	}
	// 重複は除去され、先着順が保たれる
	if got := c.keysOfCall(0); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("batch keys = %v, want [a b]", got)
	}
}

// 解決済みキーの再ロードがストア呼び出しなしでキャッシュから返ることを検証
func TestBatcher_CachedLoad(t *testing.T) {
	c := &countingBatch{}
	b := newTestBatcher(c, Config{})
	ctx := context.Background()

	v1, _, err := b.Load(ctx, "a")
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}

	v2, found, err := b.Load(ctx, "a")
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if !found || v2 != v1 {
		t.Errorf("second Load = (%q, %v), want cached (%q, true)", v2, found, v1)
	}

	if got := c.callCount(); got != 1 {
		t.Errorf("store calls = %d, want 1", got)
	}
}

// 未解決キーへの並行Loadが1回の取得に合流することを検証
func TestBatcher_ConcurrentSameKey(t *testing.T) {
	c := &countingBatch{}
	b := newTestBatcher(c, Config{})
	ctx := context.Background()

	const goroutines = 8
	var wg sync.WaitGroup
	var failures atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, found, err := b.Load(ctx, "a")
			if err != nil || !found || v != "v:a" {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Errorf("%d concurrent loads failed", failures.Load())
	}
	if got := c.callCount(); got != 1 {
		t.Errorf("store calls = %d, want exactly 1 for concurrent loads of the same key", got)
	}
}

// 同一バッチ内でのキー欠損が他のキーに影響しないことを検証
func TestBatcher_AbsentIsolation(t *testing.T) {
	c := &countingBatch{
		fn: func(keys []string) (map[string]Result[string], error) {
			// yのみ存在し、xは欠損
			return map[string]Result[string]{
				"y": {Value: "v:y", Found: true},
			}, nil
		},
	}
	b := newTestBatcher(c, Config{})
	ctx := context.Background()

	tx := b.LoadThunk(ctx, "x")
	ty := b.LoadThunk(ctx, "y")

	_, foundX, errX := tx()
	if errX != nil {
		t.Errorf("absent key must not be an error, got: %v", errX)
	}
	if foundX {
		t.Error("expected found=false for absent key x")
	}

	vy, foundY, errY := ty()
	if errY != nil || !foundY || vy != "v:y" {
		t.Errorf("y = (%q, %v, %v), want (v:y, true, nil)", vy, foundY, errY)
	}
}

// キー単位の失敗がそのキーの待機者だけに届くことを検証
func TestBatcher_PerKeyFailureIsolation(t *testing.T) {
	keyErr := errors.New("row is corrupted")
	c := &countingBatch{
		fn: func(keys []string) (map[string]Result[string], error) {
			return map[string]Result[string]{
				"x": {Err: keyErr},
				"y": {Value: "v:y", Found: true},
			}, nil
		},
	}
	b := newTestBatcher(c, Config{})
	ctx := context.Background()

	tx := b.LoadThunk(ctx, "x")
	ty := b.LoadThunk(ctx, "y")

	_, _, errX := tx()
	if !errors.Is(errX, keyErr) {
		t.Errorf("x error = %v, want %v", errX, keyErr)
	}

	vy, foundY, errY := ty()
	if errY != nil || !foundY || vy != "v:y" {
		t.Errorf("failure on x leaked into y: (%q, %v, %v)", vy, foundY, errY)
	}
}

// バッチ全体の失敗が全キーに同一の原因で伝播し、結果として記憶されることを検証
func TestBatcher_BatchWideFailure(t *testing.T) {
	connErr := errors.New("connection lost")
	c := &countingBatch{
		fn: func(keys []string) (map[string]Result[string], error) {
			return nil, connErr
		},
	}
	b := newTestBatcher(c, Config{})
	ctx := context.Background()

	tx := b.LoadThunk(ctx, "x")
	ty := b.LoadThunk(ctx, "y")

	_, _, errX := tx()
	_, _, errY := ty()
	if !errors.Is(errX, connErr) || !errors.Is(errY, connErr) {
		t.Errorf("errors = (%v, %v), want both %v", errX, errY, connErr)
	}

	// 失敗も解決済みとしてキャッシュされ、同一クエリ内での再ロードは再取得しない
	_, _, errAgain := b.Load(ctx, "x")
	if !errors.Is(errAgain, connErr) {
		t.Errorf("cached failure = %v, want %v", errAgain, connErr)
	}
	if got := c.callCount(); got != 1 {
		t.Errorf("store calls = %d, want 1", got)
	}
}

// フラッシュ後の要求が新しいウェーブとして別のストア呼び出しになることを検証
func TestBatcher_NewWaveAfterFlush(t *testing.T) {
	c := &countingBatch{}
	b := newTestBatcher(c, Config{})
	ctx := context.Background()

	if _, _, err := b.Load(ctx, "a"); err != nil {
		t.Fatalf("Load a failed: %v", err)
	}
	if _, _, err := b.Load(ctx, "b"); err != nil {
		t.Fatalf("Load b failed: %v", err)
	}

	if got := c.callCount(); got != 2 {
		t.Errorf("store calls = %d, want 2 (one per wave)", got)
	}
}

// MaxBatch到達時に累積ウィンドウを待たずにフラッシュされることを検証
func TestBatcher_MaxBatchFlushesEarly(t *testing.T) {
	c := &countingBatch{}
	// ウィンドウを十分長くし、早期フラッシュのみで完了することを確かめる
	b := newTestBatcher(c, Config{Wait: time.Minute, MaxBatch: 2})
	ctx := context.Background()

	t1 := b.LoadThunk(ctx, "a")
	t2 := b.LoadThunk(ctx, "b")

	done := make(chan struct{})
	go func() {
		t1()
		t2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loads did not complete: MaxBatch flush did not fire")
	}

	if got := c.callCount(); got != 1 {
		t.Errorf("store calls = %d, want 1", got)
	}
}

// Flushで明示的なウェーブ境界を引けることを検証
func TestBatcher_ExplicitFlush(t *testing.T) {
	c := &countingBatch{}
	b := newTestBatcher(c, Config{Wait: time.Minute})
	ctx := context.Background()

	t1 := b.LoadThunk(ctx, "a")
	b.Flush()

	done := make(chan struct{})
	go func() {
		t1()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("load did not complete after explicit Flush")
	}

	if got := c.callCount(); got != 1 {
		t.Errorf("store calls = %d, want 1", got)
	}
}

// キャンセル済みコンテキストでは新しいウェーブが開始されないことを検証
func TestBatcher_CanceledContextSchedulesNothing(t *testing.T) {
	c := &countingBatch{}
	b := newTestBatcher(c, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := b.Load(ctx, "a")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}

	// ウィンドウ満了後もストア呼び出しが発生していないこと
	time.Sleep(3 * DefaultWait)
	if got := c.callCount(); got != 0 {
		t.Errorf("store calls = %d, want 0", got)
	}
}

// 待機中のキャンセルが待機者だけを解放し、ウェーブ自体は完了することを検証
func TestBatcher_CancelWhileWaiting(t *testing.T) {
	release := make(chan struct{})
	c := &countingBatch{
		fn: func(keys []string) (map[string]Result[string], error) {
			<-release
			out := make(map[string]Result[string], len(keys))
			for _, k := range keys {
				out[k] = Result[string]{Value: "v:" + k, Found: true}
			}
			return out, nil
		},
	}
	b := newTestBatcher(c, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	wait := b.LoadThunk(ctx, "a")

	// フラッシュがストア呼び出しに入るのを待ってからキャンセルする
	for c.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	_, _, err := wait()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}

	// 進行中のフラッシュは完了させる（待機者を永久に未解決にしない）
	close(release)
	v, found, err := b.Load(context.Background(), "a")
	if err != nil || !found || v != "v:a" {
		t.Errorf("in-flight wave result = (%q, %v, %v), want (v:a, true, nil)", v, found, err)
	}
	if got := c.callCount(); got != 1 {
		t.Errorf("store calls = %d, want 1", got)
	}
}

// Primeで投入した値がストア呼び出しなしで返ることを検証
func TestBatcher_Prime(t *testing.T) {
	c := &countingBatch{}
	b := newTestBatcher(c, Config{})

	b.Prime("a", "primed")

	v, found, err := b.Load(context.Background(), "a")
	if err != nil || !found || v != "primed" {
		t.Errorf("Load = (%q, %v, %v), want (primed, true, nil)", v, found, err)
	}
	if got := c.callCount(); got != 0 {
		t.Errorf("store calls = %d, want 0", got)
	}
}

// BatchFuncのpanicがエラーに変換され、待機者が永久にブロックしないことを検証
func TestBatcher_PanicRecovered(t *testing.T) {
	c := &countingBatch{
		fn: func(keys []string) (map[string]Result[string], error) {
			panic("boom")
		},
	}
	b := newTestBatcher(c, Config{})

	done := make(chan error, 1)
	go func() {
		_, _, err := b.Load(context.Background(), "a")
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected error from panicking batch function")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("load blocked forever after batch function panic")
	}
}

// 別インスタンス（別クエリ）間で状態が漏れないことを検証
func TestBatcher_NoCrossInstanceLeakage(t *testing.T) {
	c := &countingBatch{}
	ctx := context.Background()

	// 同じクエリを2回、別々のBatcherで解決する
	for i := 0; i < 2; i++ {
		b := newTestBatcher(c, Config{})
		v, found, err := b.Load(ctx, "a")
		if err != nil || !found || v != "v:a" {
			t.Fatalf("query %d: Load = (%q, %v, %v)", i+1, v, found, err)
		}
	}

	// キャッシュが持ち越されないため、各クエリが1回ずつストアを呼ぶ
	if got := c.callCount(); got != 2 {
		t.Errorf("store calls = %d, want 2 (one per query)", got)
	}
}

// Observerにウェーブの種別とサイズが通知されることを検証
func TestBatcher_ObserverReceivesFlush(t *testing.T) {
	c := &countingBatch{}
	obs := &recordingObserver{}
	b := NewBatcher("user", c.batch, Config{}, obs)

	b.LoadMany(context.Background(), []string{"a", "b", "a"})

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.flushes) != 1 {
		t.Fatalf("flushes = %d, want 1", len(obs.flushes))
	}
	if obs.flushes[0].kind != "user" || obs.flushes[0].size != 2 {
		t.Errorf("flush = %+v, want {user 2}", obs.flushes[0])
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	flushes []struct {
		kind string
		size int
	}
}

func (o *recordingObserver) ObserveFlush(kind string, size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flushes = append(o.flushes, struct {
		kind string
		size int
	}{kind, size})
}

// 多数の並行ロードでも各キーの取得が高々1回であることを検証
func TestBatcher_ManyConcurrentKeys(t *testing.T) {
	c := &countingBatch{}
	b := newTestBatcher(c, Config{})
	ctx := context.Background()

	const keys = 50
	var wg sync.WaitGroup
	for i := 0; i < keys; i++ {
		for j := 0; j < 3; j++ { // 各キーを3回ずつ要求する
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				key := fmt.Sprintf("k-%d", n)
				v, found, err := b.Load(ctx, key)
				if err != nil || !found || v != "v:"+key {
					t.Errorf("Load(%s) = (%q, %v, %v)", key, v, found, err)
				}
			}(i)
		}
	}
	wg.Wait()

	// ウェーブ数は不定だが、全呼び出しのキー総数はユニークキー数と一致する
	c.mu.Lock()
	total := 0
	seen := make(map[string]bool)
	for _, call := range c.calls {
		for _, k := range call {
			total++
			if seen[k] {
				t.Errorf("key %s fetched more than once", k)
			}
			seen[k] = true
		}
	}
	c.mu.Unlock()
	if total != keys {
		t.Errorf("fetched key count = %d, want %d", total, keys)
	}
}
