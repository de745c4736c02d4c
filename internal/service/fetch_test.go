package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ContestSync/internal/config"
	"ContestSync/internal/fetch"
	"ContestSync/internal/interfaces"
	"ContestSync/internal/model"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func testConfig(platforms ...string) *config.Config {
	cfg := &config.Config{
		Sync: config.SyncConfig{
			DegradedAfter: time.Hour,
			WarningAfter:  2 * time.Hour,
			CriticalAfter: 4 * time.Hour,
			RetentionAge:  30 * 24 * time.Hour,
		},
		Platforms: make(map[string]config.PlatformConfig),
	}
	for _, p := range platforms {
		cfg.Platforms[p] = config.PlatformConfig{
			Timeout:        1,
			RetryCount:     3,
			RetryBaseDelay: time.Millisecond,
			CacheTTL:       15 * time.Minute,
			SyncInterval:   time.Hour,
		}
	}
	return cfg
}

// memoryRepo 内存版仓储替身（保持与gorm实现相同的幂等upsert语义）
type memoryRepo struct {
	mu      sync.Mutex
	records map[string]*model.Contest
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]*model.Contest)}
}

func (r *memoryRepo) Upsert(ctx context.Context, contest *model.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[contest.StableID]; ok {
		// 可变字段就地覆盖，创建簿记保留
		created := existing.CreatedAt
		clone := *contest
		clone.CreatedAt = created
		r.records[contest.StableID] = &clone
		return nil
	}
	clone := *contest
	clone.CreatedAt = time.Now()
	r.records[contest.StableID] = &clone
	return nil
}

func (r *memoryRepo) UpsertBatch(ctx context.Context, contests []*model.Contest) (int, error) {
	saved := 0
	for _, c := range contests {
		if err := r.Upsert(ctx, c); err != nil {
			continue
		}
		saved++
	}
	return saved, nil
}

func (r *memoryRepo) Find(ctx context.Context, filter interfaces.ContestFilter) ([]*model.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Contest
	for _, c := range r.records {
		if filter.Platform != "" && c.Platform != filter.Platform {
			continue
		}
		if filter.OnlyActive && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryRepo) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, c := range r.records {
		if c.EndTime.Before(cutoff) {
			delete(r.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakeProvider 固定链的ChainProvider替身
type fakeProvider struct {
	chains map[model.PlatformType][]interfaces.SourceAdapter
}

func (f *fakeProvider) ListPlatforms() []model.PlatformType {
	var platforms []model.PlatformType
	for _, p := range model.AllPlatforms {
		if _, ok := f.chains[p]; ok {
			platforms = append(platforms, p)
		}
	}
	return platforms
}

func (f *fakeProvider) Chain(platform model.PlatformType) ([]interfaces.SourceAdapter, error) {
	return f.chains[platform], nil
}

// countingAdapter 记录调用次数的适配器替身
type countingAdapter struct {
	mu     sync.Mutex
	source model.SourceType
	raws   []*model.RawContest
	err    error
	calls  int
}

func (a *countingAdapter) SourceType() model.SourceType { return a.source }

func (a *countingAdapter) FetchContests(ctx context.Context, platform model.PlatformType) ([]*model.RawContest, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return a.raws, nil
}

func (a *countingAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func cfRaws(ids ...int64) []*model.RawContest {
	var raws []*model.RawContest
	for _, id := range ids {
		raws = append(raws, &model.RawContest{
			Platform: model.PlatformCodeforces,
			Source:   model.SourceOfficialAPI,
			Data: model.CodeforcesContest{
				ID:               id,
				Name:             "Codeforces Round (Div. 2)",
				StartTimeSeconds: testNow.Add(2 * time.Hour).Unix(),
				DurationSeconds:  7200,
			},
		})
	}
	return raws
}

func synRaws(n int) []*model.RawContest {
	var raws []*model.RawContest
	for i := 1; i <= n; i++ {
		start := testNow.Add(time.Duration(i) * 24 * time.Hour)
		raws = append(raws, &model.RawContest{
			Platform: model.PlatformCodeforces,
			Source:   model.SourceSynthetic,
			Data: model.SyntheticContest{
				Seq:       i,
				Name:      "Codeforces Round (Div. 2) #100",
				StartUnix: start.Unix(),
				EndUnix:   start.Add(2 * time.Hour).Unix(),
			},
		})
	}
	return raws
}

func newTestService(adapters ...interfaces.SourceAdapter) (*FetchService, *memoryRepo) {
	repo := newMemoryRepo()
	provider := &fakeProvider{chains: map[model.PlatformType][]interfaces.SourceAdapter{
		model.PlatformCodeforces: adapters,
	}}
	svc := NewFetchService(testConfig("codeforces"), provider, repo, testLogger())
	svc.Now = func() time.Time { return testNow }
	return svc, repo
}

// TTL窗口内的两次抓取只触发一轮适配器调用
func TestFetchRespectsCache(t *testing.T) {
	official := &countingAdapter{source: model.SourceOfficialAPI, raws: cfRaws(1, 2)}
	svc, _ := newTestService(official)

	first, err := svc.FetchPlatform(context.Background(), model.PlatformCodeforces)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if first.FromCache || first.Count != 2 {
		t.Errorf("first outcome wrong: %+v", first)
	}

	second, err := svc.FetchPlatform(context.Background(), model.PlatformCodeforces)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if !second.FromCache {
		t.Error("second fetch inside TTL must come from cache")
	}
	if official.callCount() != 1 {
		t.Errorf("adapter invocations: got %d, want 1", official.callCount())
	}
}

// 全部网络适配器失败→synthetic产出、错误计数+1、结果非空
func TestFetchDegradesToSynthetic(t *testing.T) {
	official := &countingAdapter{source: model.SourceOfficialAPI, err: &fetch.TimeoutError{Op: "cf"}}
	syn := &countingAdapter{source: model.SourceSynthetic, raws: synRaws(7)}
	svc, repo := newTestService(official, syn)

	outcome, err := svc.FetchPlatform(context.Background(), model.PlatformCodeforces)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if outcome.Source != model.SourceSynthetic {
		t.Errorf("source: got %v, want synthetic", outcome.Source)
	}
	if !outcome.Degraded || outcome.Count == 0 {
		t.Errorf("degraded outcome wrong: %+v", outcome)
	}
	if repo.count() == 0 {
		t.Error("synthetic batch must still be persisted")
	}

	health := svc.Health()[model.PlatformCodeforces]
	if health.ConsecutiveErrors != 1 {
		t.Errorf("consecutive errors: got %d, want 1", health.ConsecutiveErrors)
	}
	if health.LastSuccessfulFetch != nil {
		t.Error("degraded cycle must not count as a successful fetch")
	}
}

// 同平台并发触发：在途周期存在时第二次为no-op，不重复调用适配器
func TestFetchInFlightGuard(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	blocking := &blockingAdapter{
		source:  model.SourceOfficialAPI,
		raws:    cfRaws(1),
		entered: entered,
		release: release,
	}
	svc, _ := newTestService(blocking)

	done := make(chan *FetchOutcome, 1)
	go func() {
		outcome, _ := svc.FetchPlatform(context.Background(), model.PlatformCodeforces)
		done <- outcome
	}()

	<-entered
	second, err := svc.FetchPlatform(context.Background(), model.PlatformCodeforces)
	if err != nil {
		t.Fatalf("second trigger failed: %v", err)
	}
	if !second.Skipped {
		t.Error("second trigger while in flight must be skipped")
	}

	close(release)
	first := <-done
	if first.Skipped {
		t.Error("first trigger must run to completion")
	}
	if blocking.callCount() != 1 {
		t.Errorf("adapter invocations: got %d, want 1", blocking.callCount())
	}
}

// blockingAdapter 进入后阻塞直到release（并发测试用）
type blockingAdapter struct {
	mu      sync.Mutex
	source  model.SourceType
	raws    []*model.RawContest
	entered chan struct{}
	release chan struct{}
	calls   int
	once    sync.Once
}

func (a *blockingAdapter) SourceType() model.SourceType { return a.source }

func (a *blockingAdapter) FetchContests(ctx context.Context, platform model.PlatformType) ([]*model.RawContest, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	a.once.Do(func() { close(a.entered) })
	<-a.release
	return a.raws, nil
}

func (a *blockingAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// 同一stable_id两次upsert只留一条；字段变化就地更新
func TestUpsertIdempotence(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()

	c := &model.Contest{
		StableID:  "codeforces-1234",
		Platform:  model.PlatformCodeforces,
		Name:      "Codeforces Round (Div. 2)",
		StartTime: testNow.Add(time.Hour),
		EndTime:   testNow.Add(3 * time.Hour),
	}
	if err := repo.Upsert(ctx, c); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.Upsert(ctx, c); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if repo.count() != 1 {
		t.Fatalf("records: got %d, want 1", repo.count())
	}

	changed := *c
	changed.Name = "Codeforces Round (Div. 2) [Rescheduled]"
	changed.StartTime = testNow.Add(2 * time.Hour)
	if err := repo.Upsert(ctx, &changed); err != nil {
		t.Fatalf("update upsert failed: %v", err)
	}
	if repo.count() != 1 {
		t.Fatalf("update must not create a duplicate, got %d records", repo.count())
	}
	stored, _ := repo.Find(ctx, interfaces.ContestFilter{})
	if stored[0].Name != changed.Name {
		t.Errorf("name not updated in place: %q", stored[0].Name)
	}
}

// 健康分级阈值
func TestHealthClassification(t *testing.T) {
	official := &countingAdapter{source: model.SourceOfficialAPI, raws: cfRaws(1)}
	svc, _ := newTestService(official)

	// 从未成功→critical
	if got := svc.Health()[model.PlatformCodeforces].Status; got != HealthCritical {
		t.Errorf("never fetched: got %v, want critical", got)
	}

	if _, err := svc.FetchPlatform(context.Background(), model.PlatformCodeforces); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	cases := []struct {
		elapsed time.Duration
		want    HealthStatus
	}{
		{30 * time.Minute, HealthHealthy},
		{90 * time.Minute, HealthDegraded},
		{3 * time.Hour, HealthWarning},
		{5 * time.Hour, HealthCritical},
	}
	for _, tc := range cases {
		svc.Now = func() time.Time { return testNow.Add(tc.elapsed) }
		if got := svc.Health()[model.PlatformCodeforces].Status; got != tc.want {
			t.Errorf("elapsed %v: got %v, want %v", tc.elapsed, got, tc.want)
		}
	}
}
