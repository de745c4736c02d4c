package synthetic

import (
	"context"
	"testing"
	"time"

	"ContestSync/internal/model"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func testAdapter() *Adapter {
	a := NewAdapter(testLogger()).(*Adapter)
	a.Now = func() time.Time { return testNow }
	return a
}

// 给定时钟产出完全确定：固定7条，2条已结束+5条未开赛
func TestSyntheticDeterminism(t *testing.T) {
	a := testAdapter()
	first, err := a.FetchContests(context.Background(), model.PlatformCodeforces)
	if err != nil {
		t.Fatalf("synthetic adapter must never fail: %v", err)
	}
	if len(first) != pastCount+upcomingCount {
		t.Fatalf("raws: got %d, want %d", len(first), pastCount+upcomingCount)
	}

	second, err := a.FetchContests(context.Background(), model.PlatformCodeforces)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	for i := range first {
		if first[i].NativeID != second[i].NativeID {
			t.Errorf("native id %d not stable: %q vs %q", i, first[i].NativeID, second[i].NativeID)
		}
		if first[i].Data.(model.SyntheticContest) != second[i].Data.(model.SyntheticContest) {
			t.Errorf("entry %d not deterministic", i)
		}
	}

	past, upcoming := 0, 0
	for _, raw := range first {
		sc := raw.Data.(model.SyntheticContest)
		if time.Unix(sc.EndUnix, 0).Before(testNow) {
			past++
		}
		if time.Unix(sc.StartUnix, 0).After(testNow) {
			upcoming++
		}
	}
	if past != pastCount || upcoming != upcomingCount {
		t.Errorf("schedule split: past=%d upcoming=%d", past, upcoming)
	}
}

// 命名与链接遵循平台惯例
func TestSyntheticPlatformNaming(t *testing.T) {
	a := testAdapter()
	raws, err := a.FetchContests(context.Background(), model.PlatformLeetCode)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	sc := raws[0].Data.(model.SyntheticContest)
	if sc.URL != platformHomepages[model.PlatformLeetCode] {
		t.Errorf("url: got %q", sc.URL)
	}
	if raws[0].Source != model.SourceSynthetic {
		t.Errorf("source: got %v", raws[0].Source)
	}
}
