package dining

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tripchat/internal/maps"
)

type fakePlaces struct {
	places []maps.Place
	err    error
	query  string
	limit  int
}

func (f *fakePlaces) TextSearch(ctx context.Context, query string, limit int) ([]maps.Place, error) {
	f.query = query
	f.limit = limit
	return f.places, f.err
}

type fakeRecorder struct{ statuses []string }

func (r *fakeRecorder) ObserveProvider(provider, status string, d time.Duration) {
	r.statuses = append(r.statuses, provider+":"+status)
}

func TestBuildQuery(t *testing.T) {
	if got := BuildQuery("부산", ""); got != "부산 맛집" {
		t.Fatalf("got %q", got)
	}
	if got := BuildQuery("부산", "해변 근처"); got != "부산 해변 근처 맛집" {
		t.Fatalf("got %q", got)
	}
}

func TestRecommendMapsAtMostFive(t *testing.T) {
	var places []maps.Place
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		places = append(places, maps.Place{Name: "식당 " + n, Rating: 4.2, Address: "부산", PlaceID: "id-" + n})
	}
	fp := &fakePlaces{places: places}
	rec := &fakeRecorder{}
	svc := NewService(fp, time.Second, rec)

	got := svc.Recommend(context.Background(), "부산", "감성")
	if fp.query != "부산 감성 맛집" || fp.limit != MaxResults {
		t.Fatalf("query=%q limit=%d", fp.query, fp.limit)
	}
	if len(got) != MaxResults {
		t.Fatalf("len = %d, want %d", len(got), MaxResults)
	}
	if got[0].Name != "식당 a" || !strings.Contains(got[0].MapURL, "query=%EC%8B%9D%EB%8B%B9+a") || !strings.Contains(got[0].MapURL, "query_place_id=id-a") {
		t.Fatalf("first = %+v", got[0])
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != "places:ok" {
		t.Fatalf("statuses = %v", rec.statuses)
	}
}

func TestRecommendFailureIsEmpty(t *testing.T) {
	rec := &fakeRecorder{}
	svc := NewService(&fakePlaces{err: errors.New("REQUEST_DENIED")}, time.Second, rec)
	got := svc.Recommend(context.Background(), "부산", "")
	if got == nil || len(got) != 0 {
		t.Fatalf("got %v, want empty non-nil", got)
	}
	if rec.statuses[0] != "places:error" {
		t.Fatalf("statuses = %v", rec.statuses)
	}

	if got := NewService(&fakePlaces{}, 0, nil).Recommend(context.Background(), " ", ""); len(got) != 0 {
		t.Fatalf("empty destination produced %v", got)
	}
}
