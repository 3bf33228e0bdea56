package views

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/mr1hm/disaster-dashboard/internal/models"
)

type fakeResolver struct {
	mu     sync.Mutex
	calls  map[string]int
	places map[string]models.Coordinates
	delay  time.Duration
}

func newFakeResolver(places map[string]models.Coordinates) *fakeResolver {
	return &fakeResolver{calls: make(map[string]int), places: places}
}

func (f *fakeResolver) Resolve(ctx context.Context, place string) models.GeocodeResult {
	f.mu.Lock()
	f.calls[place]++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return models.Unresolved()
		case <-time.After(f.delay):
		}
	}

	c, ok := f.places[place]
	if !ok {
		return models.Unresolved()
	}
	return models.Resolved(c.Latitude, c.Longitude)
}

func (f *fakeResolver) callCount(place string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[place]
}

func testBuilder(r Resolver) *DensityBuilder {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDensityBuilder(r, NewGeocodeCache(), DensityConfig{Workers: 3}, logger, nil)
}

func extractedDataset(records ...models.Record) *models.Dataset {
	return models.NewDataset(records, models.Columns{DisasterType: true, ExtractedLocations: true}, "test.csv", time.Time{})
}

func TestDensity_ExtractedCategoryScenario(t *testing.T) {
	ds := extractedDataset(models.Record{
		Text:               "Flooding in two towns",
		DisasterType:       "Flood",
		ExtractedLocations: `[{'name': 'A', 'latitude': 10, 'longitude': 20}, {'name': 'B', 'latitude': -5, 'longitude': 15}]`,
	})
	b := testBuilder(nil)

	flood := b.Build(context.Background(), ds, "Flood")
	want := []models.Point{{Latitude: 10, Longitude: 20}, {Latitude: -5, Longitude: 15}}
	if !reflect.DeepEqual(flood.Points, want) {
		t.Errorf("Flood points = %v, want %v", flood.Points, want)
	}
	if flood.Mode != ModeExtracted || flood.Empty {
		t.Errorf("unexpected mode/empty: %s/%v", flood.Mode, flood.Empty)
	}
	if !reflect.DeepEqual(flood.Rows, []int{0, 0}) {
		t.Errorf("expected both points from row 0, got %v", flood.Rows)
	}

	quake := b.Build(context.Background(), ds, "Earthquake")
	if len(quake.Points) != 0 {
		t.Errorf("Earthquake points = %v, want empty", quake.Points)
	}
	if !quake.Empty || quake.Message != MessageNoPoints {
		t.Errorf("expected explicit no-data state, got empty=%v message=%q", quake.Empty, quake.Message)
	}
}

func TestDensity_CategoryIsExactMatch(t *testing.T) {
	ds := extractedDataset(
		models.Record{DisasterType: "Flood", ExtractedLocations: `[{"latitude": 1, "longitude": 1}]`},
		models.Record{DisasterType: "flood", ExtractedLocations: `[{"latitude": 2, "longitude": 2}]`},
		models.Record{DisasterType: "Flood ", ExtractedLocations: `[{"latitude": 3, "longitude": 3}]`},
	)

	got := testBuilder(nil).Build(context.Background(), ds, "Flood")

	if !reflect.DeepEqual(got.Points, []models.Point{{Latitude: 1, Longitude: 1}}) {
		t.Errorf("expected only the exact match, got %v", got.Points)
	}
}

func TestDensity_NoFilterFlattensAllRows(t *testing.T) {
	ds := extractedDataset(
		models.Record{DisasterType: "Flood", ExtractedLocations: `[{"latitude": 1, "longitude": 1}, {"latitude": 2, "longitude": 2}]`},
		models.Record{DisasterType: "Fire", ExtractedLocations: `[{"latitude": 3, "longitude": 3}]`},
		models.Record{DisasterType: "Fire"},
	)

	got := testBuilder(nil).Build(context.Background(), ds, "")

	if len(got.Points) != 3 {
		t.Errorf("expected 3 points, got %d", len(got.Points))
	}
}

func TestDensity_MalformedRowDoesNotAbort(t *testing.T) {
	ds := extractedDataset(
		models.Record{ExtractedLocations: `[{'latitude': 1, 'longitude'`},
		models.Record{ExtractedLocations: `[{'latitude': 4, 'longitude': 5}]`},
		models.Record{ExtractedLocations: `[{'latitude': 400, 'longitude': 5}]`},
	)

	got := testBuilder(nil).Build(context.Background(), ds, "")

	if !reflect.DeepEqual(got.Points, []models.Point{{Latitude: 4, Longitude: 5}}) {
		t.Errorf("unexpected points: %v", got.Points)
	}
	if got.MalformedRows != 1 {
		t.Errorf("expected 1 malformed row, got %d", got.MalformedRows)
	}
}

func TestDensity_GeocodesDistinctLocationsOnce(t *testing.T) {
	r := newFakeResolver(map[string]models.Coordinates{
		"Chennai": {Latitude: 13.08, Longitude: 80.27},
		"Mumbai":  {Latitude: 19.07, Longitude: 72.87},
	})
	records := []models.Record{
		{Location: "Chennai"},
		{Location: "Atlantis"},
		{Location: "Mumbai"},
		{Location: "Chennai"},
		{Location: ""},
		{Location: "Mumbai"},
	}
	ds := models.NewDataset(records, models.Columns{Location: true}, "test.csv", time.Time{})
	b := testBuilder(r)

	got := b.Build(context.Background(), ds, "")

	want := []models.Point{
		{Latitude: 13.08, Longitude: 80.27},
		{Latitude: 19.07, Longitude: 72.87},
		{Latitude: 13.08, Longitude: 80.27},
		{Latitude: 19.07, Longitude: 72.87},
	}
	if !reflect.DeepEqual(got.Points, want) {
		t.Errorf("points = %v, want %v", got.Points, want)
	}
	if !reflect.DeepEqual(got.Rows, []int{0, 2, 3, 5}) {
		t.Errorf("rows = %v", got.Rows)
	}
	if got.Mode != ModeGeocoded {
		t.Errorf("expected geocoded mode, got %s", got.Mode)
	}
	if got.Unresolved != 1 {
		t.Errorf("expected 1 unresolved row, got %d", got.Unresolved)
	}

	// A second view computation in the same session hits the cache only.
	b.Build(context.Background(), ds, "")
	for _, place := range []string{"Chennai", "Mumbai", "Atlantis"} {
		if n := r.callCount(place); n != 1 {
			t.Errorf("%s resolved %d times, want 1", place, n)
		}
	}
}

func TestDensity_MixedModesKeepRowOrder(t *testing.T) {
	r := newFakeResolver(map[string]models.Coordinates{"Lima": {Latitude: -12.04, Longitude: -77.04}})
	records := []models.Record{
		{Location: "Lima", DisasterType: "Earthquake"},
		{DisasterType: "Earthquake", ExtractedLocations: `[{"latitude": 35.68, "longitude": 139.69}]`},
		{Location: "Lima", DisasterType: "Flood"},
	}
	ds := models.NewDataset(records, models.Columns{Location: true, DisasterType: true, ExtractedLocations: true}, "test.csv", time.Time{})

	got := testBuilder(r).Build(context.Background(), ds, "Earthquake")

	want := []models.Point{{Latitude: -12.04, Longitude: -77.04}, {Latitude: 35.68, Longitude: 139.69}}
	if !reflect.DeepEqual(got.Points, want) {
		t.Errorf("points = %v, want %v", got.Points, want)
	}
	if got.Mode != ModeMixed {
		t.Errorf("expected mixed mode, got %s", got.Mode)
	}
}

func TestDensity_NoLocationColumns(t *testing.T) {
	ds := models.NewDataset([]models.Record{{Text: "x"}}, models.Columns{}, "test.csv", time.Time{})

	got := testBuilder(newFakeResolver(nil)).Build(context.Background(), ds, "")

	if !got.Empty || got.Message != MessageNoLocationData {
		t.Errorf("expected no-location message, got %+v", got)
	}
	if got.Points == nil || got.Cells == nil {
		t.Error("points and cells should be empty, not nil")
	}
}

func TestDensity_GeocodingDisabled(t *testing.T) {
	ds := models.NewDataset([]models.Record{{Location: "Paris"}}, models.Columns{Location: true}, "test.csv", time.Time{})

	got := testBuilder(nil).Build(context.Background(), ds, "")

	if !got.Empty || got.Mode != ModeNone {
		t.Errorf("expected empty result without geocoder, got %+v", got)
	}
}

func TestDensity_CancelledContextIsNotCached(t *testing.T) {
	r := newFakeResolver(map[string]models.Coordinates{"Oslo": {Latitude: 59.91, Longitude: 10.75}})
	r.delay = time.Second
	ds := models.NewDataset([]models.Record{{Location: "Oslo"}}, models.Columns{Location: true}, "test.csv", time.Time{})
	cache := NewGeocodeCache()
	b := NewDensityBuilder(r, cache, DensityConfig{Workers: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got := b.Build(ctx, ds, "")
	if len(got.Points) != 0 {
		t.Errorf("expected no points after cancellation, got %v", got.Points)
	}
	if cache.Len() != 0 {
		t.Errorf("cancelled lookups must not be cached, cache has %d entries", cache.Len())
	}
}

func TestAggregateCells(t *testing.T) {
	points := []models.Point{
		{Latitude: 10, Longitude: 20},
		{Latitude: 10.0001, Longitude: 20.0001},
		{Latitude: -40, Longitude: 150},
	}

	cells := aggregateCells(points, DefaultCellLevel)

	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d: %+v", len(cells), cells)
	}
	if cells[0].Count != 2 || cells[1].Count != 1 {
		t.Errorf("unexpected counts: %+v", cells)
	}
	if cells[0].Latitude < 9 || cells[0].Latitude > 11 {
		t.Errorf("cell centre too far from points: %+v", cells[0])
	}
	if cells[0].Token == "" {
		t.Error("expected a cell token")
	}
}

func TestGeocodeCache_ConcurrentCallersShareLookup(t *testing.T) {
	r := newFakeResolver(map[string]models.Coordinates{"Quito": {Latitude: -0.18, Longitude: -78.47}})
	r.delay = 20 * time.Millisecond
	cache := NewGeocodeCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := cache.Resolve(context.Background(), "Quito", r)
			if !res.IsResolved() {
				t.Error("expected resolved result")
			}
		}()
	}
	wg.Wait()

	if n := r.callCount("Quito"); n != 1 {
		t.Errorf("expected a single lookup, got %d", n)
	}
	if _, hit := cache.Resolve(context.Background(), "Quito", r); !hit {
		t.Error("expected cache hit after first resolution")
	}
}

func TestGeocodeCache_CancelledLeaderDoesNotFailOthers(t *testing.T) {
	r := newFakeResolver(map[string]models.Coordinates{"Lima": {Latitude: -12.05, Longitude: -77.04}})
	r.delay = 100 * time.Millisecond
	cache := NewGeocodeCache()

	leaderCtx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	var leader, follower models.GeocodeResult
	wg.Add(2)
	go func() {
		defer wg.Done()
		leader, _ = cache.Resolve(leaderCtx, "Lima", r)
	}()
	go func() {
		defer wg.Done()
		for r.callCount("Lima") == 0 {
			time.Sleep(time.Millisecond)
		}
		follower, _ = cache.Resolve(context.Background(), "Lima", r)
	}()
	wg.Wait()

	if leader.IsResolved() {
		t.Error("expected the cancelled caller to get an unresolved result")
	}
	if !follower.IsResolved() {
		t.Error("expected the live caller to resolve despite the cancelled lookup")
	}
	if res, ok := cache.Get("Lima"); !ok || !res.IsResolved() {
		t.Errorf("expected the live lookup to be cached, got %+v %v", res, ok)
	}
}

func TestCategories(t *testing.T) {
	ds := extractedDataset(
		models.Record{DisasterType: "Flood"},
		models.Record{DisasterType: "Earthquake"},
		models.Record{},
		models.Record{DisasterType: "Flood"},
	)

	got := Categories(ds)
	if !reflect.DeepEqual(got, []string{"Earthquake", "Flood"}) {
		t.Errorf("Categories = %v", got)
	}
}
