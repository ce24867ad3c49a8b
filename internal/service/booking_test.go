package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"parkhub/internal/models"
	"parkhub/internal/redisstore"
)

// memStore is an in-memory BookingStore with the same atomicity contract as
// the Postgres implementation: one transaction at a time, rolled back on error.
type memStore struct {
	mu          sync.Mutex
	lots        map[int64]*models.ParkingLot
	spots       map[int64]*models.Spot
	bookings    map[int64]*models.Booking
	nextSpotID  int64
	nextBooking int64
}

func newMemStore() *memStore {
	return &memStore{
		lots:     make(map[int64]*models.ParkingLot),
		spots:    make(map[int64]*models.Spot),
		bookings: make(map[int64]*models.Booking),
	}
}

func (m *memStore) addLot(id int64, price float64, spotCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lots[id] = &models.ParkingLot{ID: id, Name: fmt.Sprintf("lot-%d", id), PricePerHour: price, MaxSpots: spotCount}
	for i := 0; i < spotCount; i++ {
		m.nextSpotID++
		m.spots[m.nextSpotID] = &models.Spot{ID: m.nextSpotID, LotID: id}
	}
}

func (m *memStore) InTx(_ context.Context, fn func(BookingTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	spotsBackup := make(map[int64]models.Spot, len(m.spots))
	for id, s := range m.spots {
		spotsBackup[id] = *s
	}
	bookingsBackup := make(map[int64]models.Booking, len(m.bookings))
	for id, b := range m.bookings {
		bookingsBackup[id] = *b
	}
	nextBackup := m.nextBooking

	if err := fn(&memTx{store: m}); err != nil {
		m.spots = make(map[int64]*models.Spot, len(spotsBackup))
		for id, s := range spotsBackup {
			copied := s
			m.spots[id] = &copied
		}
		m.bookings = make(map[int64]*models.Booking, len(bookingsBackup))
		for id, b := range bookingsBackup {
			copied := b
			m.bookings[id] = &copied
		}
		m.nextBooking = nextBackup
		return err
	}
	return nil
}

func (m *memStore) ActiveByUser(_ context.Context, userUID string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.UserUID == userUID && b.EndTime == nil {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStore) HistoryByUser(_ context.Context, userUID string) ([]models.BookingView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var views []models.BookingView
	for _, b := range m.bookings {
		if b.UserUID != userUID {
			continue
		}
		lotName := ""
		if spot, ok := m.spots[b.SpotID]; ok {
			if lot, ok := m.lots[spot.LotID]; ok {
				lotName = lot.Name
			}
		}
		views = append(views, models.BookingView{
			BookingID:     b.ID,
			ParkingLot:    lotName,
			VehicleNumber: b.VehicleNumber,
			Active:        b.EndTime == nil,
			StartTime:     b.StartTime,
			EndTime:       b.EndTime,
			Duration:      b.DurationHours,
			Cost:          b.Cost,
			PaymentStatus: b.PaymentStatus,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].StartTime.After(views[j].StartTime) })
	return views, nil
}

type memTx struct {
	store *memStore
}

func (t *memTx) HasActiveBooking(userUID string) (bool, error) {
	for _, b := range t.store.bookings {
		if b.UserUID == userUID && b.EndTime == nil {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) LotExists(lotID int64) (bool, error) {
	_, ok := t.store.lots[lotID]
	return ok, nil
}

func (t *memTx) LockFreeSpot(lotID int64) (int64, error) {
	var ids []int64
	for id, s := range t.store.spots {
		if s.LotID == lotID && !s.IsOccupied {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, ErrNoAvailability
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids[0], nil
}

func (t *memTx) SetSpotOccupied(spotID int64, occupied bool) error {
	spot, ok := t.store.spots[spotID]
	if !ok {
		return errors.New("memtx: spot missing")
	}
	spot.IsOccupied = occupied
	return nil
}

func (t *memTx) InsertBooking(b *models.Booking) error {
	for _, existing := range t.store.bookings {
		if existing.UserUID == b.UserUID && existing.EndTime == nil {
			return ErrAlreadyActive
		}
	}
	t.store.nextBooking++
	b.ID = t.store.nextBooking
	copied := *b
	t.store.bookings[b.ID] = &copied
	return nil
}

func (t *memTx) LockBooking(bookingID int64) (*models.Booking, error) {
	b, ok := t.store.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (t *memTx) LotBySpot(spotID int64) (*models.ParkingLot, error) {
	spot, ok := t.store.spots[spotID]
	if !ok {
		return nil, ErrLotNotFound
	}
	lot, ok := t.store.lots[spot.LotID]
	if !ok {
		return nil, ErrLotNotFound
	}
	copied := *lot
	return &copied, nil
}

func (t *memTx) CloseBooking(bookingID int64, end time.Time, hours, cost float64) error {
	b, ok := t.store.bookings[bookingID]
	if !ok || b.EndTime != nil {
		return ErrBookingNotFound
	}
	endCopy := end
	b.EndTime = &endCopy
	b.DurationHours = &hours
	b.Cost = &cost
	b.PaymentStatus = models.PaymentPaid
	return nil
}

type fakeCache struct {
	mu    sync.Mutex
	data  map[string]redisstore.ActiveBooking
	saves int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]redisstore.ActiveBooking)}
}

func (c *fakeCache) Save(_ context.Context, userUID string, booking redisstore.ActiveBooking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	c.data[userUID] = booking
	return nil
}

func (c *fakeCache) Get(_ context.Context, userUID string) (*redisstore.ActiveBooking, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	booking, ok := c.data[userUID]
	if !ok {
		return nil, redisstore.ErrCacheMiss
	}
	return &booking, nil
}

func (c *fakeCache) Delete(_ context.Context, userUID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, userUID)
	return nil
}

func (c *fakeCache) drop(userUID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, userUID)
}

func newEngine(store *memStore) *Booking {
	return NewBooking(store, nil, nil, zap.NewNop())
}

func TestClaimAssignsFreeSpot(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 20, 2)
	engine := newEngine(store)

	booking, err := engine.Claim(context.Background(), "user-a", 1, "KA-01-1234")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if booking.ID == 0 {
		t.Fatal("booking id not assigned")
	}
	if booking.PaymentStatus != models.PaymentPending {
		t.Fatalf("payment status = %q, want PENDING", booking.PaymentStatus)
	}
	if !store.spots[booking.SpotID].IsOccupied {
		t.Fatal("claimed spot not marked occupied")
	}
}

func TestClaimUnknownLot(t *testing.T) {
	store := newMemStore()
	engine := newEngine(store)

	if _, err := engine.Claim(context.Background(), "user-a", 99, "KA-01-1234"); !errors.Is(err, ErrLotNotFound) {
		t.Fatalf("err = %v, want ErrLotNotFound", err)
	}
}

func TestClaimSecondBookingRejected(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 20, 2)
	store.addLot(2, 30, 2)
	engine := newEngine(store)

	if _, err := engine.Claim(context.Background(), "user-a", 1, "KA-01-1234"); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	// A second claim must fail regardless of the target lot.
	if _, err := engine.Claim(context.Background(), "user-a", 2, "KA-01-1234"); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("err = %v, want ErrAlreadyActive", err)
	}
}

func TestClaimAgainAfterRelease(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 20, 1)
	engine := newEngine(store)

	booking, err := engine.Claim(context.Background(), "user-a", 1, "KA-01-1234")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := engine.Release(context.Background(), "user-a", booking.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := engine.Claim(context.Background(), "user-a", 1, "KA-01-1234"); err != nil {
		t.Fatalf("claim after release failed: %v", err)
	}
}

func TestConcurrentClaimsSingleSpot(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 20, 1)
	engine := newEngine(store)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := engine.Claim(context.Background(), fmt.Sprintf("user-%d", n), 1, "KA-01-1234")
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var succeeded, unavailable int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrNoAvailability):
			unavailable++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1", succeeded)
	}
	if unavailable != attempts-1 {
		t.Fatalf("unavailable = %d, want %d", unavailable, attempts-1)
	}
}

func TestConcurrentClaimsSameUser(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 20, 8)
	engine := newEngine(store)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Claim(context.Background(), "user-a", 1, "KA-01-1234")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrAlreadyActive) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1", succeeded)
	}
}

func TestReleaseComputesCharge(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 50, 1)
	engine := newEngine(store)

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	orig := timeNow
	defer func() { timeNow = orig }()

	timeNow = func() time.Time { return start }
	booking, err := engine.Claim(context.Background(), "user-a", 1, "KA-01-1234")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	timeNow = func() time.Time { return start.Add(90 * time.Minute) }
	result, err := engine.Release(context.Background(), "user-a", booking.ID)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if result.DurationHours != 1.5 {
		t.Fatalf("duration = %v, want 1.5", result.DurationHours)
	}
	if result.Cost != 75.0 {
		t.Fatalf("cost = %v, want 75.0", result.Cost)
	}
	if store.spots[booking.SpotID].IsOccupied {
		t.Fatal("spot still occupied after release")
	}

	closed := store.bookings[booking.ID]
	if closed.PaymentStatus != models.PaymentPaid {
		t.Fatalf("payment status = %q, want PAID", closed.PaymentStatus)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 50, 1)
	engine := newEngine(store)

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	orig := timeNow
	defer func() { timeNow = orig }()

	timeNow = func() time.Time { return start }
	booking, err := engine.Claim(context.Background(), "user-a", 1, "KA-01-1234")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	timeNow = func() time.Time { return start.Add(time.Hour) }
	first, err := engine.Release(context.Background(), "user-a", booking.ID)
	if err != nil {
		t.Fatalf("first release failed: %v", err)
	}

	// A later clock must not change the stored charge.
	timeNow = func() time.Time { return start.Add(5 * time.Hour) }
	second, err := engine.Release(context.Background(), "user-a", booking.ID)
	if err != nil {
		t.Fatalf("second release failed: %v", err)
	}
	if !second.AlreadyReleased {
		t.Fatal("second release not flagged as already released")
	}
	if second.DurationHours != first.DurationHours || second.Cost != first.Cost {
		t.Fatalf("second release returned %v/%v, want %v/%v",
			second.DurationHours, second.Cost, first.DurationHours, first.Cost)
	}
}

func TestConcurrentReleases(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 50, 1)
	engine := newEngine(store)

	booking, err := engine.Claim(context.Background(), "user-a", 1, "KA-01-1234")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan *models.ReleaseResult, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := engine.Release(context.Background(), "user-a", booking.ID)
			if err != nil {
				t.Errorf("release failed: %v", err)
				return
			}
			results <- result
		}()
	}
	wg.Wait()
	close(results)

	var mutated int
	var first *models.ReleaseResult
	for result := range results {
		if !result.AlreadyReleased {
			mutated++
		}
		if first == nil {
			first = result
		} else if result.DurationHours != first.DurationHours || result.Cost != first.Cost {
			t.Fatalf("inconsistent release results: %v/%v vs %v/%v",
				result.DurationHours, result.Cost, first.DurationHours, first.Cost)
		}
	}
	if mutated != 1 {
		t.Fatalf("mutating releases = %d, want exactly 1", mutated)
	}
	if store.spots[booking.SpotID].IsOccupied {
		t.Fatal("spot still occupied")
	}
}

func TestReleaseOwnership(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 50, 1)
	engine := newEngine(store)

	booking, err := engine.Claim(context.Background(), "user-a", 1, "KA-01-1234")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if _, err := engine.Release(context.Background(), "user-b", booking.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
	if _, err := engine.Release(context.Background(), "user-a", 404); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestCacheFollowsBookingLifecycle(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 20, 1)
	cache := newFakeCache()
	engine := NewBooking(store, cache, nil, zap.NewNop())
	ctx := context.Background()

	booking, err := engine.Claim(ctx, "user-a", 1, "KA-01-1234")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	cached, err := cache.Get(ctx, "user-a")
	if err != nil {
		t.Fatalf("claim did not write through: %v", err)
	}
	if cached.BookingID != booking.ID {
		t.Fatalf("cached booking id = %d, want %d", cached.BookingID, booking.ID)
	}

	active, err := engine.GetActive(ctx, "user-a")
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if active == nil || active.ID != booking.ID {
		t.Fatalf("active = %+v, want booking %d", active, booking.ID)
	}

	if _, err := engine.Release(ctx, "user-a", booking.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := cache.Get(ctx, "user-a"); err != redisstore.ErrCacheMiss {
		t.Fatalf("release did not clear cache: %v", err)
	}

	active, err = engine.GetActive(ctx, "user-a")
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if active != nil {
		t.Fatalf("active = %+v after release, want nil", active)
	}
}

// The read path must never fill the cache: a set racing a release's cache
// delete would pin a closed booking as active for the whole TTL. Only claim's
// write-through populates the cache.
func TestGetActiveDoesNotWriteCache(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 20, 1)
	cache := newFakeCache()
	engine := NewBooking(store, cache, nil, zap.NewNop())
	ctx := context.Background()

	booking, err := engine.Claim(ctx, "user-a", 1, "KA-01-1234")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	savesAfterClaim := cache.saves

	// Evicted entry: GetActive serves the store and leaves the cache alone.
	cache.drop("user-a")
	active, err := engine.GetActive(ctx, "user-a")
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if active == nil || active.ID != booking.ID {
		t.Fatalf("active = %+v, want booking %d", active, booking.ID)
	}
	if cache.saves != savesAfterClaim {
		t.Fatalf("get active wrote to cache: saves = %d, want %d", cache.saves, savesAfterClaim)
	}
	if _, err := cache.Get(ctx, "user-a"); err != redisstore.ErrCacheMiss {
		t.Fatalf("cache entry reappeared: %v", err)
	}

	if _, err := engine.Release(ctx, "user-a", booking.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	active, err = engine.GetActive(ctx, "user-a")
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if active != nil {
		t.Fatalf("active = %+v after release, want nil", active)
	}
	if cache.saves != savesAfterClaim {
		t.Fatalf("saves = %d after release, want %d", cache.saves, savesAfterClaim)
	}
}

func TestGetActive(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 20, 1)
	engine := newEngine(store)

	active, err := engine.GetActive(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if active != nil {
		t.Fatalf("active = %+v, want nil", active)
	}

	booking, err := engine.Claim(context.Background(), "user-a", 1, "KA-01-1234")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	active, err = engine.GetActive(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if active == nil || active.ID != booking.ID {
		t.Fatalf("active = %+v, want booking %d", active, booking.ID)
	}
}

func TestHistoryMostRecentFirst(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 20, 1)
	engine := newEngine(store)

	orig := timeNow
	defer func() { timeNow = orig }()

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		claimAt := base.Add(time.Duration(i) * 2 * time.Hour)
		timeNow = func() time.Time { return claimAt }
		booking, err := engine.Claim(context.Background(), "user-a", 1, "KA-01-1234")
		if err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
		releaseAt := claimAt.Add(time.Hour)
		timeNow = func() time.Time { return releaseAt }
		if _, err := engine.Release(context.Background(), "user-a", booking.ID); err != nil {
			t.Fatalf("release %d failed: %v", i, err)
		}
	}

	views, err := engine.History(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("history length = %d, want 3", len(views))
	}
	for i := 1; i < len(views); i++ {
		if views[i].StartTime.After(views[i-1].StartTime) {
			t.Fatal("history not ordered most recent first")
		}
	}
	if views[0].ParkingLot != "lot-1" {
		t.Fatalf("lot name = %q, want lot-1", views[0].ParkingLot)
	}
}

// Occupancy must match open bookings exactly after any interleaving of claims
// and releases.
func TestOccupancyConsistency(t *testing.T) {
	store := newMemStore()
	store.addLot(1, 10, 3)
	store.addLot(2, 20, 2)
	engine := newEngine(store)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			uid := fmt.Sprintf("user-%d", n)
			for j := 0; j < 20; j++ {
				lotID := int64(1 + (n+j)%2)
				booking, err := engine.Claim(context.Background(), uid, lotID, "KA-01-1234")
				if err != nil {
					continue
				}
				if j%3 != 0 {
					_, _ = engine.Release(context.Background(), uid, booking.ID)
				}
			}
		}(i)
	}
	wg.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	openBySpot := make(map[int64]int)
	for _, b := range store.bookings {
		if b.EndTime == nil {
			openBySpot[b.SpotID]++
		}
	}
	for id, spot := range store.spots {
		open := openBySpot[id]
		if open > 1 {
			t.Fatalf("spot %d has %d open bookings", id, open)
		}
		if spot.IsOccupied != (open == 1) {
			t.Fatalf("spot %d occupied=%v but open bookings=%d", id, spot.IsOccupied, open)
		}
	}
}
