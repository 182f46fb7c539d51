package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"dealspot/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type redemptionFixture struct {
	dealRepo       *fakeDealRepo
	redemptionRepo *fakeRedemptionRepo
	businessRepo   *fakeBusinessRepo
	store          *memStore
	service        RedemptionService
}

func newRedemptionFixture() *redemptionFixture {
	log := testLogger()
	dealRepo := newFakeDealRepo()
	redemptionRepo := &fakeRedemptionRepo{}
	businessRepo := newFakeBusinessRepo()
	store := newMemStore()
	cacheService := NewCacheService(store, log)
	return &redemptionFixture{
		dealRepo:       dealRepo,
		redemptionRepo: redemptionRepo,
		businessRepo:   businessRepo,
		store:          store,
		service:        NewRedemptionService(dealRepo, redemptionRepo, businessRepo, cacheService, log),
	}
}

func activeDeal(businessID primitive.ObjectID, quantity int) *models.Deal {
	now := time.Now()
	deal := &models.Deal{
		BusinessID:      businessID,
		Title:           "Two-for-one tacos",
		OriginalPrice:   20.00,
		DiscountedPrice: 10.00,
		StartsAt:        now.Add(-time.Hour),
		ExpiresAt:       now.Add(24 * time.Hour),
		Status:          models.DealStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if quantity >= 0 {
		deal.QuantityAvailable = &quantity
	}
	return deal
}

func TestRedeemSingleSuccess(t *testing.T) {
	f := newRedemptionFixture()
	business := f.businessRepo.put(&models.Business{Name: "Taqueria"})
	deal := f.dealRepo.put(activeDeal(business.ID, 5))
	userID := primitive.NewObjectID()

	result, err := f.service.Redeem(context.Background(), deal.ID, userID)
	if err != nil {
		t.Fatalf("Redeem returned error: %v", err)
	}
	if result.RedemptionCode == "" {
		t.Error("expected a non-empty redemption code")
	}
	if result.Receipt == nil {
		t.Fatal("expected a receipt")
	}
	if result.Receipt.SavingsAmount != 10.00 {
		t.Errorf("savings = %.2f, want 10.00", result.Receipt.SavingsAmount)
	}

	stored, err := f.dealRepo.GetByID(context.Background(), deal.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.QuantityRedeemed != 1 {
		t.Errorf("quantity_redeemed = %d, want 1", stored.QuantityRedeemed)
	}
	if stored.Status != models.DealStatusActive {
		t.Errorf("status = %s, want active", stored.Status)
	}

	rows := f.redemptionRepo.all()
	if len(rows) != 1 {
		t.Fatalf("redemption rows = %d, want 1", len(rows))
	}
	if rows[0].UserID != userID || rows[0].DealID != deal.ID {
		t.Error("redemption row not linked to the redeeming user and deal")
	}
}

// Running more concurrent redemptions than a deal has inventory must produce
// exactly one receipt per inventory unit; every extra call fails with a
// sold-out rejection and the final counter never exceeds the cap.
func TestRedeemNeverOversellsUnderContention(t *testing.T) {
	const quantity = 10
	const callers = 50

	f := newRedemptionFixture()
	business := f.businessRepo.put(&models.Business{Name: "Taqueria"})
	deal := f.dealRepo.put(activeDeal(business.ID, quantity))

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Redeem(context.Background(), deal.ID, primitive.NewObjectID())
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case IsInvalidState(err):
			rejected++
		default:
			t.Errorf("unexpected error kind: %v", err)
		}
	}
	if succeeded != quantity {
		t.Errorf("successes = %d, want %d", succeeded, quantity)
	}
	if rejected != callers-quantity {
		t.Errorf("rejections = %d, want %d", rejected, callers-quantity)
	}

	stored, err := f.dealRepo.GetByID(context.Background(), deal.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.QuantityRedeemed != quantity {
		t.Errorf("final quantity_redeemed = %d, want %d", stored.QuantityRedeemed, quantity)
	}
	if stored.Status != models.DealStatusSoldOut {
		t.Errorf("final status = %s, want sold_out", stored.Status)
	}
	if got := len(f.redemptionRepo.all()); got != quantity {
		t.Errorf("receipt rows = %d, want %d", got, quantity)
	}
}

func TestRedeemLastUnitRaceProducesOneReceipt(t *testing.T) {
	f := newRedemptionFixture()
	business := f.businessRepo.put(&models.Business{Name: "Cafe"})
	deal := f.dealRepo.put(activeDeal(business.ID, 1))

	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, userID := range []primitive.ObjectID{userA, userB} {
		wg.Add(1)
		go func(i int, userID primitive.ObjectID) {
			defer wg.Done()
			_, results[i] = f.service.Redeem(context.Background(), deal.ID, userID)
		}(i, userID)
	}
	wg.Wait()

	var failures int
	for _, err := range results {
		if err != nil {
			if !IsInvalidState(err) {
				t.Errorf("loser should fail with an invalid-state rejection, got %v", err)
			}
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("failures = %d, want exactly 1", failures)
	}

	rows := f.redemptionRepo.all()
	if len(rows) != 1 {
		t.Fatalf("receipt rows = %d, want 1", len(rows))
	}
	if rows[0].SavingsAmount != 10.00 {
		t.Errorf("savings = %.2f, want 10.00", rows[0].SavingsAmount)
	}

	stored, _ := f.dealRepo.GetByID(context.Background(), deal.ID)
	if stored.Status != models.DealStatusSoldOut {
		t.Errorf("status = %s, want sold_out", stored.Status)
	}
}

func TestRedeemUnlimitedDealNeverSellsOut(t *testing.T) {
	f := newRedemptionFixture()
	business := f.businessRepo.put(&models.Business{Name: "Bakery"})
	deal := f.dealRepo.put(activeDeal(business.ID, -1)) // nil quantity: unlimited

	for i := 0; i < 20; i++ {
		if _, err := f.service.Redeem(context.Background(), deal.ID, primitive.NewObjectID()); err != nil {
			t.Fatalf("redeem %d failed: %v", i, err)
		}
	}

	stored, _ := f.dealRepo.GetByID(context.Background(), deal.ID)
	if stored.Status != models.DealStatusActive {
		t.Errorf("status = %s, want active", stored.Status)
	}
	if stored.QuantityRedeemed != 20 {
		t.Errorf("quantity_redeemed = %d, want 20", stored.QuantityRedeemed)
	}
}

func TestRedeemExpiredDealFlipsStatus(t *testing.T) {
	f := newRedemptionFixture()
	business := f.businessRepo.put(&models.Business{Name: "Gym"})
	deal := activeDeal(business.ID, 5)
	deal.ExpiresAt = time.Now().Add(-time.Minute)
	f.dealRepo.put(deal)

	_, err := f.service.Redeem(context.Background(), deal.ID, primitive.NewObjectID())
	if !IsInvalidState(err) {
		t.Fatalf("want invalid-state rejection, got %v", err)
	}

	// The rejected call corrects the stale row.
	stored, _ := f.dealRepo.GetByID(context.Background(), deal.ID)
	if stored.Status != models.DealStatusExpired {
		t.Errorf("status = %s, want expired after corrective flip", stored.Status)
	}
	if stored.QuantityRedeemed != 0 {
		t.Errorf("quantity_redeemed = %d, want 0", stored.QuantityRedeemed)
	}
}

func TestRedeemNotStartedDeal(t *testing.T) {
	f := newRedemptionFixture()
	business := f.businessRepo.put(&models.Business{Name: "Spa"})
	deal := activeDeal(business.ID, 5)
	deal.StartsAt = time.Now().Add(time.Hour)
	f.dealRepo.put(deal)

	_, err := f.service.Redeem(context.Background(), deal.ID, primitive.NewObjectID())
	if !IsInvalidState(err) {
		t.Fatalf("want invalid-state rejection, got %v", err)
	}

	stored, _ := f.dealRepo.GetByID(context.Background(), deal.ID)
	if stored.Status != models.DealStatusActive {
		t.Errorf("status = %s, want active (no corrective flip before start)", stored.Status)
	}
}

func TestRedeemMissingDeal(t *testing.T) {
	f := newRedemptionFixture()
	_, err := f.service.Redeem(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	if err != ErrDealNotFound {
		t.Fatalf("want ErrDealNotFound, got %v", err)
	}
}

func TestRedeemSoldOutStatusIsTerminal(t *testing.T) {
	f := newRedemptionFixture()
	business := f.businessRepo.put(&models.Business{Name: "Bar"})
	deal := activeDeal(business.ID, 1)
	f.dealRepo.put(deal)

	if _, err := f.service.Redeem(context.Background(), deal.ID, primitive.NewObjectID()); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	_, err := f.service.Redeem(context.Background(), deal.ID, primitive.NewObjectID())
	if !IsInvalidState(err) {
		t.Fatalf("want invalid-state rejection, got %v", err)
	}

	stored, _ := f.dealRepo.GetByID(context.Background(), deal.ID)
	if stored.Status != models.DealStatusSoldOut || stored.QuantityRedeemed != 1 {
		t.Errorf("final state status=%s redeemed=%d, want sold_out/1", stored.Status, stored.QuantityRedeemed)
	}
}

func TestRedeemInvalidatesDealCache(t *testing.T) {
	f := newRedemptionFixture()
	business := f.businessRepo.put(&models.Business{Name: "Diner"})
	deal := f.dealRepo.put(activeDeal(business.ID, 3))

	key := DealCacheKey(deal.ID)
	if err := f.store.Set(context.Background(), key, deal, time.Minute); err != nil {
		t.Fatal(err)
	}

	if _, err := f.service.Redeem(context.Background(), deal.ID, primitive.NewObjectID()); err != nil {
		t.Fatal(err)
	}
	if f.store.has(key) {
		t.Error("deal cache entry should be invalidated after a redemption")
	}
}
