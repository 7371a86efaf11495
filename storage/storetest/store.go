// Package storetest provides an in-memory storage.Store double for tests.
// It mirrors the transactional guarantees of the Postgres implementation by
// serializing every operation behind one mutex.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/araneta/postoko-sub002/models"
	"github.com/araneta/postoko-sub002/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu sync.Mutex

	accounts   map[uuid.UUID]models.PointsAccount
	ledger     []models.LedgerEntry
	settings   map[uuid.UUID]models.LoyaltySettings
	promotions map[uuid.UUID]models.Promotion
	usage      []models.PromotionUsage
	orders     map[uuid.UUID]models.Order
	users      map[string]models.User

	// ApplyEntryErr, when set, is returned by ApplyEntry. Used to exercise
	// partial-failure paths.
	ApplyEntryErr error

	// CreateOrderErr, when set, is returned by CreateOrder.
	CreateOrderErr error

	// CountUsageHook, when set, runs after a usage count has been read and
	// before it is returned, outside the store lock. Lets tests hold
	// several callers inside the count-then-write window at once.
	CountUsageHook func()
}

var _ storage.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts:   make(map[uuid.UUID]models.PointsAccount),
		settings:   make(map[uuid.UUID]models.LoyaltySettings),
		promotions: make(map[uuid.UUID]models.Promotion),
		orders:     make(map[uuid.UUID]models.Order),
		users:      make(map[string]models.User),
	}
}

// SeedSettings installs loyalty settings for a store.
func (s *Store) SeedSettings(settings models.LoyaltySettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.StoreInfoID] = settings
}

// SeedPromotion installs a promotion.
func (s *Store) SeedPromotion(promo models.Promotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if promo.ID == uuid.Nil {
		promo.ID = uuid.New()
	}
	s.promotions[promo.ID] = promo
}

// SeedUser installs a user, keyed by email and phone.
func (s *Store) SeedUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.Email != nil {
		s.users[*user.Email] = user
	}
	if user.Phone != nil {
		s.users[*user.Phone] = user
	}
}

// SeedUsage installs a promotion usage row directly.
func (s *Store) SeedUsage(usage models.PromotionUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}
	s.usage = append(s.usage, usage)
}

// SeedAccount installs a points account directly, bypassing the ledger.
func (s *Store) SeedAccount(acct models.PointsAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acct.CustomerID] = acct
}

// LedgerEntries returns a copy of all ledger entries, oldest first.
func (s *Store) LedgerEntries() []models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LedgerEntry, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// Orders returns a copy of all persisted orders.
func (s *Store) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// UsageRows returns a copy of all promotion usage rows.
func (s *Store) UsageRows() []models.PromotionUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PromotionUsage, len(s.usage))
	copy(out, s.usage)
	return out
}

func (s *Store) GetAccount(ctx context.Context, customerID uuid.UUID) (*models.PointsAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[customerID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &acct, nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, customerID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []models.LedgerEntry
	for i := len(s.ledger) - 1; i >= 0; i-- {
		if s.ledger[i].CustomerID == customerID {
			entries = append(entries, s.ledger[i])
			if limit > 0 && len(entries) == limit {
				break
			}
		}
	}
	return entries, nil
}

func (s *Store) ListInactiveAccounts(ctx context.Context, cutoff time.Time) ([]models.PointsAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var accounts []models.PointsAccount
	for _, acct := range s.accounts {
		if acct.PointsBalance > 0 && acct.LastActivity.Before(cutoff) {
			accounts = append(accounts, acct)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].LastActivity.Before(accounts[j].LastActivity)
	})
	return accounts, nil
}

func (s *Store) GetSettings(ctx context.Context, storeInfoID uuid.UUID) (*models.LoyaltySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, ok := s.settings[storeInfoID]
	if !ok {
		settings = models.DefaultLoyaltySettings(storeInfoID)
		settings.UpdatedAt = time.Now()
		s.settings[storeInfoID] = settings
	}
	return &settings, nil
}

func (s *Store) UpdateSettings(ctx context.Context, storeInfoID uuid.UUID, update storage.SettingsUpdate) (*models.LoyaltySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, ok := s.settings[storeInfoID]
	if !ok {
		settings = models.DefaultLoyaltySettings(storeInfoID)
	}
	if update.PointsPerCurrency != nil {
		settings.PointsPerCurrency = *update.PointsPerCurrency
	}
	if update.RedemptionRate != nil {
		settings.RedemptionRate = *update.RedemptionRate
	}
	if update.MinimumRedemption != nil {
		settings.MinimumRedemption = *update.MinimumRedemption
	}
	if update.ClearExpiry {
		settings.ExpiryMonths = nil
	} else if update.ExpiryMonths != nil {
		months := *update.ExpiryMonths
		settings.ExpiryMonths = &months
	}
	if update.Enabled != nil {
		settings.Enabled = *update.Enabled
	}
	settings.UpdatedAt = time.Now()
	s.settings[storeInfoID] = settings
	return &settings, nil
}

func (s *Store) ApplyEntry(ctx context.Context, entry *models.LedgerEntry) (*models.PointsAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ApplyEntryErr != nil {
		return nil, s.ApplyEntryErr
	}

	if entry.EntryType == models.EntryEarned && entry.OrderID != nil {
		for _, existing := range s.ledger {
			if existing.EntryType == models.EntryEarned && existing.OrderID != nil && *existing.OrderID == *entry.OrderID {
				return nil, storage.ErrDuplicateEarn
			}
		}
	}

	acct, ok := s.accounts[entry.CustomerID]
	if !ok {
		acct = models.PointsAccount{
			CustomerID: entry.CustomerID,
			Tier:       models.TierBronze,
		}
	}

	newBalance := acct.PointsBalance + entry.PointsDelta
	if newBalance < 0 {
		return nil, storage.ErrInsufficientBalance
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.ledger = append(s.ledger, *entry)

	acct.PointsBalance = newBalance
	switch entry.EntryType {
	case models.EntryEarned:
		acct.TotalEarned += entry.PointsDelta
	case models.EntryRedeemed:
		acct.TotalRedeemed += -entry.PointsDelta
	}
	acct.Tier = models.TierFor(acct.TotalEarned)
	acct.LastActivity = time.Now()
	acct.UpdatedAt = time.Now()
	s.accounts[entry.CustomerID] = acct
	return &acct, nil
}

func (s *Store) GetPromotion(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	promo, ok := s.promotions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &promo, nil
}

func (s *Store) ListPromotions(ctx context.Context, storeInfoID uuid.UUID, activeOnly bool, now time.Time) ([]models.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var promos []models.Promotion
	for _, promo := range s.promotions {
		if promo.StoreInfoID != storeInfoID || promo.DeletedAt != nil {
			continue
		}
		if activeOnly && !promo.ActiveAt(now) {
			continue
		}
		promos = append(promos, promo)
	}
	sort.Slice(promos, func(i, j int) bool { return promos[i].CreatedAt.Before(promos[j].CreatedAt) })
	return promos, nil
}

func (s *Store) FindActiveByCode(ctx context.Context, storeInfoID uuid.UUID, code string, now time.Time) (*models.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var match *models.Promotion
	for id := range s.promotions {
		promo := s.promotions[id]
		if promo.StoreInfoID != storeInfoID || !promo.ActiveAt(now) || !promo.HasCode(code) {
			continue
		}
		if match == nil || promo.CreatedAt.After(match.CreatedAt) {
			m := promo
			match = &m
		}
	}
	if match == nil {
		return nil, storage.ErrNotFound
	}
	return match, nil
}

func (s *Store) CountUsage(ctx context.Context, promotionID uuid.UUID) (int, error) {
	s.mu.Lock()
	count := 0
	for _, u := range s.usage {
		if u.PromotionID == promotionID {
			count++
		}
	}
	hook := s.CountUsageHook
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return count, nil
}

func (s *Store) CountCustomerUsage(ctx context.Context, promotionID, customerID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, u := range s.usage {
		if u.PromotionID == promotionID && u.CustomerID != nil && *u.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

func (s *Store) PromotionStats(ctx context.Context, storeInfoID uuid.UUID, now time.Time) (*storage.PromotionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := storage.PromotionStats{TotalDiscount: decimal.Zero}
	for _, promo := range s.promotions {
		if promo.StoreInfoID != storeInfoID || promo.DeletedAt != nil {
			continue
		}
		stats.TotalPromotions++
		if promo.ActiveAt(now) {
			stats.ActivePromotions++
		}
	}
	for _, u := range s.usage {
		promo, ok := s.promotions[u.PromotionID]
		if !ok || promo.StoreInfoID != storeInfoID {
			continue
		}
		stats.TotalUsage++
		stats.TotalDiscount = stats.TotalDiscount.Add(u.DiscountAmount)
	}
	return &stats, nil
}

func (s *Store) CreatePromotion(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := *promo
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	s.promotions[created.ID] = created
	return &created, nil
}

func (s *Store) UpdatePromotion(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.promotions[promo.ID]
	if !ok || existing.DeletedAt != nil {
		return nil, storage.ErrNotFound
	}
	updated := *promo
	updated.StoreInfoID = existing.StoreInfoID
	updated.CreatedAt = existing.CreatedAt
	updated.CreatedBy = existing.CreatedBy
	updated.ImageURL = existing.ImageURL
	updated.UpdatedAt = time.Now()
	s.promotions[promo.ID] = updated
	return &updated, nil
}

func (s *Store) SoftDeletePromotion(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	promo, ok := s.promotions[id]
	if !ok || promo.DeletedAt != nil {
		return storage.ErrNotFound
	}
	now := time.Now()
	promo.DeletedAt = &now
	promo.IsActive = false
	s.promotions[id] = promo
	return nil
}

func (s *Store) HardDeletePromotion(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.promotions[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.promotions, id)
	return nil
}

func (s *Store) SetPromotionImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	promo, ok := s.promotions[id]
	if !ok || promo.DeletedAt != nil {
		return storage.ErrNotFound
	}
	promo.ImageURL = &imageURL
	promo.UpdatedAt = time.Now()
	s.promotions[id] = promo
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order, usage *models.PromotionUsage) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateOrderErr != nil {
		return nil, s.CreateOrderErr
	}

	created := *order
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	for i := range created.Items {
		if created.Items[i].ID == uuid.Nil {
			created.Items[i].ID = uuid.New()
		}
		created.Items[i].OrderID = created.ID
	}
	s.orders[created.ID] = created

	if usage != nil {
		u := *usage
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		u.OrderID = created.ID
		u.UsedAt = time.Now()
		s.usage = append(s.usage, u)
	}
	return &created, nil
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &order, nil
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[login]
	if !ok || !user.IsActive || user.DeletedAt != nil {
		return nil, storage.ErrNotFound
	}
	return &user, nil
}
