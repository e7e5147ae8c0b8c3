package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rigsync/backend/internal/domain"
)

func TestCatalogStore(t *testing.T) {
	ctx := context.Background()
	a := domain.CatalogProduct{ID: uuid.New(), Brand: "Klark-Teknik", Model: "DN-360", IdentifierCode: "PSM00010"}
	b := domain.CatalogProduct{ID: uuid.New(), Brand: "KT", Model: "DN360", IdentifierCode: "PSM00010"}
	legacy := domain.CatalogProduct{ID: uuid.New(), Brand: "Shure", Model: "SM58", IdentifierCode: "LEGACY-99999"}
	store, err := NewCatalogStore(a, b, legacy)
	if err != nil {
		t.Fatalf("NewCatalogStore() error = %v", err)
	}

	t.Run("list keeps insertion order", func(t *testing.T) {
		products, err := store.ListProducts(ctx)
		if err != nil {
			t.Fatalf("ListProducts() error = %v", err)
		}
		if len(products) != 3 || products[0].ID != a.ID || products[2].ID != legacy.ID {
			t.Errorf("ListProducts() = %+v", products)
		}
	})

	t.Run("find by id", func(t *testing.T) {
		got, err := store.FindProductByID(ctx, b.ID)
		if err != nil || got.Model != "DN360" {
			t.Errorf("FindProductByID() = %+v, %v", got, err)
		}
		if _, err := store.FindProductByID(ctx, uuid.New()); !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("error = %v, want ErrProductNotFound", err)
		}
	})

	t.Run("find by identifier code", func(t *testing.T) {
		got, err := store.FindProductsByIdentifierCode(ctx, "PSM00010")
		if err != nil || len(got) != 2 {
			t.Errorf("FindProductsByIdentifierCode() = %+v, %v", got, err)
		}
	})

	t.Run("max suffix ignores foreign codes", func(t *testing.T) {
		got, err := store.MaxIdentifierSuffix(ctx)
		if err != nil || got != 10 {
			t.Errorf("MaxIdentifierSuffix() = %d, %v, want 10", got, err)
		}
	})

	t.Run("create assigns id and rejects duplicates", func(t *testing.T) {
		p := &domain.CatalogProduct{Brand: "Robe", Model: "Robin 600", IdentifierCode: "PSM00011"}
		if err := store.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct() error = %v", err)
		}
		if p.ID == uuid.Nil {
			t.Error("CreateProduct() did not assign an id")
		}
		if err := store.CreateProduct(ctx, p); !errors.Is(err, domain.ErrDuplicateKey) {
			t.Errorf("error = %v, want ErrDuplicateKey", err)
		}
		if got, _ := store.MaxIdentifierSuffix(ctx); got != 11 {
			t.Errorf("MaxIdentifierSuffix() = %d, want 11", got)
		}
	})
}

func TestNewCatalogStore_DuplicateSeed(t *testing.T) {
	a := domain.CatalogProduct{ID: uuid.New(), Brand: "Shure", Model: "SM58"}
	b := domain.CatalogProduct{ID: a.ID, Brand: "Shure", Model: "Beta 58A"}

	store, err := NewCatalogStore(a, b)
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("NewCatalogStore() error = %v, want ErrDuplicateKey", err)
	}
	if store != nil {
		t.Error("NewCatalogStore() returned a store alongside an error")
	}
}

func TestStockStore(t *testing.T) {
	ctx := context.Background()
	store := NewStockStore()
	user, company, product := uuid.New(), uuid.New(), uuid.New()

	if _, err := store.FindStock(ctx, user, company, product); !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("error = %v, want ErrStockNotFound", err)
	}

	price := decimal.RequireFromString("149.99")
	record := &domain.StockRecord{UserID: user, CompanyID: company, ProductID: product, Quantity: 2, Price: &price}
	if err := store.CreateStock(ctx, record); err != nil {
		t.Fatalf("CreateStock() error = %v", err)
	}
	if err := store.CreateStock(ctx, record); !errors.Is(err, domain.ErrDuplicateKey) {
		t.Errorf("second CreateStock() error = %v, want ErrDuplicateKey", err)
	}

	// mutating the caller's value must not leak into the store
	price = decimal.Zero

	got, err := store.FindStock(ctx, user, company, product)
	if err != nil {
		t.Fatalf("FindStock() error = %v", err)
	}
	if !got.Price.Equal(decimal.RequireFromString("149.99")) {
		t.Errorf("price = %s, want 149.99", got.Price)
	}

	got.Quantity = 7
	if err := store.UpdateStock(ctx, got); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}
	again, _ := store.FindStock(ctx, user, company, product)
	if again.Quantity != 7 {
		t.Errorf("quantity = %d, want 7", again.Quantity)
	}

	missing := &domain.StockRecord{UserID: user, CompanyID: company, ProductID: uuid.New()}
	if err := store.UpdateStock(ctx, missing); !errors.Is(err, domain.ErrStockNotFound) {
		t.Errorf("error = %v, want ErrStockNotFound", err)
	}
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	session := &domain.ImportSession{Status: domain.SessionActive}
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	rows := []domain.ImportRow{
		{RowNumber: 2, Description: "Shure SM58 vocal microphone", Status: domain.RowPending},
		{RowNumber: 3, Description: "AAAAA 123 123 123", Status: domain.RowRejected},
	}
	if err := store.ReplaceRows(ctx, session.ID, rows); err != nil {
		t.Fatalf("ReplaceRows() error = %v", err)
	}

	listed, err := store.ListRows(ctx, session.ID)
	if err != nil || len(listed) != 2 {
		t.Fatalf("ListRows() = %+v, %v", listed, err)
	}
	if listed[0].ID == uuid.Nil || listed[0].SessionID != session.ID {
		t.Errorf("row ids not assigned: %+v", listed[0])
	}

	t.Run("candidates are replaced not merged", func(t *testing.T) {
		rowID := listed[0].ID
		first := []domain.MatchCandidate{{ProductID: uuid.New(), Confidence: 0.9}, {ProductID: uuid.New(), Confidence: 0.8}}
		second := []domain.MatchCandidate{{ProductID: uuid.New(), Confidence: 1}}
		_ = store.ReplaceCandidates(ctx, rowID, first)
		_ = store.ReplaceCandidates(ctx, rowID, second)

		got, err := store.ListCandidates(ctx, session.ID)
		if err != nil {
			t.Fatalf("ListCandidates() error = %v", err)
		}
		if len(got[rowID]) != 1 || got[rowID][0].ProductID != second[0].ProductID {
			t.Errorf("candidates = %+v, want only the second set", got[rowID])
		}
	})

	t.Run("update row", func(t *testing.T) {
		row := listed[0]
		row.Status = domain.RowAnalyzed
		if err := store.UpdateRow(ctx, &row); err != nil {
			t.Fatalf("UpdateRow() error = %v", err)
		}
		got, _ := store.ListRows(ctx, session.ID)
		if got[0].Status != domain.RowAnalyzed {
			t.Errorf("status = %q, want analyzed", got[0].Status)
		}

		stray := domain.ImportRow{ID: uuid.New(), SessionID: session.ID}
		if err := store.UpdateRow(ctx, &stray); !errors.Is(err, domain.ErrRowNotFound) {
			t.Errorf("error = %v, want ErrRowNotFound", err)
		}
	})

	t.Run("replace rows drops old rows and candidates", func(t *testing.T) {
		oldID := listed[0].ID
		if err := store.ReplaceRows(ctx, session.ID, []domain.ImportRow{{RowNumber: 2, Status: domain.RowPending}}); err != nil {
			t.Fatalf("ReplaceRows() error = %v", err)
		}
		got, _ := store.ListRows(ctx, session.ID)
		if len(got) != 1 || got[0].ID == oldID {
			t.Errorf("rows = %+v, want one fresh row", got)
		}
		candidates, _ := store.ListCandidates(ctx, session.ID)
		if len(candidates) != 0 {
			t.Errorf("candidates = %+v, want none", candidates)
		}
	})

	t.Run("session updates", func(t *testing.T) {
		now := time.Now()
		session.Status = domain.SessionConfirmed
		session.CompletedAt = &now
		if err := store.UpdateSession(ctx, session); err != nil {
			t.Fatalf("UpdateSession() error = %v", err)
		}
		got, err := store.FindSession(ctx, session.ID)
		if err != nil || got.Status != domain.SessionConfirmed || got.CompletedAt == nil {
			t.Errorf("FindSession() = %+v, %v", got, err)
		}

		if _, err := store.FindSession(ctx, uuid.New()); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("error = %v, want ErrSessionNotFound", err)
		}
		if err := store.ReplaceRows(ctx, uuid.New(), nil); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("error = %v, want ErrSessionNotFound", err)
		}
	})
}

func TestLocker_SerializesKey(t *testing.T) {
	locker := NewLocker(0)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(ctx, "import_session:1")
			if err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
	if locker.Size() != 0 {
		t.Errorf("Size() = %d after all releases, want 0", locker.Size())
	}
}

func TestLocker_Timeout(t *testing.T) {
	locker := NewLocker(20 * time.Millisecond)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "catalog:identifier_code")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	defer release()

	if _, err := locker.Lock(ctx, "catalog:identifier_code"); !errors.Is(err, domain.ErrLockTimeout) {
		t.Errorf("error = %v, want ErrLockTimeout", err)
	}

	other, err := locker.Lock(ctx, "import_session:2")
	if err != nil {
		t.Fatalf("independent key blocked: %v", err)
	}
	other()

	// releasing twice is harmless
	release()
	release()
	if locker.Size() != 0 {
		t.Errorf("Size() = %d, want 0", locker.Size())
	}
}
