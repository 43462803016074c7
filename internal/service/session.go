package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"pharmacare/backend/internal/domain"
	"pharmacare/backend/internal/money"
	"pharmacare/backend/internal/receipt"
	"pharmacare/backend/internal/store"
	"pharmacare/backend/internal/xid"
)

// The open transaction session. Reserving stock decrements on-hand quantity
// immediately, so inventory listings and reports taken while a cart is open
// show true sellable stock. The price of every reservation is ruled by this
// invariant: on-hand + reserved always equals the last committed quantity,
// and cancellation must restore exactly what was reserved.

// Reserve moves qty units of a medicine from on-hand stock into the open
// cart. Repeat reservations of the same medicine accumulate on one line and
// keep the price snapshot taken at the first reservation.
func (s *Service) Reserve(ctx context.Context, req domain.ReserveRequest) (domain.CartView, error) {
	if req.Qty <= 0 {
		return domain.CartView{}, fmt.Errorf("%w: quantity must be positive", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	line := s.cart[req.Name]
	var priceCents int64
	if line != nil {
		priceCents = line.UnitPriceCents
	} else {
		rec, err := s.repo.GetMedicine(ctx, req.Name)
		if err != nil {
			return domain.CartView{}, err
		}
		priceCents = rec.PriceCents
	}

	// The decrement either fully succeeds or the cart stays untouched.
	if _, err := s.repo.AdjustQuantity(ctx, req.Name, -req.Qty); err != nil {
		return domain.CartView{}, err
	}

	if line != nil {
		line.Qty += req.Qty
	} else {
		s.cart[req.Name] = &domain.CartLine{Name: req.Name, Qty: req.Qty, UnitPriceCents: priceCents}
		s.cartOrder = append(s.cartOrder, req.Name)
	}
	return s.cartViewLocked(decimal.Zero), nil
}

// Release removes a cart line and returns its full reserved quantity to
// stock.
func (s *Service) Release(ctx context.Context, name string) (domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.cart[name]
	if !ok {
		return domain.CartView{}, fmt.Errorf("cart line %q: %w", name, store.ErrNotFound)
	}
	if _, err := s.repo.AdjustQuantity(ctx, name, line.Qty); err != nil {
		return domain.CartView{}, err
	}
	s.removeLineLocked(name)
	return s.cartViewLocked(decimal.Zero), nil
}

// ReleaseAll cancels the whole session, restoring every reservation.
// Idempotent on an already-empty cart.
func (s *Service) ReleaseAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Restore every line even if one restore fails; a partial cancellation
	// would leak the remaining reservations permanently.
	var firstErr error
	for _, name := range append([]string(nil), s.cartOrder...) {
		line := s.cart[name]
		if _, err := s.repo.AdjustQuantity(ctx, name, line.Qty); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.removeLineLocked(name)
	}
	return firstErr
}

// Cart returns the current session with totals computed for the given
// discount entry. An unparseable discount is shown as zero here; this is the
// live preview the cashier sees while typing, not a committed value.
func (s *Service) Cart(_ context.Context, discountEntry string) (domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartViewLocked(money.ParseDiscountLenient(discountEntry)), nil
}

// Checkout finalizes the open session: it validates the discount, appends an
// immutable sale record to the ledger, clears the cart WITHOUT restoring
// stock (the reservation already decremented it), and renders the receipt.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart) == 0 {
		return domain.CheckoutResponse{}, store.ErrEmptyCart
	}

	discount, err := money.ParseDiscount(req.DiscountPercent)
	if err != nil {
		return domain.CheckoutResponse{}, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}

	now := s.now()
	items := make([]domain.SaleItem, 0, len(s.cartOrder))
	var gross int64
	for _, name := range s.cartOrder {
		line := s.cart[name]
		items = append(items, domain.SaleItem{Name: line.Name, Qty: line.Qty, PriceCents: line.UnitPriceCents})
		gross += line.UnitPriceCents * int64(line.Qty)
	}
	discountCents := money.DiscountCents(gross, discount)

	sale := domain.SaleRecord{
		ID:              xid.New("sale"),
		DateKey:         now.Format(domain.DateKeyLayout),
		SoldAt:          now,
		Customer:        strings.TrimSpace(req.Customer),
		Items:           items,
		GrossCents:      gross,
		DiscountPercent: money.FormatPercent(discount),
		DiscountCents:   discountCents,
		NetCents:        gross - discountCents,
	}

	appended, err := s.repo.AppendSale(ctx, sale)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	// The sale is committed; the cart lines are spent, not restored.
	s.cart = make(map[string]*domain.CartLine)
	s.cartOrder = nil

	s.refreshTodayLocked(ctx, sale.DateKey)

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	receiptText, err := receipt.Render(appended.Items, settings, appended.Customer, discount, now)
	if err != nil {
		// The sale stands even if the stored settings cannot render a
		// receipt; the UI can regenerate one after fixing the settings.
		log.Printf("[service] WARN: receipt for %s not rendered: %v", appended.ID, err)
		receiptText = ""
	}

	return domain.CheckoutResponse{Sale: *appended, ReceiptText: receiptText}, nil
}

// ReceiptPreview renders a quantity-1 receipt for one catalog item, applying
// the configured default discount. Stock and the cart are untouched.
func (s *Service) ReceiptPreview(ctx context.Context, req domain.ReceiptPreviewRequest) (string, error) {
	rec, err := s.repo.GetMedicine(ctx, req.Name)
	if err != nil {
		return "", err
	}
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return "", err
	}
	items := []domain.SaleItem{{Name: rec.Name, Qty: 1, PriceCents: rec.PriceCents}}
	return receipt.Render(items, settings, "", money.ParseDiscountLenient(settings.DefaultDiscount), s.now())
}

// refreshTodayLocked recomputes today's total after a committed sale and
// pushes it to the cache and the snapshot field. Failures only cost cache
// freshness, never the sale.
func (s *Service) refreshTodayLocked(ctx context.Context, dateKey string) {
	total, err := s.repo.DailyTotalCents(ctx, dateKey)
	if err != nil {
		log.Printf("[service] WARN: daily total for %s failed: %v", dateKey, err)
		return
	}
	display := money.FormatDisplay(total)
	if err := s.totals.Set(ctx, todayKey(dateKey), display, s.todayTTL); err != nil {
		log.Printf("[service] WARN: totals cache write failed: %v", err)
	}
	if err := s.repo.SetTodaySales(ctx, display); err != nil {
		log.Printf("[service] WARN: persisting today-sales display failed: %v", err)
	}
}

func (s *Service) removeLineLocked(name string) {
	delete(s.cart, name)
	for i, existing := range s.cartOrder {
		if existing == name {
			s.cartOrder = append(s.cartOrder[:i], s.cartOrder[i+1:]...)
			break
		}
	}
}

func (s *Service) cartViewLocked(discount decimal.Decimal) domain.CartView {
	view := domain.CartView{
		Lines:           make([]domain.CartLineView, 0, len(s.cartOrder)),
		DiscountPercent: money.FormatPercent(discount),
	}
	for _, name := range s.cartOrder {
		line := s.cart[name]
		lineTotal := line.UnitPriceCents * int64(line.Qty)
		view.Lines = append(view.Lines, domain.CartLineView{
			Name:           line.Name,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: lineTotal,
		})
		view.GrossCents += lineTotal
	}
	view.DiscountCents = money.DiscountCents(view.GrossCents, discount)
	view.NetCents = view.GrossCents - view.DiscountCents
	return view
}
