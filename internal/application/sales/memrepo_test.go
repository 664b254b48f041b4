package sales_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backoffice/internal/application/sales"
	"github.com/tu-usuario/pos-backoffice/internal/domain"
	"github.com/tu-usuario/pos-backoffice/internal/domain/entity"
	"github.com/tu-usuario/pos-backoffice/internal/domain/repository"
	"github.com/tu-usuario/pos-backoffice/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios en memoria para los tests del motor de ventas.
// El fakeTxRunner toma un snapshot del almacén antes de ejecutar fn y lo
// restaura si fn falla, reproduciendo la semántica todo-o-nada de la tx real.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu        sync.Mutex
	products  map[string]*entity.Product
	branches  map[string]*entity.Branch
	customers map[string]*entity.Customer
	sales     map[string]*entity.Sale
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[string]*entity.Product),
		branches:  make(map[string]*entity.Branch),
		customers: make(map[string]*entity.Customer),
		sales:     make(map[string]*entity.Sale),
	}
}

func cloneProduct(p *entity.Product) *entity.Product {
	cp := *p
	cp.Insumos = append([]entity.BomEntry(nil), p.Insumos...)
	return &cp
}

func cloneSale(s *entity.Sale) *entity.Sale {
	cs := *s
	cs.Lines = append([]entity.SaleLine(nil), s.Lines...)
	if s.ReturnDate != nil {
		d := *s.ReturnDate
		cs.ReturnDate = &d
	}
	return &cs
}

func (m *memStore) snapshot() *memStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := newMemStore()
	for k, v := range m.products {
		snap.products[k] = cloneProduct(v)
	}
	for k, v := range m.branches {
		b := *v
		snap.branches[k] = &b
	}
	for k, v := range m.customers {
		c := *v
		snap.customers[k] = &c
	}
	for k, v := range m.sales {
		snap.sales[k] = cloneSale(v)
	}
	return snap
}

func (m *memStore) restore(snap *memStore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = snap.products
	m.branches = snap.branches
	m.customers = snap.customers
	m.sales = snap.sales
}

// ── product repo ──────────────────────────────────────────────────────────────

type fakeProductRepo struct{ store *memStore }

func (r *fakeProductRepo) Create(p *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func (r *fakeProductRepo) GetWithBOM(id string) (*entity.Product, error) {
	return r.GetByID(id)
}

func (r *fakeProductRepo) GetBySucursalAndSKU(sucursalID, sku string) (*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.products {
		if p.SucursalID == sucursalID && p.SKU == sku {
			return cloneProduct(p), nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) Update(p *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if existing, ok := r.store.products[p.ID]; ok {
		stock := existing.Stock
		cp := cloneProduct(p)
		cp.Stock = stock
		r.store.products[p.ID] = cp
	}
	return nil
}

func (r *fakeProductRepo) ReplaceBOM(productID string, entries []entity.BomEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p, ok := r.store.products[productID]; ok {
		p.Insumos = append([]entity.BomEntry(nil), entries...)
	}
	return nil
}

func (r *fakeProductRepo) ListBySucursal(sucursalID string, limit, offset int) ([]*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.store.products {
		if p.SucursalID == sucursalID {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (r *fakeProductRepo) AdjustStock(productID string, delta decimal.Decimal, allowNegative bool) (*repository.StockLevel, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := p.Stock.Add(delta)
	if !allowNegative && next.IsNegative() {
		return nil, &domain.InsufficientStockError{
			ProductName: p.Name,
			Available:   p.Stock,
			Requested:   delta.Neg(),
		}
	}
	p.Stock = next
	return &repository.StockLevel{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    p.Stock,
		StockMin:    p.StockMin,
	}, nil
}

// ── branch / customer repos ───────────────────────────────────────────────────

type fakeBranchRepo struct{ store *memStore }

func (r *fakeBranchRepo) Create(b *entity.Branch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cb := *b
	r.store.branches[b.ID] = &cb
	return nil
}

func (r *fakeBranchRepo) GetByID(id string) (*entity.Branch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.branches[id]
	if !ok {
		return nil, nil
	}
	cb := *b
	return &cb, nil
}

func (r *fakeBranchRepo) Update(b *entity.Branch) error { return r.Create(b) }

func (r *fakeBranchRepo) List(limit, offset int) ([]*entity.Branch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Branch
	for _, b := range r.store.branches {
		cb := *b
		out = append(out, &cb)
	}
	return out, nil
}

type fakeCustomerRepo struct{ store *memStore }

func (r *fakeCustomerRepo) Create(c *entity.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cc := *c
	r.store.customers[c.ID] = &cc
	return nil
}

func (r *fakeCustomerRepo) GetByID(id string) (*entity.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.customers[id]
	if !ok {
		return nil, nil
	}
	cc := *c
	return &cc, nil
}

func (r *fakeCustomerRepo) Update(c *entity.Customer) error { return r.Create(c) }

func (r *fakeCustomerRepo) ListBySucursal(sucursalID string, limit, offset int) ([]*entity.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Customer
	for _, c := range r.store.customers {
		if c.SucursalID == sucursalID {
			cc := *c
			out = append(out, &cc)
		}
	}
	return out, nil
}

// ── sale repo ─────────────────────────────────────────────────────────────────

type fakeSaleRepo struct{ store *memStore }

func (r *fakeSaleRepo) Create(s *entity.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	// Índice único (sucursal_id, folio) de la tabla real.
	for _, existing := range r.store.sales {
		if existing.SucursalID == s.SucursalID && existing.Folio == s.Folio {
			return domain.ErrDuplicate
		}
	}
	r.store.sales[s.ID] = cloneSale(s)
	return nil
}

func (r *fakeSaleRepo) GetByID(id string) (*entity.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sales[id]
	if !ok {
		return nil, nil
	}
	return cloneSale(s), nil
}

func (r *fakeSaleRepo) GetForUpdate(id string) (*entity.Sale, error) { return r.GetByID(id) }

func (r *fakeSaleRepo) UpdateHeader(s *entity.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.sales[s.ID]
	if !ok {
		return domain.ErrNotFound
	}
	lines := existing.Lines
	updated := cloneSale(s)
	updated.Lines = lines
	r.store.sales[s.ID] = updated
	return nil
}

func (r *fakeSaleRepo) ReplaceLines(saleID string, lines []entity.SaleLine) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sales[saleID]
	if !ok {
		return domain.ErrNotFound
	}
	s.Lines = append([]entity.SaleLine(nil), lines...)
	return nil
}

func (r *fakeSaleRepo) MarkReturned(saleID, returnedBy string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sales[saleID]
	if !ok {
		return domain.ErrNotFound
	}
	s.Active = false
	s.ReturnDate = &at
	s.ReturnedBy = returnedBy
	for i := range s.Lines {
		s.Lines[i].Active = false
	}
	return nil
}

func (r *fakeSaleRepo) UpdatePayment(saleID string, amountPaid, pendingBalance decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sales[saleID]
	if !ok {
		return domain.ErrNotFound
	}
	s.AmountPaid = amountPaid
	s.PendingBalance = pendingBalance
	return nil
}

func (r *fakeSaleRepo) ListOpenCreditForUpdate(customerID, sucursalID string) ([]*entity.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Sale
	for _, s := range r.store.sales {
		if s.CustomerID == customerID && s.SucursalID == sucursalID &&
			s.Status == entity.StatusCredito && s.Active && s.PendingBalance.IsPositive() {
			out = append(out, cloneSale(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].Folio < out[j].Folio
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *fakeSaleRepo) ListBySucursal(sucursalID string, limit, offset int) ([]*entity.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Sale
	for _, s := range r.store.sales {
		if s.SucursalID == sucursalID {
			out = append(out, cloneSale(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *fakeSaleRepo) LastFolio(sucursalID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var max int64
	for _, s := range r.store.sales {
		if s.SucursalID == sucursalID && s.Folio > max {
			max = s.Folio
		}
	}
	return max, nil
}

// ── tx runner ─────────────────────────────────────────────────────────────────

type fakeTxRunner struct {
	store *memStore
	txMu  sync.Mutex
	// beforeRun se invoca antes de tomar el lock de tx; los tests de
	// concurrencia lo usan como barrera entre goroutines.
	beforeRun func()
	// wrapSale decora el repo de ventas visto dentro de la tx.
	wrapSale func(repository.SaleRepository) repository.SaleRepository
}

func (r *fakeTxRunner) Run(_ context.Context, fn func(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
) error) error {
	if r.beforeRun != nil {
		r.beforeRun()
	}
	// Las tx corren una a la vez, igual que las serializa el lock de fila
	// (SELECT FOR UPDATE) en la base real.
	r.txMu.Lock()
	defer r.txMu.Unlock()
	snap := r.store.snapshot()
	var saleRepo repository.SaleRepository = &fakeSaleRepo{store: r.store}
	if r.wrapSale != nil {
		saleRepo = r.wrapSale(saleRepo)
	}
	err := fn(saleRepo, &fakeProductRepo{store: r.store})
	if err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// ── notifier que captura envíos ───────────────────────────────────────────────

type captureNotifier struct {
	mu   sync.Mutex
	sent []sales.Notification
}

func (n *captureNotifier) Send(notification sales.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *captureNotifier) subjects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Subject)
	}
	return out
}

// ── fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	store     *memStore
	tx        *fakeTxRunner
	saleUC    *sales.SaleUseCase
	paymentUC *sales.PaymentUseCase
	notifier  *captureNotifier
}

func newFixture() *fixture {
	store := newMemStore()
	notifier := &captureNotifier{}
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	tx := &fakeTxRunner{store: store}
	saleRepo := &fakeSaleRepo{store: store}
	productRepo := &fakeProductRepo{store: store}
	return &fixture{
		store: store,
		tx:    tx,
		saleUC: sales.NewSaleUseCase(
			tx,
			&fakeBranchRepo{store: store},
			&fakeCustomerRepo{store: store},
			productRepo,
			saleRepo,
			notifier,
			log,
		),
		paymentUC: sales.NewPaymentUseCase(tx, saleRepo, log),
		notifier:  notifier,
	}
}

func (f *fixture) addBranch(id string, allowNegative bool) {
	f.store.branches[id] = &entity.Branch{
		ID:                     id,
		Name:                   "Sucursal " + id,
		AllowNegativeInventory: allowNegative,
		NotificationEmail:      "alertas@sucursal.test",
	}
}

func (f *fixture) addCustomer(id, sucursalID string) {
	f.store.customers[id] = &entity.Customer{ID: id, SucursalID: sucursalID, Name: "Cliente " + id}
}

func (f *fixture) addProduct(id string, stock, stockMin float64) *entity.Product {
	p := &entity.Product{
		ID:       id,
		SKU:      "SKU-" + id,
		Name:     "Producto " + id,
		Price:    decimal.NewFromInt(100),
		Cost:     decimal.NewFromInt(60),
		Stock:    decimal.NewFromFloat(stock),
		StockMin: decimal.NewFromFloat(stockMin),
	}
	f.store.products[id] = p
	return p
}

func (f *fixture) addService(id string) *entity.Product {
	p := &entity.Product{
		ID:        id,
		SKU:       "SRV-" + id,
		Name:      "Servicio " + id,
		Price:     decimal.NewFromInt(150),
		IsService: true,
	}
	f.store.products[id] = p
	return p
}

func (f *fixture) stockOf(id string) decimal.Decimal {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.products[id].Stock
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }
