package reconcile

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/booksync/backend/internal/domain/accounting"
	"github.com/booksync/backend/internal/domain/credential"
	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// In-memory repositories mimicking the store's natural-key semantics: reads
// hand out copies, writes store copies, soft deletes flip the liveness flag.

type memVendorRepo struct {
	mu      sync.Mutex
	rows    map[string]accounting.Vendor // keyed by remote ID, single platform
	findErr error                        // injected read failure
}

func newMemVendorRepo() *memVendorRepo {
	return &memVendorRepo{rows: make(map[string]accounting.Vendor)}
}

func (r *memVendorRepo) FindByRemoteID(_ context.Context, _ accounting.Platform, remoteID string) (*accounting.Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	row, ok := r.rows[remoteID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &row, nil
}

func (r *memVendorRepo) FindByPlatform(_ context.Context, _ accounting.Platform) ([]accounting.Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]accounting.Vendor, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *memVendorRepo) Save(_ context.Context, vendor *accounting.Vendor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[vendor.RemoteID] = *vendor
	return nil
}

func (r *memVendorRepo) Upsert(_ context.Context, vendors []*accounting.Vendor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range vendors {
		r.rows[v.RemoteID] = *v
	}
	return nil
}

func (r *memVendorRepo) ReplaceScope(_ context.Context, _ accounting.Platform, vendors []*accounting.Vendor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = make(map[string]accounting.Vendor, len(vendors))
	for _, v := range vendors {
		r.rows[v.RemoteID] = *v
	}
	return nil
}

func (r *memVendorRepo) SoftDeleteMissing(_ context.Context, _ accounting.Platform, keep []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	var n int64
	for id, row := range r.rows {
		if _, ok := keepSet[id]; !ok && row.Active {
			row.Active = false
			r.rows[id] = row
			n++
		}
	}
	return n, nil
}

type memAccountRepo struct {
	mu   sync.Mutex
	rows map[string]accounting.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{rows: make(map[string]accounting.Account)}
}

func (r *memAccountRepo) FindByRemoteID(_ context.Context, _ accounting.Platform, remoteID string) (*accounting.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[remoteID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &row, nil
}

func (r *memAccountRepo) FindByPlatform(_ context.Context, _ accounting.Platform) ([]accounting.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]accounting.Account, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *memAccountRepo) Save(_ context.Context, account *accounting.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[account.RemoteID] = *account
	return nil
}

func (r *memAccountRepo) Upsert(_ context.Context, accounts []*accounting.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range accounts {
		r.rows[a.RemoteID] = *a
	}
	return nil
}

func (r *memAccountRepo) ReplaceScope(_ context.Context, _ accounting.Platform, accounts []*accounting.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = make(map[string]accounting.Account, len(accounts))
	for _, a := range accounts {
		r.rows[a.RemoteID] = *a
	}
	return nil
}

func (r *memAccountRepo) SoftDeleteMissing(_ context.Context, _ accounting.Platform, keep []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	var n int64
	for id, row := range r.rows {
		if _, ok := keepSet[id]; !ok && row.Active {
			row.Active = false
			r.rows[id] = row
			n++
		}
	}
	return n, nil
}

type memProductRepo struct {
	mu   sync.Mutex
	rows map[string]accounting.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{rows: make(map[string]accounting.Product)}
}

func (r *memProductRepo) FindByRemoteID(_ context.Context, _ accounting.Platform, remoteID string) (*accounting.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[remoteID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &row, nil
}

func (r *memProductRepo) FindByPlatform(_ context.Context, _ accounting.Platform) ([]accounting.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]accounting.Product, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *memProductRepo) FindByKind(_ context.Context, _ accounting.Platform, kind accounting.ProductKind) ([]accounting.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []accounting.Product
	for _, row := range r.rows {
		if row.Kind == kind {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, product *accounting.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[product.RemoteID] = *product
	return nil
}

func (r *memProductRepo) Upsert(_ context.Context, products []*accounting.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range products {
		// The store's upsert never touches the local-only override column
		if existing, ok := r.rows[p.RemoteID]; ok {
			next := *p
			next.PriceOverride = existing.PriceOverride
			r.rows[p.RemoteID] = next
			continue
		}
		r.rows[p.RemoteID] = *p
	}
	return nil
}

func (r *memProductRepo) ReplaceScope(_ context.Context, _ accounting.Platform, products []*accounting.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = make(map[string]accounting.Product, len(products))
	for _, p := range products {
		r.rows[p.RemoteID] = *p
	}
	return nil
}

func (r *memProductRepo) SoftDeleteMissing(_ context.Context, _ accounting.Platform, keep []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	var n int64
	for id, row := range r.rows {
		if _, ok := keepSet[id]; !ok && row.Active {
			row.Active = false
			r.rows[id] = row
			n++
		}
	}
	return n, nil
}

func (r *memProductRepo) SetPriceOverride(_ context.Context, _ accounting.Platform, remoteID string, override *decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[remoteID]
	if !ok {
		return shared.ErrNotFound
	}
	row.PriceOverride = override
	r.rows[remoteID] = row
	return nil
}

type memInvoiceRepo struct {
	mu      sync.Mutex
	rows    map[string]accounting.Invoice
	findErr error
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{rows: make(map[string]accounting.Invoice)}
}

func (r *memInvoiceRepo) FindByRemoteID(_ context.Context, _ accounting.Platform, remoteID string) (*accounting.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	row, ok := r.rows[remoteID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := row
	clone.Lines = append([]accounting.InvoiceLine(nil), row.Lines...)
	return &clone, nil
}

func (r *memInvoiceRepo) FindByPlatform(_ context.Context, _ accounting.Platform) ([]accounting.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]accounting.Invoice, 0, len(r.rows))
	for _, row := range r.rows {
		clone := row
		clone.Lines = append([]accounting.InvoiceLine(nil), row.Lines...)
		out = append(out, clone)
	}
	return out, nil
}

func (r *memInvoiceRepo) Save(_ context.Context, invoice *accounting.Invoice) error {
	return r.Upsert(context.Background(), []*accounting.Invoice{invoice})
}

func (r *memInvoiceRepo) Upsert(_ context.Context, invoices []*accounting.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range invoices {
		clone := *inv
		clone.Lines = append([]accounting.InvoiceLine(nil), inv.Lines...)
		// local_note has its own write path; upserts never touch it
		if existing, ok := r.rows[inv.RemoteID]; ok {
			clone.LocalNote = existing.LocalNote
		}
		r.rows[inv.RemoteID] = clone
	}
	return nil
}

func (r *memInvoiceRepo) ReplaceScope(_ context.Context, _ accounting.Platform, invoices []*accounting.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = make(map[string]accounting.Invoice, len(invoices))
	for _, inv := range invoices {
		clone := *inv
		clone.Lines = append([]accounting.InvoiceLine(nil), inv.Lines...)
		r.rows[inv.RemoteID] = clone
	}
	return nil
}

func (r *memInvoiceRepo) SoftDeleteMissing(_ context.Context, _ accounting.Platform, keep []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	var n int64
	for id, row := range r.rows {
		if _, ok := keepSet[id]; !ok && row.Status == accounting.DocumentStatusActive {
			row.Status = accounting.DocumentStatusInactive
			r.rows[id] = row
			n++
		}
	}
	return n, nil
}

func (r *memInvoiceRepo) SetLocalNote(_ context.Context, _ accounting.Platform, remoteID, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[remoteID]
	if !ok {
		return shared.ErrNotFound
	}
	row.LocalNote = note
	r.rows[remoteID] = row
	return nil
}

type memBillRepo struct {
	mu   sync.Mutex
	rows map[string]accounting.Bill
}

func newMemBillRepo() *memBillRepo {
	return &memBillRepo{rows: make(map[string]accounting.Bill)}
}

func (r *memBillRepo) FindByRemoteID(_ context.Context, _ accounting.Platform, remoteID string) (*accounting.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[remoteID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := row
	clone.Lines = append([]accounting.BillLine(nil), row.Lines...)
	return &clone, nil
}

func (r *memBillRepo) FindByPlatform(_ context.Context, _ accounting.Platform) ([]accounting.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]accounting.Bill, 0, len(r.rows))
	for _, row := range r.rows {
		clone := row
		clone.Lines = append([]accounting.BillLine(nil), row.Lines...)
		out = append(out, clone)
	}
	return out, nil
}

func (r *memBillRepo) Save(_ context.Context, bill *accounting.Bill) error {
	return r.Upsert(context.Background(), []*accounting.Bill{bill})
}

func (r *memBillRepo) Upsert(_ context.Context, bills []*accounting.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range bills {
		clone := *b
		clone.Lines = append([]accounting.BillLine(nil), b.Lines...)
		r.rows[b.RemoteID] = clone
	}
	return nil
}

func (r *memBillRepo) ReplaceScope(_ context.Context, _ accounting.Platform, bills []*accounting.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = make(map[string]accounting.Bill, len(bills))
	for _, b := range bills {
		clone := *b
		clone.Lines = append([]accounting.BillLine(nil), b.Lines...)
		r.rows[b.RemoteID] = clone
	}
	return nil
}

func (r *memBillRepo) SoftDeleteMissing(_ context.Context, _ accounting.Platform, keep []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	var n int64
	for id, row := range r.rows {
		if _, ok := keepSet[id]; !ok && row.Status == accounting.DocumentStatusActive {
			row.Status = accounting.DocumentStatusInactive
			r.rows[id] = row
			n++
		}
	}
	return n, nil
}

// recordingLocker counts acquisitions per scope key
type recordingLocker struct {
	mu       sync.Mutex
	acquired []string
	held     int
}

func (l *recordingLocker) Acquire(_ context.Context, scope string) (func(), error) {
	l.mu.Lock()
	l.acquired = append(l.acquired, scope)
	l.held++
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.held--
		l.mu.Unlock()
	}, nil
}

type testStore struct {
	vendors  *memVendorRepo
	accounts *memAccountRepo
	products *memProductRepo
	invoices *memInvoiceRepo
	bills    *memBillRepo
	locker   *recordingLocker
	scope    *NoOpTransactionScope
}

func newTestStore() *testStore {
	s := &testStore{
		vendors:  newMemVendorRepo(),
		accounts: newMemAccountRepo(),
		products: newMemProductRepo(),
		invoices: newMemInvoiceRepo(),
		bills:    newMemBillRepo(),
		locker:   &recordingLocker{},
	}
	s.scope = NewNoOpTransactionScope(s.vendors, s.accounts, s.products, s.invoices, s.bills)
	return s
}

// Interface guards for the in-memory fakes
var (
	_ accounting.VendorRepository  = (*memVendorRepo)(nil)
	_ accounting.AccountRepository = (*memAccountRepo)(nil)
	_ accounting.ProductRepository = (*memProductRepo)(nil)
	_ accounting.InvoiceRepository = (*memInvoiceRepo)(nil)
	_ accounting.BillRepository    = (*memBillRepo)(nil)
	_ ScopeLocker                  = (*recordingLocker)(nil)
)

// fakeAdapter is a scripted platform adapter for service-level tests. Raw
// records are JSON objects of the shape {"id": "...", "name": "...}; a record
// whose name is "BROKEN" fails mapping.
type fakeAdapter struct {
	platform accounting.Platform
	records  map[accounting.EntityKind][]integration.RawRecord
	fetchErr error

	updatedVendor  *accounting.Vendor
	updateVendErr  error
	updatedInvoice *accounting.Invoice
	updateInvErr   error
	voidErr        error
	voidCalls      int
}

func (a *fakeAdapter) Platform() accounting.Platform { return a.platform }

func (a *fakeAdapter) FetchRecords(_ context.Context, _ *credential.Credential, q integration.Query) ([]integration.RawRecord, error) {
	if a.fetchErr != nil {
		return nil, a.fetchErr
	}
	return a.records[q.Kind], nil
}

type fakeRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func decodeFakeRecord(raw integration.RawRecord) (*fakeRecord, error) {
	var rec fakeRecord
	if err := json.Unmarshal(raw, &rec); err != nil || rec.ID == "" {
		return nil, &integration.MappingError{Field: "id", RawValue: string(raw)}
	}
	if rec.Name == "BROKEN" {
		return nil, &integration.MappingError{Identifier: rec.ID, Field: "name", RawValue: rec.Name}
	}
	return &rec, nil
}

func (a *fakeAdapter) MapVendor(raw integration.RawRecord) (*accounting.Vendor, error) {
	rec, err := decodeFakeRecord(raw)
	if err != nil {
		return nil, err
	}
	return &accounting.Vendor{Platform: a.platform, RemoteID: rec.ID, DisplayName: rec.Name, Active: true}, nil
}

func (a *fakeAdapter) MapAccount(raw integration.RawRecord) (*accounting.Account, error) {
	rec, err := decodeFakeRecord(raw)
	if err != nil {
		return nil, err
	}
	return &accounting.Account{Platform: a.platform, RemoteID: rec.ID, Name: rec.Name, Type: accounting.AccountTypeAsset, Active: true}, nil
}

func (a *fakeAdapter) MapProduct(raw integration.RawRecord) (*accounting.Product, error) {
	rec, err := decodeFakeRecord(raw)
	if err != nil {
		return nil, err
	}
	return &accounting.Product{Platform: a.platform, RemoteID: rec.ID, Name: rec.Name, Kind: accounting.ProductKindService, Active: true}, nil
}

func (a *fakeAdapter) MapInvoice(raw integration.RawRecord) (*accounting.Invoice, error) {
	rec, err := decodeFakeRecord(raw)
	if err != nil {
		return nil, err
	}
	return &accounting.Invoice{Platform: a.platform, RemoteID: rec.ID, DocNumber: rec.Name, Status: accounting.DocumentStatusActive}, nil
}

func (a *fakeAdapter) MapBill(raw integration.RawRecord) (*accounting.Bill, error) {
	rec, err := decodeFakeRecord(raw)
	if err != nil {
		return nil, err
	}
	return &accounting.Bill{Platform: a.platform, RemoteID: rec.ID, DocNumber: rec.Name, Status: accounting.DocumentStatusActive}, nil
}

func (a *fakeAdapter) UpdateVendor(_ context.Context, _ *credential.Credential, vendor *accounting.Vendor) (*accounting.Vendor, error) {
	if a.updateVendErr != nil {
		return nil, a.updateVendErr
	}
	if a.updatedVendor != nil {
		return a.updatedVendor, nil
	}
	accepted := *vendor
	accepted.SyncToken = vendor.SyncToken + "+1"
	return &accepted, nil
}

func (a *fakeAdapter) UpdateInvoice(_ context.Context, _ *credential.Credential, invoice *accounting.Invoice) (*accounting.Invoice, error) {
	if a.updateInvErr != nil {
		return nil, a.updateInvErr
	}
	if a.updatedInvoice != nil {
		return a.updatedInvoice, nil
	}
	accepted := *invoice
	accepted.SyncToken = invoice.SyncToken + "+1"
	return &accepted, nil
}

func (a *fakeAdapter) VoidInvoice(_ context.Context, _ *credential.Credential, _ *accounting.Invoice) error {
	a.voidCalls++
	return a.voidErr
}

var _ integration.AccountingPlatform = (*fakeAdapter)(nil)

// fakeRegistry serves the configured fake adapters in order
type fakeRegistry struct {
	adapters []integration.AccountingPlatform
}

func (r *fakeRegistry) GetPlatform(platform accounting.Platform) (integration.AccountingPlatform, error) {
	for _, a := range r.adapters {
		if a.Platform() == platform {
			return a, nil
		}
	}
	return nil, integration.ErrPlatformNotRegistered
}

func (r *fakeRegistry) ListPlatforms() []integration.AccountingPlatform {
	return r.adapters
}

var _ integration.Registry = (*fakeRegistry)(nil)

// fakeCredSource hands out one credential per connected platform
type fakeCredSource struct {
	creds map[accounting.Platform]*credential.Credential
	errs  map[accounting.Platform]error
}

func (s *fakeCredSource) GetValidCredential(_ context.Context, platform accounting.Platform) (*credential.Credential, error) {
	if err, ok := s.errs[platform]; ok {
		return nil, err
	}
	cred, ok := s.creds[platform]
	if !ok {
		return nil, credential.ErrAuthMissing
	}
	return cred, nil
}

var _ CredentialSource = (*fakeCredSource)(nil)
