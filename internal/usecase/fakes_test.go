package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shahadul878/planet-2.0/internal/domain"
)

// In-memory doubles for the repository and infrastructure ports.

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

type fakeQueueRepo struct {
	items  []*domain.QueueItem
	nextID int64

	claimErr error
}

func (f *fakeQueueRepo) Enqueue(_ context.Context, items []*domain.QueueItem) error {
	for _, item := range items {
		f.nextID++
		item.ID = f.nextID
		f.items = append(f.items, item)
	}
	return nil
}

func (f *fakeQueueRepo) ClaimNext(_ context.Context, batchID string) (*domain.QueueItem, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	for _, item := range f.items {
		if item.BatchID == batchID && item.Status == domain.QueueStatusPending {
			item.Attempts++
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeQueueRepo) find(id int64) *domain.QueueItem {
	for _, item := range f.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (f *fakeQueueRepo) MarkSynced(_ context.Context, id int64) error {
	f.find(id).Status = domain.QueueStatusSynced
	return nil
}

func (f *fakeQueueRepo) MarkSkipped(_ context.Context, id int64, reason string) error {
	item := f.find(id)
	item.Status = domain.QueueStatusSkipped
	item.LastError = reason
	return nil
}

func (f *fakeQueueRepo) MarkFailed(_ context.Context, id int64, errMsg string) error {
	item := f.find(id)
	item.Status = domain.QueueStatusFailed
	item.LastError = errMsg
	return nil
}

func (f *fakeQueueRepo) RequeueForRetry(_ context.Context, id int64, errMsg string) error {
	item := f.find(id)
	item.Status = domain.QueueStatusPending
	item.LastError = errMsg
	return nil
}

func (f *fakeQueueRepo) Stats(_ context.Context, batchID string) (domain.Statistics, error) {
	var stats domain.Statistics
	for _, item := range f.items {
		if item.BatchID != batchID {
			continue
		}
		stats.Total++
		switch item.Status {
		case domain.QueueStatusPending:
			stats.Pending++
		case domain.QueueStatusSynced:
			stats.Synced++
		case domain.QueueStatusSkipped:
			stats.Skipped++
		case domain.QueueStatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

func (f *fakeQueueRepo) ResetFailed(_ context.Context, batchID string) (int64, error) {
	var n int64
	for _, item := range f.items {
		if item.BatchID == batchID && item.Status == domain.QueueStatusFailed {
			item.Status = domain.QueueStatusPending
			item.Attempts = 0
			n++
		}
	}
	return n, nil
}

func (f *fakeQueueRepo) SkipPending(_ context.Context, batchID, reason string) (int64, error) {
	var n int64
	for _, item := range f.items {
		if item.BatchID == batchID && item.Status == domain.QueueStatusPending {
			item.Status = domain.QueueStatusSkipped
			item.LastError = reason
			n++
		}
	}
	return n, nil
}

func (f *fakeQueueRepo) DeleteBatch(_ context.Context, batchID string) error {
	kept := f.items[:0]
	for _, item := range f.items {
		if item.BatchID != batchID {
			kept = append(kept, item)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeQueueRepo) DeleteStalePending(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeQueueRepo) List(_ context.Context, batchID, status string, limit, offset int) ([]*domain.QueueItem, error) {
	var out []*domain.QueueItem
	for _, item := range f.items {
		if item.BatchID != batchID {
			continue
		}
		if status != "" && item.Status != status {
			continue
		}
		out = append(out, item)
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeJobRepo struct {
	jobs []*domain.SyncJob
}

func (f *fakeJobRepo) Push(_ context.Context, job *domain.SyncJob) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobRepo) Claim(_ context.Context) (*domain.SyncJob, error) {
	if len(f.jobs) == 0 {
		return nil, nil
	}
	job := f.jobs[0]
	f.jobs = f.jobs[1:]
	return job, nil
}

func (f *fakeJobRepo) PendingCount(_ context.Context) (int64, error) {
	return int64(len(f.jobs)), nil
}

func (f *fakeJobRepo) DeleteByBatch(_ context.Context, batchID string) error {
	kept := f.jobs[:0]
	for _, job := range f.jobs {
		if job.BatchID != batchID {
			kept = append(kept, job)
		}
	}
	f.jobs = kept
	return nil
}

type fakeOptionRepo struct {
	values map[string]string
}

func newFakeOptionRepo() *fakeOptionRepo {
	return &fakeOptionRepo{values: map[string]string{}}
}

func (f *fakeOptionRepo) Get(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeOptionRepo) Set(_ context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

func (f *fakeOptionRepo) Delete(_ context.Context, key string) error {
	delete(f.values, key)
	return nil
}

func (f *fakeOptionRepo) SetIfAbsent(_ context.Context, key, value string) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	return true, nil
}

type fakeCacheRepo struct {
	progress *domain.ProgressSnapshot
	locks    map[string]bool
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{locks: map[string]bool{}}
}

func (f *fakeCacheRepo) GetProgress(_ context.Context) (*domain.ProgressSnapshot, error) {
	return f.progress, nil
}

func (f *fakeCacheRepo) SetProgress(_ context.Context, snapshot *domain.ProgressSnapshot) error {
	f.progress = snapshot
	return nil
}

func (f *fakeCacheRepo) DeleteProgress(_ context.Context) error {
	f.progress = nil
	return nil
}

func (f *fakeCacheRepo) AcquireLock(_ context.Context, name string, _ time.Duration) (bool, error) {
	if f.locks[name] {
		return false, nil
	}
	f.locks[name] = true
	return true, nil
}

func (f *fakeCacheRepo) ReleaseLock(_ context.Context, name string) error {
	delete(f.locks, name)
	return nil
}

type fakeActivityRepo struct {
	entries []*domain.ActivityEntry
}

func (f *fakeActivityRepo) Append(_ context.Context, entry *domain.ActivityEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeActivityRepo) Recent(_ context.Context, level string, limit int) ([]*domain.ActivityEntry, error) {
	var out []*domain.ActivityEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if level != "" && f.entries[i].Level != level {
			continue
		}
		out = append(out, f.entries[i])
	}
	return out, nil
}

func (f *fakeActivityRepo) Clear(_ context.Context) (int64, error) {
	removed := int64(len(f.entries))
	f.entries = nil
	return removed, nil
}

func (f *fakeActivityRepo) Prune(_ context.Context, keep int) (int64, error) {
	if len(f.entries) <= keep {
		return 0, nil
	}
	removed := int64(len(f.entries) - keep)
	f.entries = f.entries[len(f.entries)-keep:]
	return removed, nil
}

func (f *fakeActivityRepo) hasEvent(event string) bool {
	for _, entry := range f.entries {
		if entry.Event == event {
			return true
		}
	}
	return false
}

type fakeProducer struct {
	events []*domain.SyncEvent
}

func (f *fakeProducer) PublishEvent(_ context.Context, event *domain.SyncEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeCatalogClient struct {
	products   []domain.ProductListEntry
	payloads   map[string]*domain.ProductPayload
	categories map[int][]domain.RemoteCategory

	productsErr   error
	payloadErr    error
	categoriesErr error
}

func (f *fakeCatalogClient) ListProducts(_ context.Context) ([]domain.ProductListEntry, error) {
	return f.products, f.productsErr
}

func (f *fakeCatalogClient) GetProduct(_ context.Context, slug string) (*domain.ProductPayload, error) {
	if f.payloadErr != nil {
		return nil, f.payloadErr
	}
	payload, ok := f.payloads[slug]
	if !ok {
		return nil, errors.New("no such product")
	}
	return payload, nil
}

func (f *fakeCatalogClient) ListCategories(_ context.Context, level int) ([]domain.RemoteCategory, error) {
	return f.categories[level], f.categoriesErr
}

func (f *fakeCatalogClient) TestConnection(ctx context.Context) (int, error) {
	categories, err := f.ListCategories(ctx, 1)
	if err != nil {
		return 0, err
	}
	return len(categories), nil
}

func (f *fakeCatalogClient) InvalidateCache(_ context.Context) error {
	return nil
}

type fakeProductUC struct {
	reconcile func(ctx context.Context, item *domain.QueueItem) (*ReconcileItemRes, error)
}

func (f *fakeProductUC) ReconcileItem(ctx context.Context, item *domain.QueueItem) (*ReconcileItemRes, error) {
	return f.reconcile(ctx, item)
}

type fakeCategoryUC struct {
	res        *ReconcileCategoriesRes
	err        error
	comparison *CategoryComparison
}

func (f *fakeCategoryUC) ReconcileTopLevel(_ context.Context) (*ReconcileCategoriesRes, error) {
	return f.res, f.err
}

func (f *fakeCategoryUC) Compare(_ context.Context) (*CategoryComparison, error) {
	return f.comparison, nil
}

type fakeOrphanUC struct {
	report *domain.OrphanReport
	err    error

	sweptEntries []domain.ProductListEntry
}

func (f *fakeOrphanUC) Handle(_ context.Context, _ *OrphanReq) (*domain.OrphanReport, error) {
	return f.report, f.err
}

func (f *fakeOrphanUC) Sweep(_ context.Context, entries []domain.ProductListEntry) (*domain.OrphanReport, error) {
	f.sweptEntries = entries
	if f.err != nil {
		return nil, f.err
	}
	if f.report != nil {
		return f.report, nil
	}
	return &domain.OrphanReport{}, nil
}

type fakeProductRepo struct {
	bySlug map[string]*domain.Product
	byCode map[string]*domain.Product
	nextID int64

	adopted    map[int64]string // product id -> backfilled slug
	statuses   map[int64]string
	deleted    []int64
	categories map[int64][]int64
	orphans    []*domain.Product
	upserts    int

	orphanSlugs []string
	orphanIDs   []int64
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		bySlug:     map[string]*domain.Product{},
		byCode:     map[string]*domain.Product{},
		adopted:    map[int64]string{},
		statuses:   map[int64]string{},
		categories: map[int64][]int64{},
	}
}

func (f *fakeProductRepo) Upsert(_ context.Context, product *domain.Product) (*domain.Product, bool, error) {
	f.upserts++
	existing := f.bySlug[product.Slug]
	if existing == nil {
		f.nextID++
		product.ID = f.nextID
		stored := *product
		f.bySlug[product.Slug] = &stored
		f.byCode[product.ProductCode] = &stored
		return &stored, false, nil
	}
	noChanges := existing.Fingerprint == product.Fingerprint
	product.ID = existing.ID
	stored := *product
	f.bySlug[product.Slug] = &stored
	f.byCode[product.ProductCode] = &stored
	return &stored, noChanges, nil
}

func (f *fakeProductRepo) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	return f.bySlug[slug], nil
}

func (f *fakeProductRepo) FindByCode(_ context.Context, code string) (*domain.Product, error) {
	return f.byCode[code], nil
}

func (f *fakeProductRepo) AdoptRemote(_ context.Context, id int64, remoteID int64, slug string) error {
	f.adopted[id] = slug
	for _, product := range f.byCode {
		if product.ID == id {
			product.RemoteID = remoteID
			product.Slug = slug
			f.bySlug[slug] = product
		}
	}
	return nil
}

func (f *fakeProductRepo) FindOrphans(_ context.Context, liveSlugs []string, liveRemoteIDs []int64) ([]*domain.Product, error) {
	f.orphanSlugs = liveSlugs
	f.orphanIDs = liveRemoteIDs
	return f.orphans, nil
}

func (f *fakeProductRepo) UpdateStatus(_ context.Context, ids []int64, status string) error {
	for _, id := range ids {
		f.statuses[id] = status
	}
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, ids []int64) error {
	f.deleted = append(f.deleted, ids...)
	return nil
}

func (f *fakeProductRepo) ReplaceCategories(_ context.Context, productID int64, categoryIDs []int64) error {
	f.categories[productID] = categoryIDs
	return nil
}

type fakeCategoryRepo struct {
	byRemoteID map[int64]*domain.Category
	bySlug     map[string]*domain.Category
	byName     map[string]*domain.Category // lowercased name + level key via nameKey
	nextID     int64

	adopted map[int64]int64
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{
		byRemoteID: map[int64]*domain.Category{},
		bySlug:     map[string]*domain.Category{},
		byName:     map[string]*domain.Category{},
		adopted:    map[int64]int64{},
	}
}

func nameKey(name string, level int) string {
	return fmt.Sprintf("%s/%d", strings.ToLower(name), level)
}

func (f *fakeCategoryRepo) Upsert(_ context.Context, category *domain.Category) (*domain.Category, error) {
	if existing := f.byRemoteID[category.RemoteID]; existing != nil {
		category.ID = existing.ID
	} else {
		f.nextID++
		category.ID = f.nextID
	}
	stored := *category
	f.byRemoteID[category.RemoteID] = &stored
	f.bySlug[category.Slug] = &stored
	f.byName[nameKey(category.Name, category.Level)] = &stored
	return &stored, nil
}

func (f *fakeCategoryRepo) FindByRemoteID(_ context.Context, remoteID int64) (*domain.Category, error) {
	return f.byRemoteID[remoteID], nil
}

func (f *fakeCategoryRepo) FindBySlug(_ context.Context, slug string) (*domain.Category, error) {
	return f.bySlug[slug], nil
}

func (f *fakeCategoryRepo) FindByName(_ context.Context, name string, level int) (*domain.Category, error) {
	return f.byName[nameKey(name, level)], nil
}

func (f *fakeCategoryRepo) AdoptRemoteID(_ context.Context, id int64, remoteID int64) error {
	f.adopted[id] = remoteID
	return nil
}

func (f *fakeCategoryRepo) List(_ context.Context) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0, len(f.byRemoteID))
	for _, category := range f.byRemoteID {
		out = append(out, category)
	}
	return out, nil
}

type fakeMediaInfra struct {
	resolved map[string]string
	requests []*CopyImagesReq
	cleaned  [][]string
}

func (f *fakeMediaInfra) CopyImages(_ context.Context, req *CopyImagesReq) (*CopyImagesRes, error) {
	f.requests = append(f.requests, req)
	out := map[string]string{}
	for _, url := range req.URLs {
		if local, ok := f.resolved[url]; ok {
			out[url] = local
		}
	}
	return NewCopyImagesRes(out), nil
}

func (f *fakeMediaInfra) CleanupImages(urls []string) {
	f.cleaned = append(f.cleaned, urls)
}

// fakeDB satisfies the transaction manager's pool contract with no-op
// transactions, so transactional paths run against the in-memory fakes.
type fakeDB struct{}

func (fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return fakeTx{}, nil
}

func (fakeDB) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	return fakeTx{}, nil
}

type fakeTx struct{}

func (fakeTx) Begin(ctx context.Context) (pgx.Tx, error)   { return fakeTx{}, nil }
func (fakeTx) Commit(ctx context.Context) error            { return nil }
func (fakeTx) Rollback(ctx context.Context) error          { return nil }
func (fakeTx) Conn() *pgx.Conn                             { return nil }
func (fakeTx) LargeObjects() pgx.LargeObjects              { return pgx.LargeObjects{} }
func (fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}
func (fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
