package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/htmlimg"
	"github.com/shahadul878/planet-2.0/pkg/logger"
	"github.com/shopspring/decimal"
)

// ProductUseCase reconciles one remote product into the local catalog:
// fetch the full payload by slug, fingerprint it, mirror its images, rewrite
// the rich text to point at the local copies and upsert the row.
type ProductUseCase struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	client       CatalogClient
	mediaInfra   MediaInfra
	remoteBase   string
	localBase    string
	logger       logger.Logger
}

// NewProductUC takes the remote API base, used to resolve relative image
// references, and the local media base, used to recognize images that are
// already served from local storage.
func NewProductUC(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	client CatalogClient,
	mediaInfra MediaInfra,
	remoteBase string,
	localBase string,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		client:       client,
		mediaInfra:   mediaInfra,
		remoteBase:   remoteBase,
		localBase:    localBase,
		logger:       logger,
	}
}

// ReconcileItem processes one queue item. An unchanged fingerprint short
// circuits into a skip without touching storage or media.
func (p *ProductUseCase) ReconcileItem(ctx context.Context, item *domain.QueueItem) (*ReconcileItemRes, error) {
	const op = "ProductUseCase.ReconcileItem"

	payload, err := p.client.GetProduct(ctx, item.Slug)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if strings.TrimSpace(payload.Title) == "" {
		return nil, e.Wrap(op, e.ErrRemoteMalformed)
	}
	if payload.Slug == "" {
		payload.Slug = item.Slug
	}

	fingerprint := fingerprintPayload(payload.Raw)

	existing, err := p.findExisting(ctx, payload)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if existing != nil && existing.Fingerprint == fingerprint {
		p.logger.Debugf("product unchanged, skipping. slug: %s, code: %s", payload.Slug, payload.ProductCode)
		return NewReconcileItemRes(ReconcileSkipped, existing.ID, payload.Title), nil
	}

	product, err := p.buildProduct(ctx, payload, fingerprint)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	stored, _, err := p.productRepo.Upsert(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.assignCategories(ctx, stored.ID, item.CategorySlug, payload.Categories); err != nil {
		return nil, e.Wrap(op, err)
	}

	status := ReconcileUpdated
	if existing == nil {
		status = ReconcileCreated
	}

	return NewReconcileItemRes(status, stored.ID, payload.Title), nil
}

// findExisting matches by slug first, falling back to the product code for
// rows that predate slugs. A code match gets the remote slug and id
// backfilled so the next pass matches directly.
func (p *ProductUseCase) findExisting(ctx context.Context, payload *domain.ProductPayload) (*domain.Product, error) {
	existing, err := p.productRepo.FindBySlug(ctx, payload.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if payload.ProductCode == "" {
		return nil, nil
	}

	byCode, err := p.productRepo.FindByCode(ctx, payload.ProductCode)
	if err != nil {
		return nil, err
	}
	if byCode == nil {
		return nil, nil
	}

	if err := p.productRepo.AdoptRemote(ctx, byCode.ID, payload.RemoteID, payload.Slug); err != nil {
		return nil, err
	}
	byCode.RemoteID = payload.RemoteID
	byCode.Slug = payload.Slug

	return byCode, nil
}

// buildProduct maps the remote payload onto a local product, mirroring its
// images and rewriting every image reference to the local copy.
func (p *ProductUseCase) buildProduct(ctx context.Context, payload *domain.ProductPayload, fingerprint string) (*domain.Product, error) {
	product := domain.NewProduct(payload.RemoteID, payload.Title, payload.ProductCode, payload.Slug)
	product.Specifications = payload.Specifications
	product.Fingerprint = fingerprint
	product.Price = parsePrice(payload.Price, p.logger)

	sources := collectImageSources(payload, p.logger)

	// References can be path-only or protocol-relative; resolve them
	// against the remote API base before downloading. Sources already
	// served from local storage are left alone.
	absBySource := make(map[string]string, len(sources))
	copyURLs := make([]string, 0, len(sources))
	seenAbs := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		if p.localBase != "" && strings.HasPrefix(src, p.localBase) {
			continue
		}
		abs := htmlimg.ResolveAgainst(p.remoteBase, src)
		absBySource[src] = abs
		if _, ok := seenAbs[abs]; !ok {
			seenAbs[abs] = struct{}{}
			copyURLs = append(copyURLs, abs)
		}
	}

	resolved := map[string]string{}
	if len(copyURLs) > 0 {
		res, err := p.mediaInfra.CopyImages(ctx, NewCopyImagesReq(payload.ProductCode, copyURLs))
		if err != nil {
			return nil, err
		}
		resolved = res.URLBySource
	}

	resolve := func(src string) string { return resolved[absBySource[src]] }

	product.Overview = rewriteHTML(payload.Overview, resolve, p.logger)
	product.Applications = rewriteHTML(payload.Applications, resolve, p.logger)
	product.KeyFeatures = rewriteHTML(payload.KeyFeatures, resolve, p.logger)

	product.ImageURL = resolveOrKeep(payload.Image, resolve)
	product.Gallery = make([]string, 0, len(payload.Gallery))
	for _, url := range payload.Gallery {
		product.Gallery = append(product.Gallery, resolveOrKeep(url, resolve))
	}

	return product, nil
}

// assignCategories resolves the product's taxonomy links: the queue item's
// category slug hint wins, then the payload's category references matched by
// stamped remote id with a name fallback. Unresolvable references are logged
// and skipped, they do not fail the item.
func (p *ProductUseCase) assignCategories(ctx context.Context, productID int64, hintSlug string, refs []domain.CategoryRef) error {
	ids := make([]int64, 0, len(refs)+1)
	seen := make(map[int64]struct{})

	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if hintSlug != "" {
		hinted, err := p.categoryRepo.FindBySlug(ctx, hintSlug)
		if err != nil {
			return err
		}
		if hinted != nil {
			add(hinted.ID)
		} else {
			p.logger.Warnf("category hint %q unresolved for product %d", hintSlug, productID)
		}
	}

	for _, ref := range refs {
		category, err := p.categoryRepo.FindByRemoteID(ctx, ref.RemoteID)
		if err != nil {
			return err
		}
		if category == nil && ref.Name != "" {
			category, err = p.categoryRepo.FindByName(ctx, ref.Name, 1)
			if err != nil {
				return err
			}
		}
		if category == nil {
			p.logger.Warnf("unknown category %q (remote id %d) for product %d, skipping link", ref.Name, ref.RemoteID, productID)
			continue
		}
		add(category.ID)
	}

	return p.productRepo.ReplaceCategories(ctx, productID, ids)
}

// collectImageSources gathers the cover, gallery and every img tag in the
// rich text fields, deduplicated.
func collectImageSources(payload *domain.ProductPayload, log logger.Logger) []string {
	seen := make(map[string]struct{})
	sources := make([]string, 0)

	add := func(url string) {
		if url == "" {
			return
		}
		if _, ok := seen[url]; ok {
			return
		}
		seen[url] = struct{}{}
		sources = append(sources, url)
	}

	add(payload.Image)
	for _, url := range payload.Gallery {
		add(url)
	}

	for _, fragment := range []string{payload.Overview, payload.Applications, payload.KeyFeatures} {
		embedded, err := htmlimg.ExtractSources(fragment)
		if err != nil {
			log.Warnf("failed to scan html for images: %v", err)
			continue
		}
		for _, url := range embedded {
			add(url)
		}
	}

	return sources
}

// rewriteHTML swaps img sources for their local copies. Parse failures
// keep the fragment as-is.
func rewriteHTML(fragment string, resolve htmlimg.Resolver, log logger.Logger) string {
	if fragment == "" {
		return fragment
	}

	rewritten, err := htmlimg.RewriteSources(fragment, resolve)
	if err != nil {
		log.Warnf("failed to rewrite html images: %v", err)
		return fragment
	}

	return rewritten
}

func resolveOrKeep(url string, resolve htmlimg.Resolver) string {
	if local := resolve(url); local != "" {
		return local
	}
	return url
}

// parsePrice converts the remote price string. Blank or unparsable prices
// become nil rather than failing the item.
func parsePrice(raw string, log logger.Logger) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		log.Warnf("%v: %q", e.ErrInvalidPrice, raw)
		return nil
	}

	return &price
}

// fingerprintPayload hashes the raw remote payload so any field change,
// mapped or not, produces a different fingerprint.
func fingerprintPayload(raw []byte) string {
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}
