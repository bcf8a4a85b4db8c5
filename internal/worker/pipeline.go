package worker

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"importer/internal/archive"
	"importer/internal/domain"
	"importer/internal/enhance"
	"importer/internal/enrich"
	"importer/internal/extractor"
	"importer/internal/extractor/platform"
	"importer/internal/fetch"
	"importer/internal/images"
	"importer/internal/manifest"
	"importer/internal/resolver"
	"importer/internal/slug"
	"importer/internal/storage"
)

// errCanceled aborts the pipeline when an admin canceled the job mid-run.
// The row is already CANCELED; the worker just stops working on it.
var errCanceled = errors.New("job canceled")

// Progress checkpoints. The image stages sweep between their bounds
// proportionally to dishes processed.
const (
	progressResolving  = 5
	progressResolved   = 10
	progressExtracted  = 35
	progressEnriched   = 45
	progressImagesDone = 80
	progressEnhanced   = 90
	progressArchived   = 93
	progressStored     = 96
)

// pipeline is the per-job execution state. Everything in it, including the
// fetch client and its caches, is built fresh per job and discarded after.
type pipeline struct {
	opts   Options
	job    *domain.ImportJob
	logger zerolog.Logger

	fetcher   *fetch.Client
	resolver  *resolver.Resolver
	extractor *extractor.Extractor
	enricher  *enrich.Enricher
	finder    *images.Finder
	enhancer  *enhance.Enhancer
}

func newPipeline(opts Options, job *domain.ImportJob, logger zerolog.Logger) *pipeline {
	fetcher := fetch.NewClient(fetch.Options{
		MaxConcurrent: int64(opts.Config.FetchParallel),
		HTTPClient:    opts.HTTPClient,
		Logger:        logger,
	})

	var searcher images.Searcher
	if opts.Serp != nil {
		searcher = opts.Serp
	}

	return &pipeline{
		opts:     opts,
		job:      job,
		logger:   logger,
		fetcher:  fetcher,
		resolver: resolver.New(fetcher, opts.Places, opts.Serp, logger),
		extractor: extractor.New(extractor.Options{
			Fetcher:   fetcher,
			Completer: opts.Completer,
			OCR:       opts.OCR,
			Adapters:  []platform.Adapter{platform.NewToastAdapter(fetcher)},
			Logger:    logger,
		}),
		enricher: enrich.New(opts.Completer, logger),
		finder:   images.NewFinder(fetcher, searcher, logger),
		enhancer: enhance.New(opts.Remote, logger),
	}
}

// execute runs the stages in order. It returns errCanceled, ErrNoWebsite,
// ErrNoMenuItems, or a wrapped hard failure; the worker maps these onto job
// states.
func (p *pipeline) execute(ctx context.Context) error {
	repo := p.opts.Repo
	id := p.job.ID

	if err := repo.Checkpoint(ctx, id, 0, "Starting", "Import started"); err != nil {
		return fmt.Errorf("record start: %w", err)
	}

	// Stage 1: website resolution.
	if err := p.gate(ctx); err != nil {
		return err
	}
	repo.Checkpoint(ctx, id, progressResolving, "Resolving website", "Resolving restaurant website")
	site, err := p.resolver.Resolve(ctx, p.job.RestaurantName, p.job.LocationHint, p.job.WebsiteOverride)
	if err != nil {
		return fmt.Errorf("resolve website: %w", err)
	}
	if site == "" {
		return domain.ErrNoWebsite
	}
	repo.Checkpoint(ctx, id, progressResolved, "Website resolved", "Website: "+site)
	repo.MergeMetadata(ctx, id, map[string]any{"website_url": site})

	// Stage 2: menu extraction.
	if err := p.gate(ctx); err != nil {
		return err
	}
	repo.Checkpoint(ctx, id, progressResolved, "Extracting menu", "Extracting menu content")
	menu, err := p.extractor.Extract(ctx, site)
	if err != nil {
		return fmt.Errorf("extract menu: %w", err)
	}
	if menu.ItemCount() == 0 {
		return domain.ErrNoMenuItems
	}
	repo.Checkpoint(ctx, id, progressExtracted, "Menu extracted",
		fmt.Sprintf("Extracted %d items in %d categories", menu.ItemCount(), len(menu.Categories)))
	repo.MergeMetadata(ctx, id, map[string]any{
		"menu_source_urls": menu.SourceURLs,
		"categories_count": len(menu.Categories),
		"items_count":      menu.ItemCount(),
	})

	// Stage 3: enrichment.
	if err := p.gate(ctx); err != nil {
		return err
	}
	repo.Checkpoint(ctx, id, progressExtracted, "Enriching items", "Enriching items with tags and allergens")
	p.enricher.Enrich(ctx, menu)
	repo.Checkpoint(ctx, id, progressEnriched, "Items enriched", "")

	// Stage 4: dish images, progress swept per dish.
	if err := p.gate(ctx); err != nil {
		return err
	}
	imageData, imageOrder, err := p.findImages(ctx, menu)
	if err != nil {
		return err
	}
	repo.Checkpoint(ctx, id, progressImagesDone, "Images found",
		fmt.Sprintf("Found %d dish images", len(imageOrder)))

	// Stage 5: enhancement, progress swept per image.
	if err := p.gate(ctx); err != nil {
		return err
	}
	imageOrder = p.enhanceImages(ctx, menu, imageData, imageOrder)
	repo.Checkpoint(ctx, id, progressEnhanced, "Images enhanced", "")

	// Stage 6: manifest, archive, store.
	doc := manifest.Build(p.job.RestaurantName, menu, imageOrder, "")
	manifestJSON, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	repo.Checkpoint(ctx, id, progressEnhanced, "Building archive", "Building result archive")

	menuSlug := slug.Make(p.job.RestaurantName)
	zipBytes, err := archive.Build(menuSlug, manifestJSON, imageData)
	if err != nil {
		return fmt.Errorf("build archive: %w", err)
	}
	repo.Checkpoint(ctx, id, progressArchived, "Archive built", "")

	if err := p.gate(ctx); err != nil {
		return err
	}
	key, err := p.opts.Store.Write(ctx, storage.ArchiveKey(id, menuSlug), zipBytes)
	if err != nil {
		return fmt.Errorf("store archive: %w", err)
	}
	repo.Checkpoint(ctx, id, progressStored, "Archive stored", "Archive stored")
	repo.MergeMetadata(ctx, id, map[string]any{
		"images_count":   len(imageOrder),
		"zip_size_bytes": len(zipBytes),
	})

	if err := repo.MarkCompleted(ctx, id, key); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	repo.AppendLog(ctx, id, "Import completed")
	return nil
}

// findImages resolves at most one photo per dish, sweeping progress across
// the dish list. Returns image bytes keyed by filename plus the filenames in
// assignment order.
func (p *pipeline) findImages(ctx context.Context, menu *domain.ParsedMenu) (map[string][]byte, []string, error) {
	style := images.StyleKeywords(ctx, p.opts.Completer, p.job.RestaurantName, menu)

	total := menu.ItemCount()
	data := make(map[string][]byte)
	var order []string
	done := 0

	for ci := range menu.Categories {
		items := menu.Categories[ci].Items
		for ii := range items {
			if err := p.gate(ctx); err != nil {
				return nil, nil, err
			}
			item := &items[ii]
			if img := p.finder.FindForItem(ctx, item, menu.SourceURLs, p.job.RestaurantName, style); img != nil {
				data[item.ImageFilename] = img.Data
				order = append(order, item.ImageFilename)
			}
			done++
			p.opts.Repo.Checkpoint(ctx, p.job.ID,
				sweep(progressEnriched, progressImagesDone, done, total), "Finding dish images", "")
		}
	}
	return data, order, nil
}

// enhanceImages normalizes every image. Enhancement always re-encodes to
// JPEG, so successfully enhanced files are renamed to a .jpg extension and
// the menu items updated to match. A dish whose photo cannot be enhanced
// keeps its original bytes and name; that is a soft failure.
func (p *pipeline) enhanceImages(ctx context.Context, menu *domain.ParsedMenu, data map[string][]byte, order []string) []string {
	renamed := make(map[string]string)

	for i, filename := range order {
		enhanced, err := p.enhancer.Enhance(ctx, data[filename])
		if err != nil {
			p.logger.Warn().Err(err).Str("image", filename).Msg("worker: enhancement failed, keeping original")
		} else {
			jpegName := strings.TrimSuffix(filename, path.Ext(filename)) + ".jpg"
			if jpegName != filename {
				delete(data, filename)
				renamed[filename] = jpegName
				order[i] = jpegName
			}
			data[jpegName] = enhanced
		}
		p.opts.Repo.Checkpoint(ctx, p.job.ID,
			sweep(progressImagesDone, progressEnhanced, i+1, len(order)), "Enhancing images", "")
	}

	if len(renamed) > 0 {
		for ci := range menu.Categories {
			items := menu.Categories[ci].Items
			for ii := range items {
				if newName, ok := renamed[items[ii].ImageFilename]; ok {
					items[ii].ImageFilename = newName
				}
			}
		}
	}
	return order
}

// gate checks for timeout and admin cancellation at a stage boundary.
func (p *pipeline) gate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	status, err := p.opts.Repo.Status(ctx, p.job.ID)
	if err != nil {
		p.logger.Warn().Err(err).Msg("worker: status check failed")
		return nil
	}
	if status == domain.JobStatusCanceled {
		return errCanceled
	}
	return nil
}

// sweep maps done/total onto the [start, end] progress range.
func sweep(start, end, done, total int) int {
	if total <= 0 {
		return end
	}
	if done > total {
		done = total
	}
	return start + (end-start)*done/total
}
