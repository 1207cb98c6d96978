package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/reelvault/reelvault/internal/archive"
	"github.com/reelvault/reelvault/internal/database/sqlc"
	"github.com/reelvault/reelvault/internal/history"
	"github.com/reelvault/reelvault/internal/progress"
)

// SyncActivityID returns the progress activity id used for a collection sync.
func SyncActivityID(collection string) string {
	return "catalog-sync:" + collection
}

// Sync mirrors every item of collection into the catalog. Items whose
// metadata cannot be resolved or that have no playable file are skipped.
// Local download state of existing rows is preserved.
func (s *Service) Sync(ctx context.Context, collection string) (*SyncResult, error) {
	collection, err := s.claimSync(collection)
	if err != nil {
		return nil, err
	}
	defer s.endSync(collection)

	return s.runSync(ctx, collection)
}

// SyncAsync claims collection and runs the sync in the background. It returns
// ErrSyncInProgress immediately if the collection is already syncing.
func (s *Service) SyncAsync(collection string) error {
	collection, err := s.claimSync(collection)
	if err != nil {
		return err
	}

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		defer s.endSync(collection)
		// Errors are logged and reported through the progress tracker.
		_, _ = s.runSync(s.bgCtx, collection)
	}()
	return nil
}

// claimSync resolves the collection name and marks it as syncing. The caller
// owns the claim and must release it with endSync.
func (s *Service) claimSync(collection string) (string, error) {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = s.opts.DefaultCollection
	}
	if collection == "" {
		return "", ErrEmptyCollection
	}
	if !s.beginSync(collection) {
		return "", ErrSyncInProgress
	}
	return collection, nil
}

func (s *Service) runSync(ctx context.Context, collection string) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{Collection: collection}

	var tracker *progress.Tracker
	if s.progress != nil {
		tracker = s.progress.Start(SyncActivityID(collection), progress.ActivityTypeSync, "Syncing "+collection)
	}

	s.logger.Info().Str("collection", collection).Msg("Starting catalog sync")

	err := s.syncPages(ctx, collection, result, tracker)
	result.Duration = time.Since(start)

	if err != nil {
		if tracker != nil {
			if errors.Is(err, context.Canceled) {
				tracker.Cancel()
			} else {
				tracker.Fail(err.Error())
			}
		}
		s.logger.Error().Err(err).Str("collection", collection).Msg("Catalog sync failed")
		return result, err
	}

	if tracker != nil {
		tracker.Complete(fmt.Sprintf("%s videos synced", humanize.Comma(int64(result.Synced))))
	}
	s.logger.Info().
		Str("collection", collection).
		Str("found", humanize.Comma(int64(result.Found))).
		Str("synced", humanize.Comma(int64(result.Synced))).
		Int("skipped", result.Skipped).
		Dur("duration", result.Duration).
		Msg("Catalog sync completed")

	if s.history != nil {
		err := s.history.LogCatalogSynced(ctx, history.CatalogSyncedData{
			Collection: result.Collection,
			Found:      result.Found,
			Synced:     result.Synced,
			Skipped:    result.Skipped,
			DurationMs: result.Duration.Milliseconds(),
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to record catalog sync history")
		}
	}

	return result, nil
}

// IsSyncing reports whether collection is being synced.
func (s *Service) IsSyncing(collection string) bool {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	return s.syncing[collection]
}

func (s *Service) beginSync(collection string) bool {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	if s.syncing[collection] {
		return false
	}
	s.syncing[collection] = true
	return true
}

func (s *Service) endSync(collection string) {
	s.syncMu.Lock()
	delete(s.syncing, collection)
	s.syncMu.Unlock()
}

func (s *Service) syncPages(ctx context.Context, collection string, result *SyncResult, tracker *progress.Tracker) error {
	for start := 0; ; start += s.opts.PageSize {
		page, err := s.source.SearchCollection(ctx, collection, s.opts.PageSize, start)
		if err != nil {
			return err
		}
		if start == 0 {
			result.Found = page.NumFound
		}
		if len(page.Docs) == 0 {
			return nil
		}

		synced, skipped, err := s.syncDocs(ctx, collection, page.Docs)
		result.Synced += synced
		result.Skipped += skipped
		if err != nil {
			return err
		}

		done := start + len(page.Docs)
		if tracker != nil {
			pct := 100
			if result.Found > 0 {
				pct = done * 100 / result.Found
			}
			tracker.Update(fmt.Sprintf("%s of %s", humanize.Comma(int64(done)), humanize.Comma(int64(result.Found))), pct)
		}

		if len(page.Docs) < s.opts.PageSize || done >= result.Found {
			return nil
		}
	}
}

// syncDocs resolves metadata for one page concurrently and upserts the
// resulting rows in page order.
func (s *Service) syncDocs(ctx context.Context, collection string, docs []archive.SearchDoc) (synced, skipped int, err error) {
	params := make([]*sqlc.UpsertVideoParams, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MetadataWorkers)
	for i, doc := range docs {
		g.Go(func() error {
			meta, err := s.source.GetMetadata(gctx, doc.Identifier)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn().Err(err).Str("id", doc.Identifier).Msg("Skipping item without metadata")
				return nil
			}
			p, ok := s.docToVideo(collection, doc, meta)
			if !ok {
				s.logger.Debug().Str("id", doc.Identifier).Msg("Skipping item without a playable video file")
				return nil
			}
			params[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	for _, p := range params {
		if p == nil {
			skipped++
			continue
		}
		if err := s.queries.UpsertVideo(ctx, *p); err != nil {
			return synced, skipped, fmt.Errorf("upsert video %s: %w", p.ID, err)
		}
		synced++
	}
	return synced, skipped, nil
}

func (s *Service) docToVideo(collection string, doc archive.SearchDoc, meta *archive.Metadata) (*sqlc.UpsertVideoParams, bool) {
	file, ok := archive.SelectBestVideoFile(meta.Files)
	if !ok {
		return nil, false
	}

	title := meta.Metadata.Title.String()
	if title == "" {
		title = doc.Title.String()
	}
	if title == "" {
		title = doc.Identifier
	}

	description := doc.Description.String()
	if description == "" {
		description = meta.Metadata.Description.String()
	}
	description = archive.StripHTML(description)

	published := doc.PublishedAt()
	if published.IsZero() {
		published = time.Now()
	}

	runtime := doc.Runtime.String()
	if runtime == "" {
		runtime = meta.Metadata.Runtime.String()
	}

	p := &sqlc.UpsertVideoParams{
		ID:              doc.Identifier,
		Title:           title,
		Description:     sql.NullString{String: description, Valid: description != ""},
		PublicDate:      sql.NullTime{Time: published.UTC(), Valid: true},
		ThumbnailUrl:    s.source.ThumbnailURL(doc.Identifier),
		PrimaryVideoUrl: archive.DownloadURL(meta, file),
		PrimaryFormat:   file.Format,
		Collection:      collection,
	}
	if d := archive.ParseRuntime(runtime); d != nil {
		p.Duration = sql.NullFloat64{Float64: *d, Valid: true}
	}
	return p, true
}
