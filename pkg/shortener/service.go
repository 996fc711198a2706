package shortener

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"url-shortener/pkg/cache"
	"url-shortener/pkg/logging"
	"url-shortener/pkg/storage"
)

// maxGenerateAttempts bounds the collision-retry loop in Create. At 62^6
// possible codes a single retry is already rare; the cap keeps worst-case
// latency finite if the random source misbehaves.
const maxGenerateAttempts = 10

// Custom codes share the generated-code alphabet, up to the column width.
var codeRegex = regexp.MustCompile(`^[a-zA-Z0-9]{1,255}$`)

// Service orchestrates mapping creation, redirects, deactivation, and
// statistics. It is stateless: uniqueness and counting are delegated to the
// store's atomic operations, so it is safe to share across request handlers.
type Service struct {
	store  storage.MappingStore
	cache  cache.MappingCache // may be nil; redirects then always hit the store
	gen    CodeGenerator
	logger *logging.Logger
}

func NewService(store storage.MappingStore, mappingCache cache.MappingCache, gen CodeGenerator, logger *logging.Logger) *Service {
	if gen == nil {
		gen = NewGenerator(DefaultCodeLength)
	}
	if logger == nil {
		logger = logging.NewLogger(logging.LevelInfo)
	}
	return &Service{
		store:  store,
		cache:  mappingCache,
		gen:    gen,
		logger: logger,
	}
}

// Stats aggregates every mapping, active or not. Deactivated links keep
// contributing their historical visit counts.
type Stats struct {
	URLs        []storage.Mapping `json:"urls"`
	TotalURLs   int64             `json:"total_urls"`
	TotalVisits int64             `json:"total_visits"`
}

// Create shortens originalURL. With a custom code the insert is attempted
// exactly once and a conflict surfaces as ErrCodeTaken; with a generated
// code, collisions are retried with fresh codes up to maxGenerateAttempts.
// There is no rollback if the caller goes away after a successful insert:
// the mapping stays (at-least-once creation).
func (s *Service) Create(ctx context.Context, originalURL, customCode string) (*storage.Mapping, error) {
	originalURL = strings.TrimSpace(originalURL)
	if originalURL == "" {
		return nil, ErrInvalidURL
	}

	if customCode != "" {
		if !codeRegex.MatchString(customCode) {
			return nil, ErrInvalidCode
		}
		m, err := s.store.Insert(ctx, customCode, originalURL)
		if err != nil {
			s.logger.LogMappingOperation(ctx, "create", customCode, false)
			return nil, err
		}
		s.cacheMapping(ctx, m)
		s.logger.LogMappingOperation(ctx, "create", m.Code, true)
		return m, nil
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code := s.gen.Generate()
		m, err := s.store.Insert(ctx, code, originalURL)
		if err == nil {
			s.cacheMapping(ctx, m)
			s.logger.LogMappingOperation(ctx, "create", m.Code, true)
			return m, nil
		}
		if errors.Is(err, storage.ErrCodeTaken) {
			s.logger.Warn(ctx, "generated code collision, retrying", "code", code, "attempt", attempt+1)
			continue
		}
		return nil, err
	}

	return nil, ErrCodeSpaceExhausted
}

// Redirect resolves code to its original URL and durably counts the visit
// before returning, so a crash after the response cannot undercount.
// Deactivated codes are indistinguishable from unknown ones.
func (s *Service) Redirect(ctx context.Context, code string) (string, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, code)
		if err != nil {
			s.logger.Warn(ctx, "cache lookup failed", "code", code, "error", err)
		} else if cached != nil {
			m, err := s.store.IncrementVisits(ctx, code)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					// Deactivated behind the cache's back; drop the stale entry.
					if derr := s.cache.Delete(ctx, code); derr != nil {
						s.logger.Warn(ctx, "cache invalidation failed", "code", code, "error", derr)
					}
				}
				return "", err
			}
			s.logger.LogRedirect(ctx, code, m.Visits)
			return m.OriginalURL, nil
		}
	}

	found, err := s.store.FindActive(ctx, code)
	if err != nil {
		return "", err
	}

	m, err := s.store.IncrementVisits(ctx, code)
	if err != nil {
		// Lost a race with Deactivate between lookup and increment.
		return "", err
	}

	s.cacheMapping(ctx, found)
	s.logger.LogRedirect(ctx, code, m.Visits)
	return m.OriginalURL, nil
}

// Deactivate turns the mapping off permanently. Repeating it is a no-op
// success returning the current record, so callers can't tell a repeat from
// a race.
func (s *Service) Deactivate(ctx context.Context, code string) (*storage.Mapping, error) {
	m, err := s.store.Deactivate(ctx, code)
	if err != nil {
		s.logger.LogMappingOperation(ctx, "deactivate", code, false)
		return nil, err
	}

	if s.cache != nil {
		if derr := s.cache.Delete(ctx, code); derr != nil {
			s.logger.Warn(ctx, "cache invalidation failed", "code", code, "error", derr)
		}
	}

	s.logger.LogMappingOperation(ctx, "deactivate", code, true)
	return m, nil
}

// Stats returns totals over all mappings and a newest-first window of
// records. skip/limit only page the listing; the totals always cover the
// whole record set.
func (s *Service) Stats(ctx context.Context, skip, limit int) (*Stats, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalURLs: int64(len(all))}
	for _, m := range all {
		stats.TotalVisits += m.Visits
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	if skip >= len(all) {
		stats.URLs = []storage.Mapping{}
		return stats, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	stats.URLs = all[skip:end]
	return stats, nil
}

// cacheMapping warms the read cache with an active mapping; failures only
// cost a future store lookup.
func (s *Service) cacheMapping(ctx context.Context, m *storage.Mapping) {
	if s.cache == nil || m == nil || !m.IsActive {
		return
	}
	entry := &cache.CachedMapping{OriginalURL: m.OriginalURL}
	if err := s.cache.Set(ctx, m.Code, entry, cache.DefaultTTL); err != nil {
		s.logger.Warn(ctx, "cache set failed", "code", m.Code, "error", err)
	}
}
