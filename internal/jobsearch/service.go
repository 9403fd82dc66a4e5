package jobsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"resume-agent-go/internal/constants"
	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/platform"
	"resume-agent-go/internal/scraper"
	"resume-agent-go/internal/storage/models"
	"resume-agent-go/internal/types"
)

// CacheStore 职位搜索缓存的持久化接口，生产实现为storage.MySQL
type CacheStore interface {
	GetJobSearchCache(ctx context.Context, keywordsKey, location string, maxAge time.Duration) (*models.JobSearchCache, error)
	UpsertJobSearchCache(ctx context.Context, entry *models.JobSearchCache) error
}

// Locker 分布式锁接口，生产实现为storage.Redis
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error)
	ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error)
}

// Service 职位搜索服务，编排缓存、单飞锁与抓取
type Service struct {
	cache     CacheStore // 可为nil，缓存失效时搜索仍可用
	locker    Locker     // 可为nil，此时并发未命中会重复抓取
	scraper   scraper.Scraper
	platforms *platform.Registry

	scrapeTimeout time.Duration
	cacheTTL      time.Duration
	lockWait      time.Duration
	lockPoll      time.Duration
}

// NewService 创建职位搜索服务
func NewService(cache CacheStore, locker Locker, sc scraper.Scraper, platforms *platform.Registry, scrapeTimeout, cacheTTL time.Duration) *Service {
	if scrapeTimeout <= 0 {
		scrapeTimeout = 300 * time.Second
	}
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Service{
		cache:         cache,
		locker:        locker,
		scraper:       sc,
		platforms:     platforms,
		scrapeTimeout: scrapeTimeout,
		cacheTTL:      cacheTTL,
		lockWait:      constants.SearchLockWaitTimeout,
		lockPoll:      constants.SearchLockRetryDelay,
	}
}

// CacheKey 排序后的关键词拼接为缓存键，与地点一起构成唯一键
func CacheKey(keywords []string) string {
	sorted := make([]string, len(keywords))
	copy(sorted, keywords)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// Search 按条件搜索职位，缓存优先
// 抓取超时或失败降级为空列表，不向调用方抛错
func (s *Service) Search(ctx context.Context, criteria types.JobSearchCriteria) (*types.JobSearchResult, error) {
	if len(criteria.Keywords) == 0 {
		return nil, fmt.Errorf("关键词不能为空")
	}
	if criteria.Limit <= 0 {
		criteria.Limit = constants.DefaultJobLimit
	}
	if criteria.Limit > constants.MaxJobLimit {
		criteria.Limit = constants.MaxJobLimit
	}

	adapter, err := s.platforms.Get(criteria.Platform)
	if err != nil {
		return nil, err
	}

	keywordsKey := CacheKey(criteria.Keywords)

	// 1. 查缓存，缓存层故障按未命中处理
	if result := s.lookupCache(ctx, keywordsKey, criteria); result != nil {
		return result, nil
	}

	// 2. 未命中走单飞：抢到锁的执行抓取，没抢到的等待持锁方写缓存
	lockKey := fmt.Sprintf(constants.KeyJobSearchLock, keywordsKey+":"+criteria.Location)
	var lockValue string
	if s.locker != nil {
		lockValue, err = s.locker.AcquireLock(ctx, lockKey, constants.SearchLockTTL)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("获取搜索锁失败，直接抓取")
		} else if lockValue == "" {
			if result := s.waitForHolder(ctx, keywordsKey, criteria); result != nil {
				return result, nil
			}
			// 持锁方失败或超时，自己抓取兜底
		}
	}
	if lockValue != "" {
		defer func() {
			if _, err := s.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockValue); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("释放搜索锁失败")
			}
		}()
	}

	// 3. 带统一超时执行抓取
	postings := s.scrape(ctx, criteria, adapter)

	// 4. 有结果才回写缓存
	searchURL := adapter.BuildSearchURL(criteria)
	now := time.Now()
	if len(postings) > 0 {
		s.writeCache(ctx, keywordsKey, criteria.Location, postings, searchURL, now)
	}

	return &types.JobSearchResult{
		Postings:  postings,
		FromCache: false,
		SearchURL: searchURL,
		FetchedAt: now,
	}, nil
}

// lookupCache 查询过期窗口内的缓存，逐条校验丢弃无效记录
// 至少剩一条有效记录才算命中
func (s *Service) lookupCache(ctx context.Context, keywordsKey string, criteria types.JobSearchCriteria) *types.JobSearchResult {
	if s.cache == nil {
		return nil
	}

	entry, err := s.cache.GetJobSearchCache(ctx, keywordsKey, criteria.Location, s.cacheTTL)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("读取搜索缓存失败，按未命中处理")
		return nil
	}
	if entry == nil {
		return nil
	}

	var cached []types.JobPosting
	if err := json.Unmarshal(entry.PostingsJSON, &cached); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("缓存记录反序列化失败，按未命中处理")
		return nil
	}

	valid := make([]types.JobPosting, 0, len(cached))
	for i := range cached {
		if cached[i].Valid() {
			valid = append(valid, cached[i])
		}
	}
	if len(valid) == 0 {
		return nil
	}
	if criteria.Limit > 0 && len(valid) > criteria.Limit {
		valid = valid[:criteria.Limit]
	}

	return &types.JobSearchResult{
		Postings:  valid,
		FromCache: true,
		SearchURL: entry.SearchURL,
		FetchedAt: entry.SearchedAt,
	}
}

// waitForHolder 未抢到锁时短暂轮询缓存，等待持锁方完成抓取
// 等待上限远小于锁TTL，持锁方异常死亡时由调用方抓取兜底
func (s *Service) waitForHolder(ctx context.Context, keywordsKey string, criteria types.JobSearchCriteria) *types.JobSearchResult {
	deadline := time.Now().Add(s.lockWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.lockPoll):
		}
		if result := s.lookupCache(ctx, keywordsKey, criteria); result != nil {
			return result
		}
	}
	return nil
}

// scrape 带统一超时执行抓取，任何失败降级为空列表
func (s *Service) scrape(ctx context.Context, criteria types.JobSearchCriteria, adapter platform.Adapter) []types.JobPosting {
	scrapeCtx, cancel := context.WithTimeout(ctx, s.scrapeTimeout)
	defer cancel()

	postings, err := s.scraper.Scrape(scrapeCtx, criteria, adapter)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Strs("keywords", criteria.Keywords).
			Str("location", criteria.Location).
			Msg("职位抓取失败，返回空结果")
		return []types.JobPosting{}
	}

	if criteria.Limit > 0 && len(postings) > criteria.Limit {
		postings = postings[:criteria.Limit]
	}
	return postings
}

// writeCache 回写缓存，失败只记日志
func (s *Service) writeCache(ctx context.Context, keywordsKey, location string, postings []types.JobPosting, searchURL string, searchedAt time.Time) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(postings)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("序列化搜索结果失败，跳过缓存回写")
		return
	}
	entry := &models.JobSearchCache{
		KeywordsKey:  keywordsKey,
		Location:     location,
		PostingsJSON: data,
		SearchURL:    searchURL,
		SearchedAt:   searchedAt,
	}
	if err := s.cache.UpsertJobSearchCache(ctx, entry); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("搜索缓存回写失败")
	}
}
