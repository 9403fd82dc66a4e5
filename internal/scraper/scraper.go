package scraper

import (
	"context"

	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/platform"
	"resume-agent-go/internal/types"
)

// Scraper 职位抓取器
// 结构化API路径为主，自然语言浏览器代理为回退，二者实现同一接口
type Scraper interface {
	// Scrape 按条件抓取职位，返回已规范化的记录
	// 部分记录无效不视为失败，逐条丢弃
	Scrape(ctx context.Context, criteria types.JobSearchCriteria, adapter platform.Adapter) ([]types.JobPosting, error)
}

// FallbackScraper 主备组合抓取器
// 主路径报错或一无所获时切到备选路径
type FallbackScraper struct {
	primary  Scraper
	fallback Scraper
}

// NewFallbackScraper 创建主备抓取器，fallback可为nil
func NewFallbackScraper(primary, fallback Scraper) *FallbackScraper {
	return &FallbackScraper{primary: primary, fallback: fallback}
}

// Scrape 实现Scraper接口
func (f *FallbackScraper) Scrape(ctx context.Context, criteria types.JobSearchCriteria, adapter platform.Adapter) ([]types.JobPosting, error) {
	postings, err := f.primary.Scrape(ctx, criteria, adapter)
	if err == nil && len(postings) > 0 {
		return postings, nil
	}
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("主抓取路径失败")
	}
	if f.fallback == nil {
		return postings, err
	}
	// 上游已取消时不再尝试备选路径
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	logger.Ctx(ctx).Info().Msg("切换到浏览器代理抓取回退路径")
	return f.fallback.Scrape(ctx, criteria, adapter)
}

// InterpretResult 解释抓取产出的原始结果形态
// 接受记录列表，或含"jobs"键的映射；其他形态记日志并按空结果处理
func InterpretResult(ctx context.Context, raw interface{}) []map[string]interface{} {
	switch v := raw.(type) {
	case []interface{}:
		return toRecordList(ctx, v)
	case []map[string]interface{}:
		return v
	case map[string]interface{}:
		if jobs, ok := v["jobs"]; ok {
			if list, ok := jobs.([]interface{}); ok {
				return toRecordList(ctx, list)
			}
		}
		logger.Ctx(ctx).Warn().Msg("抓取结果映射中缺少jobs列表，按空结果处理")
		return nil
	case nil:
		return nil
	default:
		logger.Ctx(ctx).Warn().Type("result_type", raw).Msg("抓取结果形态不可识别，按空结果处理")
		return nil
	}
}

// toRecordList 逐条转换，非映射元素丢弃
func toRecordList(ctx context.Context, list []interface{}) []map[string]interface{} {
	records := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if record, ok := item.(map[string]interface{}); ok {
			records = append(records, record)
		} else {
			logger.Ctx(ctx).Debug().Msg("抓取结果中出现非对象元素，已丢弃")
		}
	}
	return records
}

// NormalizeAll 逐条规范化并截断到limit，无效记录丢弃
func NormalizeAll(records []map[string]interface{}, adapter platform.Adapter, limit int) []types.JobPosting {
	postings := make([]types.JobPosting, 0, len(records))
	for _, record := range records {
		posting, ok := adapter.Normalize(record)
		if !ok {
			continue
		}
		postings = append(postings, posting)
		if limit > 0 && len(postings) >= limit {
			break
		}
	}
	return postings
}
