package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resume-agent-go/internal/config"
	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/platform"
	"resume-agent-go/internal/types"
)

// BrowserAgentScraper 自然语言任务驱动的浏览器代理抓取器(回退路径)
// 把搜索条件编成任务描述交给自动化引擎执行，对结果只做形态校验
type BrowserAgentScraper struct {
	pool     *BrowserPool
	client   *http.Client
	headless bool
	viewport [2]int
}

// NewBrowserAgentScraper 创建浏览器代理抓取器
func NewBrowserAgentScraper(cfg config.BrowserConfig, pool *BrowserPool) *BrowserAgentScraper {
	return &BrowserAgentScraper{
		pool:     pool,
		client:   &http.Client{}, // 超时由上层ctx统一控制
		headless: cfg.Headless,
		viewport: [2]int{cfg.ViewportWidth, cfg.ViewportHeight},
	}
}

// buildTask 构造参数化的自然语言任务描述
func buildTask(criteria types.JobSearchCriteria, searchURL string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("打开 %s ，搜索关键词「%s」", searchURL, strings.Join(criteria.Keywords, " ")))
	if criteria.Location != "" {
		sb.WriteString(fmt.Sprintf("，工作地点限定「%s」", criteria.Location))
	}
	sb.WriteString(fmt.Sprintf("。采集前 %d 条职位，", criteria.Limit))
	sb.WriteString("每条输出 position、company、salary、address、experience、education、url 字段，")
	sb.WriteString(`以JSON返回：{"jobs": [...]}`)
	return sb.String()
}

// agentRunRequest 自动化引擎任务请求
type agentRunRequest struct {
	Task     string `json:"task"`
	Headless bool   `json:"headless"`
	Viewport struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"viewport"`
}

// agentRunResponse 自动化引擎任务响应，result形态由引擎决定
type agentRunResponse struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error,omitempty"`
}

// Scrape 实现Scraper接口
// 先从池中取会话(占用一个并发额度)，任务完成后归还
func (b *BrowserAgentScraper) Scrape(ctx context.Context, criteria types.JobSearchCriteria, adapter platform.Adapter) ([]types.JobPosting, error) {
	session, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取浏览器会话失败: %w", err)
	}
	defer b.pool.Release(session)

	searchURL := adapter.BuildSearchURL(criteria)
	task := buildTask(criteria, searchURL)
	logger.Ctx(ctx).Debug().Str("session_id", session.ID).Str("search_url", searchURL).Msg("下发浏览器抓取任务")

	reqBody := agentRunRequest{Task: task, Headless: b.headless}
	reqBody.Viewport.Width = b.viewport[0]
	reqBody.Viewport.Height = b.viewport[1]

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化任务请求失败: %w", err)
	}

	endpoint := strings.TrimRight(session.Endpoint, "/") + "/run"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("创建任务请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("浏览器引擎请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取浏览器引擎响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("浏览器引擎返回状态 %d: %s", resp.StatusCode, string(body))
	}

	var runResp agentRunResponse
	if err := json.Unmarshal(body, &runResp); err != nil {
		return nil, fmt.Errorf("解析浏览器引擎响应失败: %w", err)
	}
	if runResp.Status != "" && runResp.Status != "success" && runResp.Status != "completed" {
		return nil, fmt.Errorf("浏览器任务执行失败: %s", runResp.Error)
	}

	var raw interface{}
	if len(runResp.Result) > 0 {
		if err := json.Unmarshal(runResp.Result, &raw); err != nil {
			return nil, fmt.Errorf("解析任务结果失败: %w", err)
		}
	}

	records := InterpretResult(ctx, raw)
	return NormalizeAll(records, adapter, criteria.Limit), nil
}
