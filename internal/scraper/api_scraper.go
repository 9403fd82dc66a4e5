package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-agent-go/internal/config"
	"resume-agent-go/internal/platform"
	"resume-agent-go/internal/types"
)

// APIScraper 通过外部职位搜索API做结构化抓取，是默认的主路径
// 未配置API地址或密钥时优雅返回空结果，由上层切到回退路径
type APIScraper struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewAPIScraper 创建结构化API抓取器
func NewAPIScraper(cfg config.ScraperConfig) *APIScraper {
	timeout := time.Duration(cfg.APIRequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &APIScraper{
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// scrapeAPIRequest 抓取API请求体
type scrapeAPIRequest struct {
	URL      string   `json:"url"`
	Keywords []string `json:"keywords"`
	Location string   `json:"location,omitempty"`
	Limit    int      `json:"limit"`
}

// scrapeAPIResponse 抓取API响应体
// data可能是记录列表，也可能是含jobs键的对象
type scrapeAPIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// Scrape 实现Scraper接口
func (s *APIScraper) Scrape(ctx context.Context, criteria types.JobSearchCriteria, adapter platform.Adapter) ([]types.JobPosting, error) {
	if s.apiURL == "" || s.apiKey == "" {
		return nil, fmt.Errorf("抓取API未配置")
	}

	reqBody := scrapeAPIRequest{
		URL:      adapter.BuildSearchURL(criteria),
		Keywords: criteria.Keywords,
		Location: criteria.Location,
		Limit:    criteria.Limit,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化抓取请求失败: %w", err)
	}

	endpoint := strings.TrimRight(s.apiURL, "/") + "/v1/scrape"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("创建抓取请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("抓取API请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取抓取API响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("抓取API返回状态 %d: %s", resp.StatusCode, string(body))
	}

	var apiResp scrapeAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("解析抓取API响应失败: %w", err)
	}
	if !apiResp.Success {
		return nil, fmt.Errorf("抓取API执行失败: %s", apiResp.Error)
	}

	var raw interface{}
	if len(apiResp.Data) > 0 {
		if err := json.Unmarshal(apiResp.Data, &raw); err != nil {
			return nil, fmt.Errorf("解析抓取数据失败: %w", err)
		}
	}

	records := InterpretResult(ctx, raw)
	return NormalizeAll(records, adapter, criteria.Limit), nil
}
