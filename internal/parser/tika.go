package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"resume-agent-go/internal/logger"
)

// TikaClient 基于Apache Tika服务器的通用文档文本提取客户端
// PDF之外的二进制格式(DOCX、图片OCR)也走这条路径
type TikaClient struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client
	// 是否提取完整元数据
	extractFullMetadata bool
	// 是否提取精简元数据
	extractMinimalMetadata bool
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaClient)

// WithFullMetadata 配置是否提取完整元数据
func WithFullMetadata(extract bool) TikaOption {
	return func(c *TikaClient) {
		c.extractFullMetadata = extract
	}
}

// WithMinimalMetadata 配置是否提取精简的关键元数据
func WithMinimalMetadata(extract bool) TikaOption {
	return func(c *TikaClient) {
		c.extractMinimalMetadata = extract
	}
}

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(c *TikaClient) {
		c.Client.Timeout = timeout
	}
}

// NewTikaClient 创建Tika客户端
func NewTikaClient(serverURL string, options ...TikaOption) *TikaClient {
	c := &TikaClient{
		ServerURL:              serverURL,
		Client:                 &http.Client{Timeout: 60 * time.Second},
		extractMinimalMetadata: true,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// ExtractText 提取纯文本，按需附带元数据
func (c *TikaClient) ExtractText(ctx context.Context, data []byte, contentType, resourceName string) (string, map[string]interface{}, error) {
	startTime := time.Now()

	baseMetadata := map[string]interface{}{
		"extraction_time": time.Now().Format(time.RFC3339),
	}
	if resourceName != "" {
		baseMetadata["source_file_path"] = resourceName
	}

	url := fmt.Sprintf("%s/tika", c.ServerURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", baseMetadata, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")
	if resourceName != "" {
		req.Header.Set("X-Tika-Resource-Name", resourceName)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", baseMetadata, fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", baseMetadata, fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}

	textBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", baseMetadata, fmt.Errorf("读取Tika响应失败: %w", err)
	}

	text := string(textBytes)
	baseMetadata["text_length"] = len(text)
	baseMetadata["processing_duration_ms"] = time.Since(startTime).Milliseconds()

	if c.extractFullMetadata || c.extractMinimalMetadata {
		rawMetadata, err := c.extractMetadata(ctx, data, contentType, resourceName)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("Tika元数据提取失败，继续使用基本元数据")
		} else if c.extractFullMetadata {
			for k, v := range rawMetadata {
				baseMetadata[k] = v
			}
		} else {
			for k, v := range rawMetadata {
				if isImportantMetadata(k) {
					baseMetadata[k] = v
				}
			}
		}
	}

	return text, baseMetadata, nil
}

// extractMetadata 通过Tika的/meta端点获取文档元数据
func (c *TikaClient) extractMetadata(ctx context.Context, data []byte, contentType, resourceName string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/meta", c.ServerURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if resourceName != "" {
		req.Header.Set("X-Tika-Resource-Name", resourceName)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}

	var metadata map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("解析元数据响应失败: %w", err)
	}
	return metadata, nil
}

// isImportantMetadata 精简模式下保留的元数据字段
func isImportantMetadata(key string) bool {
	importantKeys := map[string]bool{
		"xmpTPg:NPages":        true,
		"dcterms:created":      true,
		"language":             true,
		"dc:title":             true,
		"Content-Type":         true,
		"meta:page-count":      true,
		"meta:word-count":      true,
		"meta:paragraph-count": true,
	}
	return importantKeys[key]
}
