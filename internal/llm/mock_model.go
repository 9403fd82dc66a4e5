package llm

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse 定义了 MockChatClient 的单次预期响应
type MockResponse struct {
	Content string
	Error   error
}

// MockChatClient 测试用的ChatModel模拟实现
type MockChatClient struct {
	// 固定响应模式
	ExpectedResponse string
	ExpectedError    error

	// 顺序响应模式
	SequentialResponses []MockResponse
	ResponseIndex       int
	IsSequential        bool

	// 记录所有调用收到的消息，供断言
	ReceivedMessages [][]*schema.Message
	CallCount        int

	mu sync.Mutex // 允许并发调用
}

// NewMockChatClient 创建返回固定响应的模拟客户端
func NewMockChatClient(expectedResponse string, expectedError error) *MockChatClient {
	return &MockChatClient{
		ExpectedResponse: expectedResponse,
		ExpectedError:    expectedError,
	}
}

// NewMockChatClientSequential 创建按顺序返回不同响应的模拟客户端
func NewMockChatClientSequential(responses []MockResponse) *MockChatClient {
	if len(responses) == 0 {
		responses = []MockResponse{{Error: errors.New("mock client has no responses configured")}}
	}
	return &MockChatClient{
		SequentialResponses: responses,
		IsSequential:        true,
	}
}

// Generate 返回预设响应并记录输入
func (m *MockChatClient) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	received := make([]*schema.Message, len(input))
	copy(received, input)
	m.ReceivedMessages = append(m.ReceivedMessages, received)
	m.CallCount++

	if m.IsSequential {
		if m.ResponseIndex >= len(m.SequentialResponses) {
			return nil, errors.New("mock client has run out of sequential responses")
		}
		resp := m.SequentialResponses[m.ResponseIndex]
		m.ResponseIndex++
		if resp.Error != nil {
			return nil, resp.Error
		}
		return schema.AssistantMessage(resp.Content, nil), nil
	}

	if m.ExpectedError != nil {
		return nil, m.ExpectedError
	}
	return schema.AssistantMessage(m.ExpectedResponse, nil), nil
}
