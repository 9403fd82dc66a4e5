package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-agent-go/internal/config"
	"resume-agent-go/internal/constants"
	"resume-agent-go/internal/llm"
	"resume-agent-go/internal/parser"
	"resume-agent-go/internal/processor"
	"resume-agent-go/internal/storage"
	"resume-agent-go/internal/types"
)

type fakeObjectStore struct {
	files     map[string][]byte
	uploadErr error
	uploaded  map[string]string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{files: make(map[string][]byte), uploaded: make(map[string]string)}
}

func (f *fakeObjectStore) GetResumeFile(ctx context.Context, objectKey string) ([]byte, error) {
	data, ok := f.files[objectKey]
	if !ok {
		return nil, errors.New("对象不存在")
	}
	return data, nil
}

func (f *fakeObjectStore) UploadParsedText(ctx context.Context, resumeID string, text string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	key := resumeID + ".txt"
	f.uploaded[key] = text
	return key, nil
}

type fakeResumeStore struct {
	updates []map[string]interface{}
	err     error
}

func (f *fakeResumeStore) UpdateResumeFields(ctx context.Context, resumeID string, updates map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, updates)
	return nil
}

func (f *fakeResumeStore) lastStatus() string {
	if len(f.updates) == 0 {
		return ""
	}
	status, _ := f.updates[len(f.updates)-1]["processing_status"].(string)
	return status
}

func newTestConsumer(t *testing.T, objects *fakeObjectStore, resumes *fakeResumeStore, extractor processor.ResumeExtractor) *ResumeConsumer {
	t.Helper()
	consumer, err := NewResumeConsumer(objects, resumes, parser.NewService(parser.NewTextParser()), extractor)
	require.NoError(t, err)
	return consumer
}

func uploadMessage(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(storage.ResumeUploadedMessage{
		ResumeID:    "resume-1",
		UserID:      "user-1",
		ObjectKey:   "resume-1.txt",
		ContentType: "text/plain",
		Filename:    "resume.txt",
	})
	require.NoError(t, err)
	return body
}

func TestHandleMessage_ParsesAndExtracts(t *testing.T) {
	objects := newFakeObjectStore()
	objects.files["resume-1.txt"] = []byte("张三 zhangsan@example.com 后端工程师")
	resumes := &fakeResumeStore{}

	mock := llm.NewMockChatClient(`{"contact_info": {"name": "张三", "email": "zhangsan@example.com"}, "skills": ["Go"]}`, nil)
	extractor, err := processor.NewLLMResumeExtractor(mock)
	require.NoError(t, err)

	consumer := newTestConsumer(t, objects, resumes, extractor)
	acked := consumer.HandleMessage(uploadMessage(t))

	assert.True(t, acked)
	require.Len(t, resumes.updates, 1)
	updates := resumes.updates[0]
	assert.Equal(t, constants.ResumeStatusParsed, updates["processing_status"])
	assert.Equal(t, "resume-1.txt", updates["parsed_text_oss"])
	assert.Equal(t, constants.DefaultParserVer, updates["parser_version"])

	var data types.ResumeData
	require.NoError(t, json.Unmarshal(updates["parsed_data_json"].([]byte), &data))
	assert.Equal(t, "zhangsan@example.com", data.ContactInfo.Email)
	assert.Equal(t, []string{"Go"}, data.Skills)
}

func TestHandleMessage_MalformedMessageDropped(t *testing.T) {
	resumes := &fakeResumeStore{}
	consumer := newTestConsumer(t, newFakeObjectStore(), resumes, nil)

	assert.True(t, consumer.HandleMessage([]byte("不是JSON")))
	assert.Empty(t, resumes.updates)
}

func TestHandleMessage_MissingFieldsDropped(t *testing.T) {
	resumes := &fakeResumeStore{}
	consumer := newTestConsumer(t, newFakeObjectStore(), resumes, nil)

	body, _ := json.Marshal(storage.ResumeUploadedMessage{UserID: "user-1"})
	assert.True(t, consumer.HandleMessage(body))
	assert.Empty(t, resumes.updates)
}

func TestHandleMessage_DownloadFailureMarksFailed(t *testing.T) {
	resumes := &fakeResumeStore{}
	consumer := newTestConsumer(t, newFakeObjectStore(), resumes, nil)

	assert.True(t, consumer.HandleMessage(uploadMessage(t)))
	assert.Equal(t, constants.ResumeStatusParseFailed, resumes.lastStatus())
}

func TestHandleMessage_EmptyTextMarksFailed(t *testing.T) {
	objects := newFakeObjectStore()
	objects.files["resume-1.txt"] = []byte{}
	resumes := &fakeResumeStore{}
	consumer := newTestConsumer(t, objects, resumes, nil)

	assert.True(t, consumer.HandleMessage(uploadMessage(t)))
	assert.Equal(t, constants.ResumeStatusParseFailed, resumes.lastStatus())
}

func TestHandleMessage_ExtractorFailureStillParsed(t *testing.T) {
	objects := newFakeObjectStore()
	objects.files["resume-1.txt"] = []byte("简历文本内容")
	resumes := &fakeResumeStore{}

	mock := llm.NewMockChatClient("", errors.New("模型不可用"))
	extractor, err := processor.NewLLMResumeExtractor(mock)
	require.NoError(t, err)

	consumer := newTestConsumer(t, objects, resumes, extractor)
	assert.True(t, consumer.HandleMessage(uploadMessage(t)))

	require.Len(t, resumes.updates, 1)
	updates := resumes.updates[0]
	assert.Equal(t, constants.ResumeStatusParsed, updates["processing_status"])

	// 降级数据仍然落库，保留原始文本
	var data types.ResumeData
	require.NoError(t, json.Unmarshal(updates["parsed_data_json"].([]byte), &data))
	assert.Equal(t, "简历文本内容", data.RawText)
	assert.Empty(t, data.WorkExperience)
}

func TestHandleMessage_ArchiveFailureDoesNotBlock(t *testing.T) {
	objects := newFakeObjectStore()
	objects.files["resume-1.txt"] = []byte("简历文本内容")
	objects.uploadErr = errors.New("存储不可达")
	resumes := &fakeResumeStore{}

	consumer := newTestConsumer(t, objects, resumes, nil)
	assert.True(t, consumer.HandleMessage(uploadMessage(t)))

	require.Len(t, resumes.updates, 1)
	updates := resumes.updates[0]
	assert.Equal(t, constants.ResumeStatusParsed, updates["processing_status"])
	_, hasTextKey := updates["parsed_text_oss"]
	assert.False(t, hasTextKey)
}

type fakeBroker struct {
	mu            sync.Mutex
	topologyFails int
	topologyCalls int
	consumeFails  int
	consumeCalls  int
	queues        []string
	prefetches    []int
	stopChs       []chan struct{}
}

var errBroker = errors.New("连接中断")

func (f *fakeBroker) SetupResumeTopology() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topologyCalls++
	if f.topologyCalls <= f.topologyFails {
		return errBroker
	}
	return nil
}

func (f *fakeBroker) StartConsumer(queueName string, prefetchCount int, handler func([]byte) bool) (chan<- struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumeCalls++
	if f.consumeCalls <= f.consumeFails {
		return nil, errBroker
	}
	f.queues = append(f.queues, queueName)
	f.prefetches = append(f.prefetches, prefetchCount)
	stopCh := make(chan struct{})
	f.stopChs = append(f.stopChs, stopCh)
	return stopCh, nil
}

func brokerConfig() config.RabbitMQConfig {
	return config.RabbitMQConfig{
		ResumeParseQueue: "q.test_resume_parse",
		PrefetchCount:    5,
		ConsumerWorkers:  3,
		RetryInterval:    "1ms",
		MaxRetries:       2,
	}
}

func TestStart_SpawnsConfiguredWorkers(t *testing.T) {
	consumer := newTestConsumer(t, newFakeObjectStore(), &fakeResumeStore{}, nil)
	broker := &fakeBroker{}

	require.NoError(t, consumer.Start(broker, brokerConfig()))

	assert.Equal(t, 3, broker.consumeCalls)
	assert.Equal(t, []string{"q.test_resume_parse", "q.test_resume_parse", "q.test_resume_parse"}, broker.queues)
	assert.Equal(t, []int{5, 5, 5}, broker.prefetches)

	consumer.Stop()
	for _, stopCh := range broker.stopChs {
		select {
		case _, ok := <-stopCh:
			assert.False(t, ok, "Stop后所有停止通道都应关闭")
		default:
			t.Fatal("停止通道未关闭")
		}
	}
}

func TestStart_RetriesTopologyDeclaration(t *testing.T) {
	consumer := newTestConsumer(t, newFakeObjectStore(), &fakeResumeStore{}, nil)
	broker := &fakeBroker{topologyFails: 2}

	require.NoError(t, consumer.Start(broker, brokerConfig()))
	assert.Equal(t, 3, broker.topologyCalls)
}

func TestStart_GivesUpAfterMaxRetries(t *testing.T) {
	consumer := newTestConsumer(t, newFakeObjectStore(), &fakeResumeStore{}, nil)
	broker := &fakeBroker{topologyFails: 10}

	cfg := brokerConfig()
	cfg.MaxRetries = 1
	err := consumer.Start(broker, cfg)

	require.Error(t, err)
	assert.Equal(t, 2, broker.topologyCalls)
	assert.Zero(t, broker.consumeCalls)
}
