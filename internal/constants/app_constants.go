package constants

import "time"

// 简历处理状态机
const (
	ResumeStatusPendingParsing = "PENDING_PARSING" // 已上传，等待异步解析
	ResumeStatusParsed         = "PARSED"          // 文本提取与结构化完成
	ResumeStatusParseFailed    = "PARSE_FAILED"    // 解析流水线失败
)

// 支持的招聘平台标识
const (
	PlatformBoss = "boss"
)

const (
	// DefaultParserVer 解析器版本标记，跟随提取流水线演进
	DefaultParserVer = "1.0"

	// DefaultJobLimit 单次职位搜索默认返回上限
	DefaultJobLimit = 20
	// MaxJobLimit 单次职位搜索允许的最大上限
	MaxJobLimit = 50

	// SearchLockTTL 职位搜索单飞锁的持有时长
	SearchLockTTL = 2 * time.Minute
	// SearchLockWaitTimeout 未持锁方等待持锁方写缓存的上限
	// 远小于锁TTL，持锁方异常时不陪绑整个锁周期
	SearchLockWaitTimeout = 3 * time.Second
	// SearchLockRetryDelay 等待持锁方完成时的轮询间隔
	SearchLockRetryDelay = 500 * time.Millisecond

	// NeutralScore 分析降级时各维度使用的中性分
	NeutralScore = 50
)
