package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"resume-agent-go/internal/config"
	"resume-agent-go/internal/storage/models"
	"resume-agent-go/internal/tracing"
)

var mysqlTracer = otel.Tracer("resume-agent-go/storage/mysql")

type gormSpanKey struct{}

// GormTracingPlugin GORM插件，为数据库操作添加OpenTelemetry追踪
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// NewGormTracingPlugin 创建GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"CREATE",
			func(name string, fn func(*gorm.DB)) error { return cb.Create().Before("gorm:create").Register(name, fn) },
			func(name string, fn func(*gorm.DB)) error { return cb.Create().After("gorm:create").Register(name, fn) }},
		{"SELECT",
			func(name string, fn func(*gorm.DB)) error { return cb.Query().Before("gorm:query").Register(name, fn) },
			func(name string, fn func(*gorm.DB)) error { return cb.Query().After("gorm:query").Register(name, fn) }},
		{"UPDATE",
			func(name string, fn func(*gorm.DB)) error { return cb.Update().Before("gorm:update").Register(name, fn) },
			func(name string, fn func(*gorm.DB)) error { return cb.Update().After("gorm:update").Register(name, fn) }},
		{"DELETE",
			func(name string, fn func(*gorm.DB)) error { return cb.Delete().Before("gorm:delete").Register(name, fn) },
			func(name string, fn func(*gorm.DB)) error { return cb.Delete().After("gorm:delete").Register(name, fn) }},
		{"RAW",
			func(name string, fn func(*gorm.DB)) error { return cb.Raw().Before("gorm:raw").Register(name, fn) },
			func(name string, fn func(*gorm.DB)) error { return cb.Raw().After("gorm:raw").Register(name, fn) }},
	}

	for _, r := range registrations {
		if err := r.before("otel:before_"+r.op, p.before(r.op)); err != nil {
			return err
		}
		if err := r.after("otel:after_"+r.op, p.after()); err != nil {
			return err
		}
	}
	return nil
}

// before 操作前开启span
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		newCtx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, tableName),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		)
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

// after 操作后结束span并记录结果
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(
			attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
			attribute.String("db.statement", tracing.SafeSQL(db.Statement.SQL.String())),
		)

		if db.Error != nil {
			if errors.Is(db.Error, gorm.ErrRecordNotFound) {
				// 未命中是业务正常路径，不标记为错误
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
			}
			return
		}
		span.SetStatus(codes.Ok, "")
	}
}

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端并迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel gormlogger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = gormlogger.Silent
	case 2:
		logLevel = gormlogger.Error
	case 3:
		logLevel = gormlogger.Warn
	default:
		logLevel = gormlogger.Info
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// autoMigrateSchema 自动迁移表结构，迁移期间静默SQL日志
func (m *MySQL) autoMigrateSchema() error {
	silentDB := m.db.Session(&gorm.Session{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	err := silentDB.AutoMigrate(
		&models.User{},
		&models.Resume{},
		&models.ResumeAnalysis{},
		&models.JobSearchCache{},
		&models.JobSearchHistory{},
		&models.OptimizedResume{},
		&models.CoverLetter{},
	)
	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// GetJobSearchCache 按缓存键读取最近一次搜索结果
// 只返回maxAge窗口内的记录；更旧的视为未命中，返回(nil, nil)
func (m *MySQL) GetJobSearchCache(ctx context.Context, keywordsKey, location string, maxAge time.Duration) (*models.JobSearchCache, error) {
	var entry models.JobSearchCache
	cutoff := time.Now().Add(-maxAge)
	err := m.db.WithContext(ctx).
		Where("keywords_key = ? AND location = ? AND searched_at >= ?", keywordsKey, location, cutoff).
		Order("searched_at DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertJobSearchCache 以(keywords_key, location)为键覆盖写入缓存
func (m *MySQL) UpsertJobSearchCache(ctx context.Context, entry *models.JobSearchCache) error {
	return m.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "keywords_key"}, {Name: "location"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"postings_json", "search_url", "searched_at",
			}),
		}).Create(entry).Error
}

// CreateUser 创建用户
func (m *MySQL) CreateUser(ctx context.Context, user *models.User) error {
	return m.db.WithContext(ctx).Create(user).Error
}

// GetUserByEmail 按邮箱查找用户，不存在时返回(nil, nil)
func (m *MySQL) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := m.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID 按ID查找用户
func (m *MySQL) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := m.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateResume 创建简历记录
func (m *MySQL) CreateResume(ctx context.Context, resume *models.Resume) error {
	return m.db.WithContext(ctx).Create(resume).Error
}

// GetResumeByID 按ID查找简历，不存在时返回(nil, nil)
func (m *MySQL) GetResumeByID(ctx context.Context, resumeID string) (*models.Resume, error) {
	var resume models.Resume
	err := m.db.WithContext(ctx).Where("resume_id = ?", resumeID).First(&resume).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resume, nil
}

// ListResumesByUser 分页列出用户的简历
func (m *MySQL) ListResumesByUser(ctx context.Context, userID string, page, limit int) ([]models.Resume, int64, error) {
	var resumes []models.Resume
	var total int64

	q := m.db.WithContext(ctx).Model(&models.Resume{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&resumes).Error
	if err != nil {
		return nil, 0, err
	}
	return resumes, total, nil
}

// UpdateResumeFields 更新简历记录的多个字段
func (m *MySQL) UpdateResumeFields(ctx context.Context, resumeID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return m.db.WithContext(ctx).Model(&models.Resume{}).Where("resume_id = ?", resumeID).Updates(updates).Error
}

// DeleteResume 删除简历记录
func (m *MySQL) DeleteResume(ctx context.Context, resumeID string) error {
	return m.db.WithContext(ctx).Where("resume_id = ?", resumeID).Delete(&models.Resume{}).Error
}

// CreateResumeAnalysis 保存分析结果
func (m *MySQL) CreateResumeAnalysis(ctx context.Context, analysis *models.ResumeAnalysis) error {
	return m.db.WithContext(ctx).Create(analysis).Error
}

// GetLatestAnalysisByResume 获取简历最近一次分析结果，不存在时返回(nil, nil)
func (m *MySQL) GetLatestAnalysisByResume(ctx context.Context, resumeID string) (*models.ResumeAnalysis, error) {
	var analysis models.ResumeAnalysis
	err := m.db.WithContext(ctx).Where("resume_id = ?", resumeID).Order("created_at DESC").First(&analysis).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// CreateJobSearchHistory 记录一次搜索历史
func (m *MySQL) CreateJobSearchHistory(ctx context.Context, history *models.JobSearchHistory) error {
	return m.db.WithContext(ctx).Create(history).Error
}

// CreateOptimizedResume 保存优化产物
func (m *MySQL) CreateOptimizedResume(ctx context.Context, optimized *models.OptimizedResume) error {
	return m.db.WithContext(ctx).Create(optimized).Error
}

// CreateCoverLetter 保存求职信
func (m *MySQL) CreateCoverLetter(ctx context.Context, letter *models.CoverLetter) error {
	return m.db.WithContext(ctx).Create(letter).Error
}
