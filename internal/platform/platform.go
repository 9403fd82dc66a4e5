package platform

import (
	"fmt"
	"strings"

	"resume-agent-go/internal/types"
)

// Adapter 招聘平台适配器
// 负责构造站点搜索URL，并把站点字段名映射到规范的JobPosting形态
type Adapter interface {
	// Name 平台标识，会打到每条产出记录上
	Name() string

	// BaseURL 平台站点根地址，用于补全相对链接
	BaseURL() string

	// BuildSearchURL 按搜索条件构造站点搜索URL
	BuildSearchURL(criteria types.JobSearchCriteria) string

	// Normalize 把一条抓取到的原始记录映射为JobPosting
	// 无法构成有效记录(缺标题)时返回false
	Normalize(raw map[string]interface{}) (types.JobPosting, bool)
}

// Registry 平台适配器注册表
type Registry struct {
	adapters map[string]Adapter
	fallback Adapter
}

// NewRegistry 创建注册表，第一个注册的适配器作为默认
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register 注册适配器
func (r *Registry) Register(a Adapter) {
	name := strings.ToLower(a.Name())
	r.adapters[name] = a
	if r.fallback == nil {
		r.fallback = a
	}
}

// Get 按名称取适配器，名称为空时返回默认适配器
func (r *Registry) Get(name string) (Adapter, error) {
	if name == "" {
		if r.fallback == nil {
			return nil, fmt.Errorf("没有已注册的平台适配器")
		}
		return r.fallback, nil
	}
	a, ok := r.adapters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("不支持的平台: %s", name)
	}
	return a, nil
}
