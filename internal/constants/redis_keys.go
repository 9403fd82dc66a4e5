package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// JobSearchModulePrefix 职位搜索模块
	JobSearchModulePrefix = "jobsearch"

	// EntityLock 分布式锁实体
	EntityLock = "lock"

	// KeyJobSearchLock 职位搜索单飞锁 (STRING, SetNX)
	// 格式: app:jobsearch:lock:{cacheKey}
	KeyJobSearchLock = AppPrefix + ":" + JobSearchModulePrefix + ":" + EntityLock + ":%s"
)
