package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"

	// EntityLock 分布式锁实体
	EntityLock = "lock"

	// EntityStatus 处理进度
	EntityStatus = "status"

	// KeyResumeProcessingLock 简历处理单飞锁 (STRING)
	// 格式: app:resume:lock:{resumeID}
	KeyResumeProcessingLock = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityLock + ":%s"

	// KeyResumeProcessingStatus 最近一次状态转换 (HASH: state, label, updated_at)
	// 格式: app:resume:status:{resumeID}
	KeyResumeProcessingStatus = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityStatus + ":%s"
)
