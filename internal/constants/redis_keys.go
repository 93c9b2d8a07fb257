package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "matcher"

	// JobModulePrefix 岗位描述模块
	JobModulePrefix = "job"
	// FileModulePrefix 简历文件模块
	FileModulePrefix = "file"

	// EntityVector 向量实体
	EntityVector = "vector"
	// EntityDedupSet 去重实体
	EntityDedupSet = "dedup"

	// KeyJobVector 岗位描述向量缓存 (STRING, JSON负载)
	// 格式: matcher:job:vector:{jdHash}
	KeyJobVector = AppPrefix + ":" + JobModulePrefix + ":" + EntityVector + ":%s"

	// KeyParsedTextMD5 解析文本MD5去重记录 (STRING, SETNX)
	// 格式: matcher:file:dedup:{md5}
	KeyParsedTextMD5 = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet + ":%s"
)
