package models

// SyncResult 一次同步调用的汇总结果，不落库，直接返回给调用方
type SyncResult struct {
	NewCount     int  `json:"new_count"`     // 本次新插入的条数
	UpdatedCount int  `json:"updated_count"` // 本次更新的条数（仅联系人同步）
	Complete     bool `json:"is_complete"`   // 远端流是否已读尽
}

// Merge 合并另一个过滤条件的同步结果：计数累加，Complete取逻辑与
func (r *SyncResult) Merge(other SyncResult) {
	r.NewCount += other.NewCount
	r.UpdatedCount += other.UpdatedCount
	r.Complete = r.Complete && other.Complete
}
