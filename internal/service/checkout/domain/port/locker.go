package port

// CommitLocker 是提交互斥锁的出站端口。
// 同一用户的提交必须串行，防止双击下单把同一个购物车下成两单。
type CommitLocker interface {
	// AcquireCommitLock 获取用户级提交锁，返回释放函数。
	AcquireCommitLock(userID int64) (release func(), err error)
}
