package session

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrInvalidTransition 非法的状态转换或无效的修正请求。
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNoActiveSession 坐席没有开放区间。心跳/断开场景下按良性 no-op 处理，
	// 只有必须存在会话的操作才把它当错误返回。
	ErrNoActiveSession = errors.New("no active session")
	// ErrUnauthorized 非管理员尝试强制操作或修正。
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoLiveConnection 对没有任何在线连接的坐席执行管理员强制操作。
	ErrNoLiveConnection = errors.New("agent has no live connection")
	// ErrInvariantViolation 防御性检查失败（例如同一坐席出现多条开放区间）。
	ErrInvariantViolation = errors.New("session invariant violation")
	// ErrClockSkew 起止时间在钳制后仍不一致，拒绝而不是悄悄修正。
	ErrClockSkew = errors.New("clock skew detected")

	// errAlreadyClosed 条件更新未命中：区间已被并发关闭。
	// 重复关闭是无害竞争，调用方按 no-op 处理。
	errAlreadyClosed = errors.New("interval already closed")
)

// retryOnce 对瞬时的存储错误在调用点重试一次；业务性错误不重试。
func retryOnce(fn func() error) error {
	err := fn()
	if err == nil || isPermanent(err) {
		return err
	}
	return fn()
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrClockSkew) ||
		errors.Is(err, errAlreadyClosed) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}
