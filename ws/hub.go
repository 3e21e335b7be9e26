package ws

// Hub 把进程内注册表与广播器适配给会话引擎的接口，
// 引擎因此可以在测试里换成假实现而不依赖真实传输层。
type Hub struct{}

func (Hub) LiveConnections(agentUUID string) int {
	return LiveConnections(agentUUID)
}

func (Hub) NotifyAgent(agentUUID string, payload any) {
	NotifyAgent(agentUUID, payload)
}

func (Hub) DropAgent(agentUUID string) {
	DropAgent(agentUUID)
}

func (Hub) Broadcast(event string, data any) {
	Broadcast(event, data)
}
