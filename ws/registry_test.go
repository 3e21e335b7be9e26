package ws

import (
	"testing"

	"github.com/codeurluce/hellocenter-presence/database/models"
)

func TestAgentConnRegistry(t *testing.T) {
	agent := "agent-registry"
	c1 := &SafeConn{ID: 1}
	c2 := &SafeConn{ID: 2}

	AddAgentConn(agent, c1)
	AddAgentConn(agent, c2)
	if got := LiveConnections(agent); got != 2 {
		t.Fatalf("LiveConnections = %d, want 2", got)
	}

	found := false
	for _, uuid := range OnlineAgents() {
		if uuid == agent {
			found = true
		}
	}
	if !found {
		t.Fatal("agent missing from OnlineAgents")
	}

	if remaining := RemoveAgentConn(agent, c1); remaining != 1 {
		t.Fatalf("remaining after first remove = %d, want 1", remaining)
	}
	if remaining := RemoveAgentConn(agent, c2); remaining != 0 {
		t.Fatalf("remaining after last remove = %d, want 0", remaining)
	}
	if got := LiveConnections(agent); got != 0 {
		t.Fatalf("LiveConnections after removal = %d, want 0", got)
	}

	// 对未登记的坐席移除是无害的
	if remaining := RemoveAgentConn("agent-registry-nobody", c1); remaining != 0 {
		t.Fatalf("remove on unknown agent = %d, want 0", remaining)
	}
}

func TestLastSeen(t *testing.T) {
	agent := "agent-seen"
	if _, ok := LastSeen(agent); ok {
		t.Fatal("unknown agent should have no last seen")
	}
	MarkSeen(agent)
	if _, ok := LastSeen(agent); !ok {
		t.Fatal("MarkSeen not reflected in LastSeen")
	}
}

func TestLiveStatusCache(t *testing.T) {
	agent := "agent-live-cache"

	if status, ok := GetLiveStatus(agent); ok || status != models.StatusOffline {
		t.Fatalf("cold cache = (%s, %v), want (offline, false)", status, ok)
	}
	SetLiveStatus(agent, models.StatusLunch)
	if status, ok := GetLiveStatus(agent); !ok || status != models.StatusLunch {
		t.Fatalf("GetLiveStatus = (%s, %v), want (lunch, true)", status, ok)
	}
}
