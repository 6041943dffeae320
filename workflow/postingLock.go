package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/shamseergtct/gtct-analytics/utils"
)

var (
	clientMutexMap = make(map[string]*sync.Mutex)
	globalMutex    = &sync.Mutex{}
)

const clientLockTTL = 30 * time.Second

// AcquireClientLock serializes ledger event handling per client. Within one
// process a mutex is used; across instances a redis lock when redis is connected.
func AcquireClientLock(ctx context.Context, clientId string) (func(), error) {
	globalMutex.Lock()
	mutex, exists := clientMutexMap[clientId]
	if !exists {
		mutex = &sync.Mutex{}
		clientMutexMap[clientId] = mutex
	}
	globalMutex.Unlock()

	mutex.Lock()
	release, err := utils.ObtainLock(ctx, "lock:ledger", clientId, clientLockTTL, "Workflow", "AcquireClientLock")
	if err != nil {
		mutex.Unlock()
		return nil, err
	}
	return func() {
		release()
		mutex.Unlock()
	}, nil
}
