package config

import "sync"

var (
	_instance     ConfigManager
	_instanceLock sync.Mutex
)

// GetInstance returns the process-wide configuration manager, creating it on
// first use. All packages that support hot-reload share this instance.
func GetInstance() ConfigManager {
	_instanceLock.Lock()
	defer _instanceLock.Unlock()

	if _instance == nil {
		_instance = NewConfigManager()
	}
	return _instance
}

// SetInstanceForTesting replaces the singleton with a caller-supplied manager.
// Intended for tests that need to inject a mock implementation.
func SetInstanceForTesting(cm ConfigManager) {
	_instanceLock.Lock()
	defer _instanceLock.Unlock()
	_instance = cm
}

// ResetInstance discards the singleton so the next GetInstance call creates a
// fresh manager. Intended for test isolation.
func ResetInstance() {
	_instanceLock.Lock()
	defer _instanceLock.Unlock()
	_instance = nil
}
