package config

// Config interface defines the basic configuration contract
type Config interface {
	GetName() string
	Validate() error
}

// ConfigChangeListener receives notifications whenever a named configuration
// is replaced, either through an explicit reload or through the file watcher.
// Implementations must tolerate being invoked from the watcher goroutine.
type ConfigChangeListener interface {
	OnConfigChanged(configName string, newConfig, oldConfig Config) error
}
