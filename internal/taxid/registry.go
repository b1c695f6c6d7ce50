package taxid

import (
	"fmt"

	"despesify/internal/config"
	"despesify/internal/port"
)

// ProviderFactory creates a NIFProvider from the lookup config.
type ProviderFactory func(cfg *config.NIFConfig) (port.NIFProvider, error)

// registry of provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates the named provider using the registered factory.
func NewProvider(name string, cfg *config.NIFConfig) (port.NIFProvider, error) {
	factory, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown NIF provider: %s", name)
	}
	return factory(cfg)
}

// NewChainFromConfig builds a Chain from cfg.Providers in priority order.
func NewChainFromConfig(cfg *config.NIFConfig) (*Chain, error) {
	list := make([]port.NIFProvider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		p, err := NewProvider(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("taxid.NewChainFromConfig: %w", err)
		}
		list = append(list, p)
	}
	return NewChain(list...), nil
}
