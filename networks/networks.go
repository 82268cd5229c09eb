package networks

import (
	"fmt"
	"sync"
)

// Insert more Network implementations here to support more chains
var supportedNetworks = []Network{
	Avalanche,
	Fuji,
}

var globalSupportedNetworks = newSupportedNetworks()
var ErrNetworkNotFound = fmt.Errorf("network not found")

type networkSet struct {
	networks     map[string]Network
	networksByID map[uint64]Network
}

func (n *networkSet) getSupportedNetworkNames() []string {
	res := []string{}
	for _, nw := range n.networks {
		res = append(res, nw.GetName())
	}
	return res
}

func (n *networkSet) getNetworkByID(id uint64) (Network, error) {
	res, found := n.networksByID[id]
	if !found {
		return nil, fmt.Errorf("network id %d is not supported", id)
	}
	return res, nil
}

func (n *networkSet) getNetwork(name string) (Network, error) {
	res, found := n.networks[name]
	if !found {
		return nil, fmt.Errorf("network name '%s': %w", name, ErrNetworkNotFound)
	}
	return res, nil
}

func newSupportedNetworks() *networkSet {
	result := networkSet{
		map[string]Network{},
		map[uint64]Network{},
	}
	for _, n := range supportedNetworks {
		if _, found := result.networks[n.GetName()]; found {
			panic(fmt.Errorf("network with name or alternative name of '%s' already exists", n.GetName()))
		}
		result.networks[n.GetName()] = n
		result.networksByID[n.GetChainID()] = n
		for _, an := range n.GetAlternativeNames() {
			if _, found := result.networks[an]; found {
				panic(fmt.Errorf("network with name or alternative name of '%s' already exists", an))
			}
			result.networks[an] = n
		}
	}
	return &result
}

func GetSupportedNetworks() []Network {
	res := []Network{}
	for _, n := range supportedNetworks {
		res = append(res, n)
	}
	return res
}

func GetNetwork(name string) (Network, error) {
	return globalSupportedNetworks.getNetwork(name)
}

func GetNetworkByID(id uint64) (Network, error) {
	return globalSupportedNetworks.getNetworkByID(id)
}

func GetSupportedNetworkNames() []string {
	return globalSupportedNetworks.getSupportedNetworkNames()
}

var (
	cachedNetwork Network
	mu            sync.Mutex
)

// NetworkString is set by the CLI before the first CurrentNetwork call.
var NetworkString string

func CurrentNetwork() Network {
	if cachedNetwork != nil {
		return cachedNetwork
	}

	SetNetwork(NetworkString)

	return cachedNetwork
}

func SetNetwork(networkStr string) {
	mu.Lock()
	defer mu.Unlock()

	var err error
	cachedNetwork, err = GetNetwork(networkStr)
	if err != nil {
		cachedNetwork = Avalanche
	}
}
