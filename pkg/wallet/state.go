package wallet

import (
	"encoding/json"

	"github.com/mr-tron/base58"
)

// State is a snapshot of the wallet session. It is replaced wholesale on
// every change and is never mutated in place.
type State struct {
	Address    *string
	Connected  bool
	Connection Connection
	Provider   Provider
}

// DefaultState is the disconnected state.
func DefaultState() State {
	return State{}
}

// ConnectedState returns the state for a freshly connected wallet.
func ConnectedState(address string, conn Connection, provider Provider) State {
	return State{
		Address:    &address,
		Connected:  true,
		Connection: conn,
		Provider:   provider,
	}
}

// AddressString returns the address, or an empty string when there is none.
func (s State) AddressString() string {
	if s.Address == nil {
		return ""
	}
	return *s.Address
}

type connectionJSON struct {
	Endpoint string `json:"endpoint"`
}

type providerJSON struct {
	PublicKey string `json:"publicKey"`
}

type stateJSON struct {
	Address    *string         `json:"address"`
	Connected  bool            `json:"connected"`
	Connection *connectionJSON `json:"connection"`
	Provider   *providerJSON   `json:"provider"`
}

// MarshalJSON renders the state the way the host page consumes it. Live
// handles are reduced to their identifying fields.
func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{
		Address:   s.Address,
		Connected: s.Connected,
	}

	if s.Connection != nil {
		out.Connection = &connectionJSON{}
		if e, ok := s.Connection.(Endpointer); ok {
			out.Connection.Endpoint = e.Endpoint()
		}
	}

	if s.Provider != nil {
		out.Provider = &providerJSON{
			PublicKey: base58.Encode(s.Provider.PublicKey()),
		}
	}

	return json.Marshal(out)
}
