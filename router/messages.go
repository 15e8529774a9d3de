// package router defines the module-namespaced envelope that application
// modules send through the overlay. The overlay and the layers below it
// never interpret the payload.
package router

import "github.com/ineiti/fledger-sub003/codec"

// NetworkWrapper carries one serialized module message: the name of the
// module it belongs to plus the encoded body.
type NetworkWrapper struct {
	Module  string `json:"module"`
	Payload []byte `json:"payload"`
}

// WrapModule encodes v into a wrapper addressed to the given module.
func WrapModule(c codec.Codec, module string, v interface{}) (NetworkWrapper, error) {
	data, err := c.Encode(v)
	if err != nil {
		return NetworkWrapper{}, err
	}
	return NetworkWrapper{Module: module, Payload: data}, nil
}

// Unwrap decodes the payload into v if the wrapper belongs to the given
// module. A wrapper for another module returns false, not an error.
func (w NetworkWrapper) Unwrap(c codec.Codec, module string, v interface{}) (bool, error) {
	if w.Module != module {
		return false, nil
	}
	if err := c.Decode(w.Payload, v); err != nil {
		return false, err
	}
	return true, nil
}
