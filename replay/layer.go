/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package replay

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	ptp "github.com/facebook/gptp/protocol"
)

// Tiny wrapper code to support gopacket integration

// LayerGPTP wraps around gPTP message carried directly over Ethernet
type LayerGPTP struct {
	layers.BaseLayer

	Header ptp.Header
}

// LayerTypeGPTP is registered as a layer with gopacket
var LayerTypeGPTP = gopacket.RegisterLayerType(
	8021,
	gopacket.LayerTypeMetadata{
		Name:    "gPTP",
		Decoder: gopacket.DecodeFunc(decodeGPTP),
	},
)

func init() {
	// register mapping between EtherType and our custom gPTP layer
	layers.EthernetTypeMetadata[ptp.EtherType] = layers.EnumMetadata{
		DecodeWith: gopacket.DecodeFunc(decodeGPTP),
		Name:       "gPTP",
		LayerType:  LayerTypeGPTP,
	}
}

// LayerType returns type this layer implements
func (l *LayerGPTP) LayerType() gopacket.LayerType {
	return LayerTypeGPTP
}

// Payload is empty as it's the final layer
func (l *LayerGPTP) Payload() []byte {
	return nil
}

// decodeGPTP decodes the header, Ethernet padding is cut off by messageLength
func decodeGPTP(data []byte, p gopacket.PacketBuilder) error {
	d := &LayerGPTP{}
	if err := d.Header.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("decoding gPTP message: %w", err)
	}
	d.BaseLayer = layers.BaseLayer{Contents: data[:d.Header.MessageLength]}
	p.AddLayer(d)
	p.SetApplicationLayer(d)
	return nil
}
