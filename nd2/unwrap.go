package nd2

import "github.com/keejkrej/nd2-go/internal/clx"

// envelopeKeys are the degenerate wrapper keys the CLX tree uses when it
// holds exactly one item: an index-like placeholder, or a named singleton.
var envelopeKeys = map[string]bool{
	"":                   true,
	"i0000000000":        true,
	"SLxExperiment":      true,
	"SLxImageAttributes": true,
}

// unwrapEnvelope is an idempotent fixed-point function: repeatedly unwraps
// single-item envelopes (an Object with exactly one entry whose key is one
// of envelopeKeys, or a 1-element Array) until a multi-item object, or
// anything else, is reached.
func unwrapEnvelope(v clx.Value) clx.Value {
	for {
		switch v.Kind {
		case clx.KindObject:
			if len(v.Object) != 1 {
				return v
			}
			for k, inner := range v.Object {
				if !envelopeKeys[k] {
					return v
				}
				v = inner
			}
		case clx.KindArray:
			if len(v.Array) != 1 {
				return v
			}
			v = v.Array[0]
		default:
			return v
		}
	}
}
