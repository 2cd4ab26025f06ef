package nd2

import "github.com/keejkrej/nd2-go/internal/clx"

// Attributes returns the image attributes (dimensions, bit depth,
// compression), parsing and memoising them on first call. The attributes
// chunk is required; a missing chunk is an error.
func (r *Reader) Attributes() (*Attributes, error) {
	if r.attributes != nil {
		return r.attributes, nil
	}

	root, err := r.decodeMetadataClx(r.attributesChunkName())
	if err != nil {
		return nil, err
	}
	obj := unwrapEnvelope(root)

	attrs, err := parseAttributes(obj)
	if err != nil {
		return nil, err
	}
	r.attributes = attrs
	return attrs, nil
}

func parseAttributes(v clx.Value) (*Attributes, error) {
	fields := v.Object
	if fields == nil {
		return nil, metadataParsef("attributes: expected object, got %v", v.Kind)
	}

	bpcInMemory, ok := requireUint(fields, "uiBpcInMemory")
	if !ok {
		return nil, metadataParsef("attributes: missing uiBpcInMemory")
	}
	bpcSignificant, ok := requireUint(fields, "uiBpcSignificant")
	if !ok {
		return nil, metadataParsef("attributes: missing uiBpcSignificant")
	}
	comp, ok := requireUint(fields, "uiComp")
	if !ok {
		return nil, metadataParsef("attributes: missing uiComp")
	}
	height, ok := requireUint(fields, "uiHeight")
	if !ok {
		return nil, metadataParsef("attributes: missing uiHeight")
	}
	seqCount, ok := requireUint(fields, "uiSequenceCount")
	if !ok {
		return nil, metadataParsef("attributes: missing uiSequenceCount")
	}

	attrs := &Attributes{
		BitsPerComponentInMemory:    uint32(bpcInMemory),
		BitsPerComponentSignificant: uint32(bpcSignificant),
		ComponentCount:              uint32(comp),
		HeightPx:                    uint32(height),
		SequenceCount:               uint32(seqCount),
		PixelDataType:               Unsigned,
	}

	if compBPC, ok := optionalUint(fields, "uiCompBPC"); ok && compBPC == 3 {
		attrs.PixelDataType = Float
	}

	if width, ok := optionalUint(fields, "uiWidth"); ok {
		w := uint32(width)
		attrs.WidthPx = &w
	}
	if widthBytes, ok := optionalUint(fields, "uiWidthBytes"); ok {
		w := uint32(widthBytes)
		attrs.WidthBytes = &w
	}
	if tileW, ok := optionalUint(fields, "uiTileWidth"); ok {
		w := uint32(tileW)
		attrs.TileWidthPx = &w
	}
	if tileH, ok := optionalUint(fields, "uiTileHeight"); ok {
		h := uint32(tileH)
		attrs.TileHeightPx = &h
	}
	if channels, ok := optionalUint(fields, "uiChannelCount"); ok {
		c := uint32(channels)
		attrs.ChannelCount = &c
	}
	if level, ok := optionalFloat(fields, "dCompressionParam"); ok {
		attrs.CompressionLevel = &level
	}
	if comp, ok := fields["eCompression"]; ok {
		if s, ok := comp.AsString(); ok {
			ct := compressionFromString(s)
			attrs.CompressionType = &ct
		}
	}

	return attrs, nil
}

func compressionFromString(s string) CompressionType {
	switch s {
	case "lossless":
		return CompressionLossless
	case "lossy":
		return CompressionLossy
	default:
		return CompressionNone
	}
}

// requireUint reads a required u32-range field, applying the numeric
// coercion rule (accept wider int/float/bool CLX sources).
func requireUint(fields map[string]clx.Value, key string) (uint64, bool) {
	return optionalUint(fields, key)
}

func optionalUint(fields map[string]clx.Value, key string) (uint64, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	return v.AsUint()
}

func optionalFloat(fields map[string]clx.Value, key string) (float64, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}
