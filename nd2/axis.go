package nd2

// Sizes returns the logical extent of each axis, parsing attributes and
// experiment (if not already cached) and memoising the result.
func (r *Reader) Sizes() (*Sizes, error) {
	if r.sizes != nil {
		return r.sizes, nil
	}
	sizes, order, err := r.computeSizesAndOrder()
	if err != nil {
		return nil, err
	}
	r.sizes = sizes
	r.axisOrder = order
	return sizes, nil
}

// axisOrderAndShape returns the axis walk order and its parallel extent
// vector, used by the seq<->coord transform.
func (r *Reader) axisOrderAndShape() ([]Axis, []uint32, error) {
	sizes, err := r.Sizes()
	if err != nil {
		return nil, nil, err
	}
	shape := make([]uint32, len(r.axisOrder))
	for i, ax := range r.axisOrder {
		shape[i] = axisSize(sizes, ax)
	}
	return r.axisOrder, shape, nil
}

func axisSize(s *Sizes, ax Axis) uint32 {
	switch ax {
	case AxisP:
		return s.P
	case AxisT:
		return s.T
	case AxisC:
		return s.C
	case AxisZ:
		return s.Z
	case AxisY:
		return s.Y
	case AxisX:
		return s.X
	default:
		return 1
	}
}

func (r *Reader) computeSizesAndOrder() (*Sizes, []Axis, error) {
	attrs, err := r.Attributes()
	if err != nil {
		return nil, nil, err
	}
	loops, err := r.Experiment()
	if err != nil {
		return nil, nil, err
	}

	channelCount := attrs.ComponentCount
	if attrs.ChannelCount != nil {
		channelCount = *attrs.ChannelCount
	}

	if len(loops) == 0 {
		return emptyExperimentSizes(attrs, channelCount)
	}

	sizes := &Sizes{P: 1, T: 1, C: channelCount, Z: 1, Y: attrs.HeightPx, X: frameWidth(attrs)}
	order := make([]Axis, 0, len(loops)+4)
	seen := map[Axis]bool{}

	for _, loop := range loops {
		var ax Axis
		switch loop.Kind {
		case LoopTime, LoopNETime:
			ax = AxisT
			sizes.T = loop.Count
		case LoopXYPos:
			ax = AxisP
			sizes.P = loop.Count
		case LoopZStack:
			ax = AxisZ
			sizes.Z = loop.Count
		case LoopCustom:
			// Custom loops carry no axis of their own.
			continue
		default:
			continue
		}
		if !seen[ax] {
			order = append(order, ax)
			seen[ax] = true
		}
	}

	order = append(order, AxisC)
	for _, ax := range []Axis{AxisP, AxisT, AxisZ} {
		if !seen[ax] {
			order = append(order, ax)
		}
	}

	return sizes, order, nil
}

func emptyExperimentSizes(attrs *Attributes, channelCount uint32) (*Sizes, []Axis, error) {
	p := uint32(1)
	z := uint32(1)
	c := channelCount
	denom := p * c * z
	if denom == 0 {
		denom = 1
	}
	t := attrs.SequenceCount / denom
	sizes := &Sizes{P: p, T: t, C: c, Z: z, Y: attrs.HeightPx, X: frameWidth(attrs)}
	return sizes, []Axis{AxisP, AxisT, AxisC, AxisZ}, nil
}

func frameWidth(attrs *Attributes) uint32 {
	if attrs.WidthPx != nil {
		return *attrs.WidthPx
	}
	if attrs.WidthBytes != nil && attrs.BitsPerComponentInMemory > 0 && attrs.ComponentCount > 0 {
		bytesPerPixel := (attrs.BitsPerComponentInMemory / 8) * attrs.ComponentCount
		if bytesPerPixel > 0 {
			return *attrs.WidthBytes / bytesPerPixel
		}
	}
	return 0
}

// LoopIndices returns the (p,t,c,z) coordinate for every sequence index in
// [0, P*T*C*Z), in seq order.
func (r *Reader) LoopIndices() ([]Coord, error) {
	order, shape, err := r.axisOrderAndShape()
	if err != nil {
		return nil, err
	}
	total := 1
	for _, n := range shape {
		total *= int(n)
	}
	out := make([]Coord, total)
	for seq := 0; seq < total; seq++ {
		out[seq] = seqToCoord(seq, order, shape)
	}
	return out, nil
}

func seqToCoord(seq int, order []Axis, shape []uint32) Coord {
	var c Coord
	rem := seq
	for i := len(order) - 1; i >= 0; i-- {
		n := int(shape[i])
		var idx int
		if n > 0 {
			idx = rem % n
			rem /= n
		}
		setAxis(&c, order[i], uint32(idx))
	}
	return c
}

func coordToSeq(c Coord, order []Axis, shape []uint32) int {
	seq := 0
	for i, ax := range order {
		stride := 1
		for j := i + 1; j < len(order); j++ {
			stride *= int(shape[j])
		}
		seq += int(getAxis(c, ax)) * stride
	}
	return seq
}

func setAxis(c *Coord, ax Axis, v uint32) {
	switch ax {
	case AxisP:
		c.P = v
	case AxisT:
		c.T = v
	case AxisC:
		c.C = v
	case AxisZ:
		c.Z = v
	}
}

func getAxis(c Coord, ax Axis) uint32 {
	switch ax {
	case AxisP:
		return c.P
	case AxisT:
		return c.T
	case AxisC:
		return c.C
	case AxisZ:
		return c.Z
	default:
		return 0
	}
}
