package nd2

import (
	"errors"
	"sort"

	"github.com/keejkrej/nd2-go/internal/clx"
	"github.com/keejkrej/nd2-go/internal/container"
)

// Experiment returns the ordered experiment loop list (outermost first),
// parsing and memoising it on first call. A missing chunk yields an empty
// list, not an error.
func (r *Reader) Experiment() ([]ExpLoop, error) {
	if r.experiment != nil {
		return r.experiment, nil
	}

	root, err := r.decodeMetadataClx(r.experimentChunkName())
	if err != nil {
		var nf *container.ErrChunkNotFound
		if errors.As(err, &nf) {
			r.experiment = []ExpLoop{}
			return r.experiment, nil
		}
		return nil, err
	}

	loops := walkExperiment(root)
	r.experiment = loops
	return loops, nil
}

// walkExperiment descends the loop-descriptor tree via ppNextLevelEx,
// producing one ExpLoop per level (outermost first). Loops with count == 0
// are elided, except XYPosLoop (see parseXYPosLoop).
func walkExperiment(root clx.Value) []ExpLoop {
	loops := make([]ExpLoop, 0, 4)
	v := unwrapEnvelope(root)

	for v.Kind == clx.KindObject {
		if loop, ok := parseSingleLoop(v.Object); ok {
			loops = append(loops, loop)
		}

		next, hasNext := v.Object["ppNextLevelEx"]
		if !hasNext {
			break
		}
		v = unwrapEnvelope(resolveNextLevel(next))
	}

	return loops
}

// resolveNextLevel extracts the next loop descriptor from a ppNextLevelEx
// value: an Array (first element), an Object that is itself a loop
// descriptor (has a type key), or an Object indexed by sortable keys (first
// key in sorted order).
func resolveNextLevel(v clx.Value) clx.Value {
	switch v.Kind {
	case clx.KindArray:
		if len(v.Array) == 0 {
			return clx.Value{}
		}
		return v.Array[0]
	case clx.KindObject:
		if hasLoopTypeKey(v.Object) {
			return v
		}
		keys := make([]string, 0, len(v.Object))
		for k := range v.Object {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) == 0 {
			return clx.Value{}
		}
		return v.Object[keys[0]]
	default:
		return clx.Value{}
	}
}

func hasLoopTypeKey(fields map[string]clx.Value) bool {
	_, ok := fields["uiLoopType"]
	if ok {
		return true
	}
	_, ok = fields["eType"]
	return ok
}

// parseSingleLoop interprets one loop descriptor object. ok is false when
// the descriptor has no recognised type, or the loop is elided (count == 0
// and not XYPos with points).
func parseSingleLoop(fields map[string]clx.Value) (ExpLoop, bool) {
	typeVal, ok := fields["uiLoopType"]
	if !ok {
		typeVal, ok = fields["eType"]
	}
	if !ok {
		return ExpLoop{}, false
	}
	loopType, ok := typeVal.AsUint()
	if !ok {
		return ExpLoop{}, false
	}

	params := resolveLoopParams(fields)
	nestingLevel, _ := getUint(params, fields, "uiNestingLevel")

	switch loopType {
	case 1:
		return parseTimeLoop(params, fields, uint32(nestingLevel))
	case 2:
		return parseXYPosLoop(params, fields, uint32(nestingLevel))
	case 4:
		return parseZStackLoop(params, fields, uint32(nestingLevel))
	case 7:
		return parseCustomLoop(params, fields, uint32(nestingLevel))
	case 8:
		return parseNETimeLoop(params, fields, uint32(nestingLevel))
	default:
		return ExpLoop{}, false
	}
}

// resolveLoopParams returns the uLoopPars object, unwrapping a single
// "i0000000000"-keyed envelope if present.
func resolveLoopParams(fields map[string]clx.Value) map[string]clx.Value {
	raw, ok := fields["uLoopPars"]
	if !ok {
		return nil
	}
	if raw.Kind == clx.KindObject && len(raw.Object) == 1 {
		if inner, ok := raw.Object["i0000000000"]; ok {
			raw = inner
		}
	}
	if raw.Kind != clx.KindObject {
		return nil
	}
	return raw.Object
}

// getUint/getFloat/getBool/getValue read a field from params, falling back
// to the surrounding descriptor when absent from params.
func getValue(params, descriptor map[string]clx.Value, key string) (clx.Value, bool) {
	if params != nil {
		if v, ok := params[key]; ok {
			return v, true
		}
	}
	v, ok := descriptor[key]
	return v, ok
}

func getUint(params, descriptor map[string]clx.Value, key string) (uint64, bool) {
	v, ok := getValue(params, descriptor, key)
	if !ok {
		return 0, false
	}
	return v.AsUint()
}

func getFloat(params, descriptor map[string]clx.Value, key string) (float64, bool) {
	v, ok := getValue(params, descriptor, key)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

func getBool(params, descriptor map[string]clx.Value, key string) (bool, bool) {
	v, ok := getValue(params, descriptor, key)
	if !ok {
		return false, false
	}
	return v.AsBool()
}

func parseTimeLoop(params, fields map[string]clx.Value, nesting uint32) (ExpLoop, bool) {
	count, _ := getUint(params, fields, "uiCount")
	if count == 0 {
		return ExpLoop{}, false
	}
	start, _ := getFloat(params, fields, "dStart")
	period, _ := getFloat(params, fields, "dPeriod")
	duration, _ := getFloat(params, fields, "dDuration")

	tp := TimeLoopParams{StartMs: start, PeriodMs: period, DurationMs: duration}
	if diff, ok := getFloat(params, fields, "dPeriodDiff"); ok {
		tp.PeriodDiffMs = &diff
	}
	return ExpLoop{Kind: LoopTime, Count: uint32(count), NestingLevel: nesting, TimeParams: tp}, true
}

func parseZStackLoop(params, fields map[string]clx.Value, nesting uint32) (ExpLoop, bool) {
	count, _ := getUint(params, fields, "uiCount")
	if count == 0 {
		return ExpLoop{}, false
	}

	var homeIndex int32
	if hi, ok := getValue(params, fields, "uiHomeIndex"); ok {
		if n, ok := hi.AsInt(); ok {
			homeIndex = int32(n)
		}
	} else if zh, ok := getFloat(params, fields, "dZHome"); ok {
		homeIndex = int32(zh)
	}

	step, _ := getFloat(params, fields, "dZStep")

	bottomToTop := true
	if bt, ok := getBool(params, fields, "bBottomToTop"); ok {
		bottomToTop = bt
	} else if iType, ok := getUint(params, fields, "iType"); ok {
		bottomToTop = iType < 4
	}

	zp := ZStackLoopParams{HomeIndex: homeIndex, StepUm: step, BottomToTop: bottomToTop}
	if dev, ok := getValue(params, fields, "wsZDevice"); ok {
		if s, ok := dev.AsString(); ok {
			zp.DeviceName = &s
		}
	} else if pp, ok := getValue(params, fields, "pPeriod"); ok {
		if s, ok := pp.AsString(); ok {
			zp.DeviceName = &s
		}
	}

	return ExpLoop{Kind: LoopZStack, Count: uint32(count), NestingLevel: nesting, ZStackParams: zp}, true
}

func parseCustomLoop(params, fields map[string]clx.Value, nesting uint32) (ExpLoop, bool) {
	count, _ := getUint(params, fields, "uiCount")
	if count == 0 {
		return ExpLoop{}, false
	}
	return ExpLoop{Kind: LoopCustom, Count: uint32(count), NestingLevel: nesting}, true
}

func parseXYPosLoop(params, fields map[string]clx.Value, nesting uint32) (ExpLoop, bool) {
	useZ := true
	if v, ok := getBool(params, fields, "bUseZ"); ok {
		useZ = v
	}
	if v, ok := getBool(params, fields, "bIsSettingZ"); ok {
		useZ = v
	}

	var refX, refY float64
	relative := false
	if v, ok := getBool(params, fields, "bRelativeXY"); ok && v {
		relative = true
		refX, _ = getFloat(params, fields, "dReferenceX")
		refY, _ = getFloat(params, fields, "dReferenceY")
	}

	pointsVal, _ := getValue(params, fields, "Points")
	if pointsVal.Kind != clx.KindArray && pointsVal.Kind != clx.KindObject {
		pointsVal, _ = getValue(params, fields, "pPeriod")
	}
	validVal, hasValid := getValue(params, fields, "pItemValid")

	entries := valueEntries(pointsVal)
	validFlags := truthyFlags(validVal, hasValid, len(entries))

	points := make([]Position, 0, len(entries))
	for i, entry := range entries {
		if validFlags != nil && i < len(validFlags) && !validFlags[i] {
			continue
		}
		if entry.Kind != clx.KindObject {
			continue
		}
		fields := entry.Object
		pos := Position{}
		x, _ := getFloat(nil, fields, "dPosX")
		y, _ := getFloat(nil, fields, "dPosY")
		pos.StagePositionUm = StagePosition{X: x, Y: y}
		if useZ {
			z, _ := getFloat(nil, fields, "dPosZ")
			pos.StagePositionUm.Z = z
		}
		if relative {
			pos.StagePositionUm.X += refX
			pos.StagePositionUm.Y += refY
		}
		if pfs, ok := getFloat(nil, fields, "dPFSOffset"); ok && pfs >= 0 {
			pos.PFSOffset = &pfs
		}
		if name := firstString(fields, "dPosName", "pPosName", "wszName"); name != nil {
			pos.Name = name
		}
		points = append(points, pos)
	}

	count, hasCount := getUint(params, fields, "uiCount")
	if len(points) > 0 {
		count = uint64(len(points))
	} else if !hasCount {
		count = 0
	}
	if count == 0 {
		return ExpLoop{}, false
	}

	return ExpLoop{
		Kind:         LoopXYPos,
		Count:        uint32(count),
		NestingLevel: nesting,
		XYPosParams:  XYPosLoopParams{IsSettingZ: useZ, Points: points},
	}, true
}

func parseNETimeLoop(params, fields map[string]clx.Value, nesting uint32) (ExpLoop, bool) {
	periodsVal, _ := getValue(params, fields, "pPeriod")
	validVal, hasValid := getValue(params, fields, "pPeriodValid")

	entries := valueEntries(periodsVal)
	validFlags := truthyFlags(validVal, hasValid, len(entries))

	periods := make([]Period, 0, len(entries))
	var total uint64
	for i, entry := range entries {
		if validFlags != nil && i < len(validFlags) && !validFlags[i] {
			continue
		}
		if entry.Kind != clx.KindObject {
			continue
		}
		f := entry.Object
		count, _ := getUint(nil, f, "uiCount")
		if count == 0 {
			continue
		}
		start, _ := getFloat(nil, f, "dStart")
		period, ok := getFloat(nil, f, "dPeriod")
		if !ok {
			period, _ = getFloat(nil, f, "dAvgPeriodDiff")
		}
		duration, _ := getFloat(nil, f, "dDuration")
		p := Period{Count: uint32(count), StartMs: start, PeriodMs: period, DurationMs: duration}
		if diff, ok := getFloat(nil, f, "dPeriodDiff"); ok {
			p.PeriodDiffMs = &diff
		} else if diff, ok := getFloat(nil, f, "dAvgPeriodDiff"); ok {
			p.PeriodDiffMs = &diff
		}
		periods = append(periods, p)
		total += count
	}

	if total == 0 {
		return ExpLoop{}, false
	}

	return ExpLoop{
		Kind:         LoopNETime,
		Count:        uint32(total),
		NestingLevel: nesting,
		NETimeParams: NETimeLoopParams{Periods: periods},
	}, true
}

// valueEntries normalises a Points/pPeriod-shaped value (Array, or Object
// indexed by sortable keys) into an ordered slice of Values. Any other kind,
// ByteArray included, yields no entries.
func valueEntries(v clx.Value) []clx.Value {
	switch v.Kind {
	case clx.KindArray:
		return v.Array
	case clx.KindObject:
		keys := make([]string, 0, len(v.Object))
		for k := range v.Object {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]clx.Value, 0, len(keys))
		for _, k := range keys {
			out = append(out, v.Object[k])
		}
		return out
	default:
		return nil
	}
}

// truthyFlags normalises a pItemValid/pPeriodValid-shaped value (Array,
// Object-by-sorted-keys, or ByteArray) into a parallel slice of bool flags.
// Returns nil if the value is absent.
func truthyFlags(v clx.Value, present bool, want int) []bool {
	if !present {
		return nil
	}
	switch v.Kind {
	case clx.KindArray:
		out := make([]bool, len(v.Array))
		for i, e := range v.Array {
			b, _ := e.AsBool()
			out[i] = b
		}
		return out
	case clx.KindObject:
		entries := valueEntries(v)
		out := make([]bool, len(entries))
		for i, e := range entries {
			b, _ := e.AsBool()
			out[i] = b
		}
		return out
	case clx.KindByteArray:
		out := make([]bool, len(v.Bytes))
		for i, b := range v.Bytes {
			out[i] = b != 0
		}
		return out
	default:
		_ = want
		return nil
	}
}

func firstString(fields map[string]clx.Value, keys ...string) *string {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			if s, ok := v.AsString(); ok {
				return &s
			}
		}
	}
	return nil
}
