package nd2

// PixelDataType is the sample representation of a frame's components.
type PixelDataType int

const (
	Unsigned PixelDataType = iota
	Float
)

// CompressionType is the frame compression scheme declared in Attributes.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionLossless
	CompressionLossy
)

// Attributes describes the image's dimensions, bit depth, and compression.
type Attributes struct {
	BitsPerComponentInMemory    uint32
	BitsPerComponentSignificant uint32
	ComponentCount              uint32
	HeightPx                    uint32
	SequenceCount               uint32
	PixelDataType               PixelDataType

	WidthPx          *uint32
	WidthBytes       *uint32
	TileWidthPx      *uint32
	TileHeightPx     *uint32
	ChannelCount     *uint32
	CompressionLevel *float64
	CompressionType  *CompressionType
}

// TextInfo holds free-form experiment metadata. Every field is optional.
type TextInfo struct {
	ImageID     *string
	Type        *string
	Group       *string
	SampleID    *string
	Author      *string
	Description *string
	Capturing   *string
	Sampling    *string
	Location    *string
	Date        *string
	Conclusion  *string
	Info1       *string
	Info2       *string
	Optics      *string
	AppVersion  *string
}

// LoopKind tags the ExpLoop variant.
type LoopKind int

const (
	LoopTime LoopKind = iota
	LoopNETime
	LoopXYPos
	LoopZStack
	LoopCustom
)

// TimeLoopParams holds the parameters of a single-period TimeLoop.
type TimeLoopParams struct {
	StartMs      float64
	PeriodMs     float64
	DurationMs   float64
	PeriodDiffMs *float64
}

// Period is one segment of a multi-period NETimeLoop.
type Period struct {
	Count        uint32
	StartMs      float64
	PeriodMs     float64
	DurationMs   float64
	PeriodDiffMs *float64
}

// NETimeLoopParams holds the parameters of a multi-period time loop.
type NETimeLoopParams struct {
	Periods []Period
}

// StagePosition is a 3-axis stage coordinate in micrometers.
type StagePosition struct {
	X, Y, Z float64
}

// Position is one point in an XYPosLoop.
type Position struct {
	StagePositionUm StagePosition
	PFSOffset       *float64
	Name            *string
}

// XYPosLoopParams holds the parameters of an XY position loop.
type XYPosLoopParams struct {
	IsSettingZ bool
	Points     []Position
}

// ZStackLoopParams holds the parameters of a Z-stack loop.
type ZStackLoopParams struct {
	HomeIndex   int32
	StepUm      float64
	BottomToTop bool
	DeviceName  *string
}

// ExpLoop is one axis of the multidimensional acquisition.
type ExpLoop struct {
	Kind         LoopKind
	Count        uint32
	NestingLevel uint32

	TimeParams   TimeLoopParams
	NETimeParams NETimeLoopParams
	XYPosParams  XYPosLoopParams
	ZStackParams ZStackLoopParams
}

// Sizes gives the logical extent of each axis.
type Sizes struct {
	P, T, C, Z, Y, X uint32
}

// Coord is one frame's position in the (P,T,C,Z) acquisition space.
type Coord struct {
	P, T, C, Z uint32
}

// Axis identifies one of the six logical axes.
type Axis int

const (
	AxisP Axis = iota
	AxisT
	AxisC
	AxisZ
	AxisY
	AxisX
)
