package song

// Structural ceilings of the two target formats. The budget profile should
// reject out-of-bound specifications upstream; the writers enforce these
// again as a final safety net.
const (
	XMMaxChannels    = 32
	XMMaxPatterns    = 256
	XMMaxInstruments = 128
	XMMaxRows        = 256
	XMMaxOrders      = 256

	ITMaxChannels    = 64
	ITMaxPatterns    = 200
	ITMaxInstruments = 99
	ITMaxSamples     = 99
	ITMaxRows        = 200
	ITMinRows        = 32
	ITMaxOrders      = 256
)

// MaxChannels returns the channel ceiling for a format.
func MaxChannels(f Format) int {
	if f == FormatIT {
		return ITMaxChannels
	}
	return XMMaxChannels
}
