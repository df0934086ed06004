package register

// Capabilities parameterizes the register field widths and SRAM/engine counts that
// the builders would otherwise hardcode, mirroring RegistersCommon.hpp's
// HardwareCapabilities parameter threading (SPEC_FULL.md §6.2). The zero value is
// invalid; use DefaultCapabilities for the spec's implied single hardware variant.
type Capabilities struct {
	NumSrams       uint32
	NumEngines     uint32
	NumOgsPerEmc   uint32
	NumPleLanes    uint32
	TotalSramBytes uint32
}

// DefaultCapabilities returns the hardware variant this compiler targets absent any
// other configuration: 16 SRAM banks, 8 compute engines, 4 OGs per EMC, 8 PLE lanes,
// 1MiB of SRAM.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		NumSrams:       16,
		NumEngines:     8,
		NumOgsPerEmc:   4,
		NumPleLanes:    8,
		TotalSramBytes: 1 << 20,
	}
}
