package jitapi

import "fmt"

// TRC is the trap-return code an assisted exit hands to the dispatcher, telling it
// why the translated code gave control back.
type TRC uint32

const (
	TRCInvalICache   TRC = 61
	TRCEmWarn        TRC = 63
	TRCClientReq     TRC = 65
	TRCYield         TRC = 67
	TRCNoDecode      TRC = 69
	TRCSysSyscall    TRC = 73
	TRCNoRedir       TRC = 81
	TRCEmFail        TRC = 83
	TRCSigTRAP       TRC = 85
	TRCSigBUS        TRC = 93
	TRCBoring        TRC = 95
	TRCSigFPEIntDiv  TRC = 97
	TRCSigFPEIntOvf  TRC = 99
	TRCSigILL        TRC = 101
	TRCSysSyscall110 TRC = 115
	TRCSysSyscall111 TRC = 117
	TRCSysFasttrap   TRC = 119
)

// String implements fmt.Stringer.
func (t TRC) String() string {
	switch t {
	case TRCInvalICache:
		return "invalicache"
	case TRCEmWarn:
		return "emwarn"
	case TRCClientReq:
		return "clientreq"
	case TRCYield:
		return "yield"
	case TRCNoDecode:
		return "nodecode"
	case TRCSysSyscall:
		return "sys_syscall"
	case TRCNoRedir:
		return "noredir"
	case TRCEmFail:
		return "emfail"
	case TRCSigTRAP:
		return "sigtrap"
	case TRCSigBUS:
		return "sigbus"
	case TRCBoring:
		return "boring"
	case TRCSigFPEIntDiv:
		return "sigfpe_intdiv"
	case TRCSigFPEIntOvf:
		return "sigfpe_intovf"
	case TRCSigILL:
		return "sigill"
	case TRCSysSyscall110:
		return "sys_syscall110"
	case TRCSysSyscall111:
		return "sys_syscall111"
	case TRCSysFasttrap:
		return "sys_fasttrap"
	}
	return fmt.Sprintf("trc(%d)", uint32(t))
}
