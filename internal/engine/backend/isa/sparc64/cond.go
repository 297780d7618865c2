package sparc64

import "fmt"

// condCode is an integer condition tested against %xcc. The values are ordered so that
// c^1 is the negation of c.
type condCode byte

const (
	condA condCode = iota
	condN
	condNE
	condE
	condG
	condLE
	condGE
	condL
	condGU
	condLEU
	condCC
	condCS
	condPOS
	condNEG
	condVC
	condVS
	numCondCodes
)

// condEncoding is the four bit cond field of the branch and conditional move instructions.
var condEncoding = [numCondCodes]uint32{
	condA:   0x8,
	condN:   0x0,
	condNE:  0x9,
	condE:   0x1,
	condG:   0xA,
	condLE:  0x2,
	condGE:  0xB,
	condL:   0x3,
	condGU:  0xC,
	condLEU: 0x4,
	condCC:  0xD,
	condCS:  0x5,
	condPOS: 0xE,
	condNEG: 0x6,
	condVC:  0xF,
	condVS:  0x7,
}

var condNames = [numCondCodes]string{
	condA: "a", condN: "n", condNE: "ne", condE: "e",
	condG: "g", condLE: "le", condGE: "ge", condL: "l",
	condGU: "gu", condLEU: "leu", condCC: "cc", condCS: "cs",
	condPOS: "pos", condNEG: "neg", condVC: "vc", condVS: "vs",
}

// invert returns the condition which holds exactly when c does not.
func (c condCode) invert() condCode {
	return c ^ 1
}

func (c condCode) encoding() uint32 {
	if c >= numCondCodes {
		panic(fmt.Sprintf("BUG: invalid condition %d", c))
	}
	return condEncoding[c]
}

// String implements fmt.Stringer.
func (c condCode) String() string {
	if c >= numCondCodes {
		return "invalid"
	}
	return condNames[c]
}

// regCond is a condition on the contents of an integer register, used by movr.
type regCond byte

const (
	regCondZ   regCond = 1
	regCondLEZ regCond = 2
	regCondLZ  regCond = 3
	regCondNZ  regCond = 5
	regCondGZ  regCond = 6
	regCondGEZ regCond = 7
)

// String implements fmt.Stringer.
func (c regCond) String() string {
	switch c {
	case regCondZ:
		return "z"
	case regCondLEZ:
		return "lez"
	case regCondLZ:
		return "lz"
	case regCondNZ:
		return "nz"
	case regCondGZ:
		return "gz"
	case regCondGEZ:
		return "gez"
	}
	return "invalid"
}
