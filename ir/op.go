package ir

// Op is an operator of Unop, Binop, Triop and Qop expressions.
type Op uint16

const (
	OpInvalid Op = iota

	// Unary.
	OpNot1
	OpNot8
	OpNot16
	OpNot32
	OpNot64
	Op1Uto32
	Op1Uto64
	Op1Sto32
	Op1Sto64
	Op8Uto32
	Op8Uto64
	Op8Sto64
	Op16Uto64
	Op16Sto64
	Op32Uto64
	Op32Sto64
	Op64to32
	Op64to16
	Op64to8
	Op64to1
	Op32to1
	Op128to64
	Op128HIto64
	OpCmpNEZ8
	OpCmpNEZ32
	OpCmpNEZ64
	OpCmpNEZ16x4
	OpCmpNEZ32x2
	OpCmpwNEZ32
	OpCmpwNEZ64
	OpLeft32
	OpLeft64
	OpClz64
	OpAbsF32
	OpAbsF64
	OpAbsF128
	OpNegF32
	OpNegF64
	OpNegF128
	OpNotF32
	OpNotF64
	OpF32toF64
	OpF32toF128
	OpF64toF128
	OpF128HItoF64
	OpF128LOtoF64
	OpI32StoF64
	OpI32StoF128
	OpI64StoF128
	OpReinterpF32asI32
	OpReinterpF64asI64
	OpReinterpI64asF64

	// Binary.
	OpAdd64
	OpSub64
	OpMul64
	OpMulHiU64
	OpMullS32
	OpMullU32
	OpDivS64
	OpDivU64
	OpDivS64to32
	OpDivU64to32
	OpMax32U
	OpAnd32
	OpAnd64
	OpOr32
	OpOr64
	OpXor64
	OpShl32
	OpShl64
	OpShr32
	OpShr64
	OpSar32
	OpSar64
	OpCmpEQ8
	OpCmpNE8
	OpCasCmpEQ8
	OpCasCmpNE8
	OpCmpEQ32
	OpCmpNE32
	OpCasCmpEQ32
	OpCasCmpNE32
	OpCmpLT32S
	OpCmpLT32U
	OpCmpLE32S
	OpCmpLE32U
	OpCmpEQ64
	OpCmpNE64
	OpCasCmpEQ64
	OpCasCmpNE64
	OpCmpLT64S
	OpCmpLT64U
	OpCmpLE64S
	OpCmpLE64U
	Op32HLto64
	Op64HLto128
	OpAndF32
	OpAndF64
	OpOrF32
	OpOrF64
	OpXorF32
	OpXorF64
	OpCmpF32
	OpCmpF64
	OpCmpF128
	OpI32StoF32
	OpI64StoF32
	OpI64StoF64
	OpF32toI32U
	OpF32toI64U
	OpF64toI32U
	OpF64toI64U
	OpF128toI32U
	OpF128toI64U
	OpF64toF32
	OpF128toF32
	OpF128toF64
	OpF64HLtoF128
	OpMullF32
	OpMullF64
	OpSqrtF32
	OpSqrtF64
	OpSqrtF128
	OpShlF16x4
	OpShrF16x4
	OpSarF16x4
	OpQSalF16x4
	OpShlF32x2
	OpShrF32x2
	OpSarF32x2
	OpQSalF32x2

	// Ternary. The first argument of the floating point arithmetic is the rounding mode.
	OpAddF32
	OpAddF64
	OpAddF128
	OpSubF32
	OpSubF64
	OpSubF128
	OpMulF32
	OpMulF64
	OpMulF128
	OpDivF32
	OpDivF64
	OpDivF128
	OpAlignF64
	OpShuffleF64

	// Quaternary. The first argument is the rounding mode.
	OpMAddF32
	OpMAddF64
	OpMSubF32
	OpMSubF64

	numOps
)

type opInfo struct {
	name   string
	arity  byte
	result Type
}

var opInfos = [numOps]opInfo{
	OpNot1:             {"Not1", 1, TypeI1},
	OpNot8:             {"Not8", 1, TypeI8},
	OpNot16:            {"Not16", 1, TypeI16},
	OpNot32:            {"Not32", 1, TypeI32},
	OpNot64:            {"Not64", 1, TypeI64},
	Op1Uto32:           {"1Uto32", 1, TypeI32},
	Op1Uto64:           {"1Uto64", 1, TypeI64},
	Op1Sto32:           {"1Sto32", 1, TypeI32},
	Op1Sto64:           {"1Sto64", 1, TypeI64},
	Op8Uto32:           {"8Uto32", 1, TypeI32},
	Op8Uto64:           {"8Uto64", 1, TypeI64},
	Op8Sto64:           {"8Sto64", 1, TypeI64},
	Op16Uto64:          {"16Uto64", 1, TypeI64},
	Op16Sto64:          {"16Sto64", 1, TypeI64},
	Op32Uto64:          {"32Uto64", 1, TypeI64},
	Op32Sto64:          {"32Sto64", 1, TypeI64},
	Op64to32:           {"64to32", 1, TypeI32},
	Op64to16:           {"64to16", 1, TypeI16},
	Op64to8:            {"64to8", 1, TypeI8},
	Op64to1:            {"64to1", 1, TypeI1},
	Op32to1:            {"32to1", 1, TypeI1},
	Op128to64:          {"128to64", 1, TypeI64},
	Op128HIto64:        {"128HIto64", 1, TypeI64},
	OpCmpNEZ8:          {"CmpNEZ8", 1, TypeI1},
	OpCmpNEZ32:         {"CmpNEZ32", 1, TypeI1},
	OpCmpNEZ64:         {"CmpNEZ64", 1, TypeI1},
	OpCmpNEZ16x4:       {"CmpNEZ16x4", 1, TypeI64},
	OpCmpNEZ32x2:       {"CmpNEZ32x2", 1, TypeI64},
	OpCmpwNEZ32:        {"CmpwNEZ32", 1, TypeI32},
	OpCmpwNEZ64:        {"CmpwNEZ64", 1, TypeI64},
	OpLeft32:           {"Left32", 1, TypeI32},
	OpLeft64:           {"Left64", 1, TypeI64},
	OpClz64:            {"Clz64", 1, TypeI64},
	OpAbsF32:           {"AbsF32", 1, TypeF32},
	OpAbsF64:           {"AbsF64", 1, TypeF64},
	OpAbsF128:          {"AbsF128", 1, TypeF128},
	OpNegF32:           {"NegF32", 1, TypeF32},
	OpNegF64:           {"NegF64", 1, TypeF64},
	OpNegF128:          {"NegF128", 1, TypeF128},
	OpNotF32:           {"NotF32", 1, TypeF32},
	OpNotF64:           {"NotF64", 1, TypeF64},
	OpF32toF64:         {"F32toF64", 1, TypeF64},
	OpF32toF128:        {"F32toF128", 1, TypeF128},
	OpF64toF128:        {"F64toF128", 1, TypeF128},
	OpF128HItoF64:      {"F128HItoF64", 1, TypeF64},
	OpF128LOtoF64:      {"F128LOtoF64", 1, TypeF64},
	OpI32StoF64:        {"I32StoF64", 1, TypeF64},
	OpI32StoF128:       {"I32StoF128", 1, TypeF128},
	OpI64StoF128:       {"I64StoF128", 1, TypeF128},
	OpReinterpF32asI32: {"ReinterpF32asI32", 1, TypeI32},
	OpReinterpF64asI64: {"ReinterpF64asI64", 1, TypeI64},
	OpReinterpI64asF64: {"ReinterpI64asF64", 1, TypeF64},

	OpAdd64:       {"Add64", 2, TypeI64},
	OpSub64:       {"Sub64", 2, TypeI64},
	OpMul64:       {"Mul64", 2, TypeI64},
	OpMulHiU64:    {"MulHiU64", 2, TypeI64},
	OpMullS32:     {"MullS32", 2, TypeI64},
	OpMullU32:     {"MullU32", 2, TypeI64},
	OpDivS64:      {"DivS64", 2, TypeI64},
	OpDivU64:      {"DivU64", 2, TypeI64},
	OpDivS64to32:  {"DivS64to32", 2, TypeI32},
	OpDivU64to32:  {"DivU64to32", 2, TypeI32},
	OpMax32U:      {"Max32U", 2, TypeI32},
	OpAnd32:       {"And32", 2, TypeI32},
	OpAnd64:       {"And64", 2, TypeI64},
	OpOr32:        {"Or32", 2, TypeI32},
	OpOr64:        {"Or64", 2, TypeI64},
	OpXor64:       {"Xor64", 2, TypeI64},
	OpShl32:       {"Shl32", 2, TypeI32},
	OpShl64:       {"Shl64", 2, TypeI64},
	OpShr32:       {"Shr32", 2, TypeI32},
	OpShr64:       {"Shr64", 2, TypeI64},
	OpSar32:       {"Sar32", 2, TypeI32},
	OpSar64:       {"Sar64", 2, TypeI64},
	OpCmpEQ8:      {"CmpEQ8", 2, TypeI1},
	OpCmpNE8:      {"CmpNE8", 2, TypeI1},
	OpCasCmpEQ8:   {"CasCmpEQ8", 2, TypeI1},
	OpCasCmpNE8:   {"CasCmpNE8", 2, TypeI1},
	OpCmpEQ32:     {"CmpEQ32", 2, TypeI1},
	OpCmpNE32:     {"CmpNE32", 2, TypeI1},
	OpCasCmpEQ32:  {"CasCmpEQ32", 2, TypeI1},
	OpCasCmpNE32:  {"CasCmpNE32", 2, TypeI1},
	OpCmpLT32S:    {"CmpLT32S", 2, TypeI1},
	OpCmpLT32U:    {"CmpLT32U", 2, TypeI1},
	OpCmpLE32S:    {"CmpLE32S", 2, TypeI1},
	OpCmpLE32U:    {"CmpLE32U", 2, TypeI1},
	OpCmpEQ64:     {"CmpEQ64", 2, TypeI1},
	OpCmpNE64:     {"CmpNE64", 2, TypeI1},
	OpCasCmpEQ64:  {"CasCmpEQ64", 2, TypeI1},
	OpCasCmpNE64:  {"CasCmpNE64", 2, TypeI1},
	OpCmpLT64S:    {"CmpLT64S", 2, TypeI1},
	OpCmpLT64U:    {"CmpLT64U", 2, TypeI1},
	OpCmpLE64S:    {"CmpLE64S", 2, TypeI1},
	OpCmpLE64U:    {"CmpLE64U", 2, TypeI1},
	Op32HLto64:    {"32HLto64", 2, TypeI64},
	Op64HLto128:   {"64HLto128", 2, TypeI128},
	OpAndF32:      {"AndF32", 2, TypeF32},
	OpAndF64:      {"AndF64", 2, TypeF64},
	OpOrF32:       {"OrF32", 2, TypeF32},
	OpOrF64:       {"OrF64", 2, TypeF64},
	OpXorF32:      {"XorF32", 2, TypeF32},
	OpXorF64:      {"XorF64", 2, TypeF64},
	OpCmpF32:      {"CmpF32", 2, TypeI32},
	OpCmpF64:      {"CmpF64", 2, TypeI32},
	OpCmpF128:     {"CmpF128", 2, TypeI32},
	OpI32StoF32:   {"I32StoF32", 2, TypeF32},
	OpI64StoF32:   {"I64StoF32", 2, TypeF32},
	OpI64StoF64:   {"I64StoF64", 2, TypeF64},
	OpF32toI32U:   {"F32toI32U", 2, TypeI32},
	OpF32toI64U:   {"F32toI64U", 2, TypeI64},
	OpF64toI32U:   {"F64toI32U", 2, TypeI32},
	OpF64toI64U:   {"F64toI64U", 2, TypeI64},
	OpF128toI32U:  {"F128toI32U", 2, TypeI32},
	OpF128toI64U:  {"F128toI64U", 2, TypeI64},
	OpF64toF32:    {"F64toF32", 2, TypeF32},
	OpF128toF32:   {"F128toF32", 2, TypeF32},
	OpF128toF64:   {"F128toF64", 2, TypeF64},
	OpF64HLtoF128: {"F64HLtoF128", 2, TypeF128},
	OpMullF32:     {"MullF32", 2, TypeF64},
	OpMullF64:     {"MullF64", 2, TypeF128},
	OpSqrtF32:     {"SqrtF32", 2, TypeF32},
	OpSqrtF64:     {"SqrtF64", 2, TypeF64},
	OpSqrtF128:    {"SqrtF128", 2, TypeF128},
	OpShlF16x4:    {"ShlF16x4", 2, TypeF64},
	OpShrF16x4:    {"ShrF16x4", 2, TypeF64},
	OpSarF16x4:    {"SarF16x4", 2, TypeF64},
	OpQSalF16x4:   {"QSalF16x4", 2, TypeF64},
	OpShlF32x2:    {"ShlF32x2", 2, TypeF64},
	OpShrF32x2:    {"ShrF32x2", 2, TypeF64},
	OpSarF32x2:    {"SarF32x2", 2, TypeF64},
	OpQSalF32x2:   {"QSalF32x2", 2, TypeF64},

	OpAddF32:     {"AddF32", 3, TypeF32},
	OpAddF64:     {"AddF64", 3, TypeF64},
	OpAddF128:    {"AddF128", 3, TypeF128},
	OpSubF32:     {"SubF32", 3, TypeF32},
	OpSubF64:     {"SubF64", 3, TypeF64},
	OpSubF128:    {"SubF128", 3, TypeF128},
	OpMulF32:     {"MulF32", 3, TypeF32},
	OpMulF64:     {"MulF64", 3, TypeF64},
	OpMulF128:    {"MulF128", 3, TypeF128},
	OpDivF32:     {"DivF32", 3, TypeF32},
	OpDivF64:     {"DivF64", 3, TypeF64},
	OpDivF128:    {"DivF128", 3, TypeF128},
	OpAlignF64:   {"AlignF64", 3, TypeF64},
	OpShuffleF64: {"ShuffleF64", 3, TypeF64},

	OpMAddF32: {"MAddF32", 4, TypeF32},
	OpMAddF64: {"MAddF64", 4, TypeF64},
	OpMSubF32: {"MSubF32", 4, TypeF32},
	OpMSubF64: {"MSubF64", 4, TypeF64},
}

// String implements fmt.Stringer.
func (o Op) String() string {
	if o < numOps && opInfos[o].name != "" {
		return opInfos[o].name
	}
	return "invalid"
}

// Arity returns the number of arguments the operator takes.
func (o Op) Arity() int {
	if o >= numOps {
		return 0
	}
	return int(opInfos[o].arity)
}

// ResultType returns the type produced by the operator.
func (o Op) ResultType() Type {
	if o >= numOps {
		return TypeInvalid
	}
	return opInfos[o].result
}

// IsIntCmp returns true for comparisons which only produce 0 or 1.
func (o Op) IsIntCmp() bool {
	switch o {
	case OpCmpEQ8, OpCmpNE8, OpCasCmpEQ8, OpCasCmpNE8,
		OpCmpEQ32, OpCmpNE32, OpCasCmpEQ32, OpCasCmpNE32,
		OpCmpLT32S, OpCmpLT32U, OpCmpLE32S, OpCmpLE32U,
		OpCmpEQ64, OpCmpNE64, OpCasCmpEQ64, OpCasCmpNE64,
		OpCmpLT64S, OpCmpLT64U, OpCmpLE64S, OpCmpLE64U,
		OpCmpNEZ8, OpCmpNEZ32, OpCmpNEZ64:
		return true
	}
	return false
}
